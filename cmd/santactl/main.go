// Command santactl is the admin CLI for santad: rule management over the
// rule-management RPC surface, a status summary, and a sync stub (spec §6,
// and the original's santactl admin tool in spirit).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rpcSocketFlag string
	configFlag    string
	rulesPathFlag string
)

var rootCmd = &cobra.Command{
	Use:   "santactl",
	Short: "santad admin tool",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcSocketFlag, "rpc-socket", "/var/run/santad/rpc.sock", "rule-management RPC unix socket path")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "/etc/santad/config.yaml", "daemon configuration file path, read locally for status")
	rootCmd.PersistentFlags().StringVar(&rulesPathFlag, "rules-path", "/var/db/santad/rules.json", "rule store backing file, read locally for status")

	rootCmd.AddCommand(versionCmd, statusCmd, ruleCmd, syncCmd)
	ruleCmd.AddCommand(ruleAddCmd, ruleRemoveCmd)
	syncCmd.AddCommand(syncSingleEventCmd)

	ruleAddCmd.Flags().StringVar(&ruleHash, "hash", "", "SHA-256 of the binary or leaf certificate (64 hex chars)")
	ruleAddCmd.Flags().StringVar(&ruleKind, "kind", "binary", "rule kind: binary|certificate")
	ruleAddCmd.Flags().StringVar(&ruleState, "state", "whitelist", "rule state: whitelist|blacklist|silent-blacklist")
	ruleAddCmd.Flags().StringVar(&ruleMessage, "message", "", "custom message shown to the user on denial")
	ruleAddCmd.Flags().BoolVar(&ruleCleanSlate, "clean-slate", false, "replace the entire rule set instead of upserting")
	_ = ruleAddCmd.MarkFlagRequired("hash")

	ruleRemoveCmd.Flags().StringVar(&ruleHash, "hash", "", "SHA-256 of the binary or leaf certificate (64 hex chars)")
	ruleRemoveCmd.Flags().StringVar(&ruleKind, "kind", "binary", "rule kind: binary|certificate")
	_ = ruleRemoveCmd.MarkFlagRequired("hash")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("santactl v0.1.0")
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
