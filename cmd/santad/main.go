// Command santad is the binary execution authorization daemon: it watches
// process execution, consults the rule store and configured client mode,
// and posts an allow or deny verdict back to the kernel authorization
// hook.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "santad",
	Short: "binary execution authorization daemon",
	RunE:  runDaemon,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "/etc/santad/config.yaml", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")

	rootCmd.Flags().StringVar(&kernelSocket, "kernel-socket", "/var/run/santad/kernel.sock", "kernel transport unix socket path")
	rootCmd.Flags().StringVar(&rulesPath, "rules-path", "/var/db/santad/rules.json", "rule store backing file")
	rootCmd.Flags().StringVar(&eventsPath, "events-path", "/var/db/santad/events.jsonl", "event store backing file")
	rootCmd.Flags().StringVar(&rpcSocket, "rpc-socket", "/var/run/santad/rpc.sock", "rule-management RPC unix socket path")
	rootCmd.Flags().StringVar(&decisionLogPath, "decision-log", "/var/log/santad/decisions.log", "decision log file path")
	rootCmd.Flags().StringVar(&execLogPath, "exec-log", "/var/log/santad/exec.log", "execution log file path")
	rootCmd.Flags().StringVar(&mutationLogPath, "mutation-log", "/var/log/santad/mutations.log", "file-modification log file path")
	rootCmd.Flags().StringVar(&notifyURL, "notify-url", "ws://127.0.0.1:7777/notify", "GUI notification websocket URL")
	rootCmd.Flags().StringVar(&adminToolPath, "admin-tool", "/usr/local/bin/santactl", "admin tool path spawned for event uploads")
	rootCmd.Flags().StringVar(&daemonCertSHA256, "daemon-cert-sha256", "", "self-protection: this daemon's signing certificate SHA-256")
	rootCmd.Flags().StringVar(&initCertSHA256, "init-cert-sha256", "", "self-protection: the init process's signing certificate SHA-256")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write daemon diagnostics to this size-rotated file instead of stderr")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("santad v0.1.0")
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
