package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lomehong/santad/internal/applog"
	"github.com/lomehong/santad/internal/cache"
	"github.com/lomehong/santad/internal/codesign"
	"github.com/lomehong/santad/internal/config"
	"github.com/lomehong/santad/internal/dispatch"
	"github.com/lomehong/santad/internal/events"
	"github.com/lomehong/santad/internal/kernel"
	"github.com/lomehong/santad/internal/notify"
	"github.com/lomehong/santad/internal/policy"
	"github.com/lomehong/santad/internal/rpcsrv"
	"github.com/lomehong/santad/internal/rules"
	"github.com/lomehong/santad/pkg/logger"
)

var (
	kernelSocket     string
	rulesPath        string
	eventsPath       string
	rpcSocket        string
	decisionLogPath  string
	execLogPath      string
	mutationLogPath  string
	notifyURL        string
	adminToolPath    string
	daemonCertSHA256 string
	initCertSHA256   string
	logFile          string
)

func runDaemon(cmd *cobra.Command, args []string) error {
	var log logger.Logger
	if logFile != "" {
		log = logger.NewRotatingLogger("santad", logger.GetLogLevel(logLevel), logFile, 100*1024*1024, 5, 30*24*time.Hour)
	} else {
		log = logger.NewLogger("santad", logger.GetLogLevel(logLevel))
	}

	cfgProvider, err := config.NewProvider(cfgFile, log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if stop, err := cfgProvider.Watch(ctx); err != nil {
		log.Warn("config watcher failed to start, continuing on the loaded snapshot", "error", err)
	} else {
		defer stop()
	}

	self := rules.SelfProtection{DaemonCertSHA256: daemonCertSHA256, InitCertSHA256: initCertSHA256}
	ruleStore, err := rules.Open(rulesPath, self, log)
	if err != nil {
		return err
	}

	eventStore, err := events.Open(eventsPath, log)
	if err != nil {
		return err
	}
	defer eventStore.Close()

	decisionLog, err := applog.Open(decisionLogPath)
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer decisionLog.Close()

	execLog, err := applog.Open(execLogPath)
	if err != nil {
		return fmt.Errorf("open execution log: %w", err)
	}
	defer execLog.Close()

	mutationLog, err := applog.Open(mutationLogPath)
	if err != nil {
		return fmt.Errorf("open mutation log: %w", err)
	}
	defer mutationLog.Close()

	transport, err := kernel.Dial(ctx, kernelSocket, log)
	if err != nil {
		return err
	}
	defer transport.Close()

	notifyCh := notify.NewWebSocketChannel(notifyURL, log)
	defer notifyCh.Close()

	decisionCache := cache.New(0)

	signingProbe := codesign.NewShellProbe()
	if self, err := os.Executable(); err != nil {
		log.Warn("could not resolve own executable path, skipping code-signature bootstrap", "error", err)
	} else {
		// First invocation of the platform verification tool against
		// the daemon's own binary must happen before it starts probing
		// others, or the first real decision pays that bootstrap cost
		// (spec §4.3/§9).
		codesign.BootstrapSelf(signingProbe, self)
	}

	engine := &policy.Engine{
		Kernel:        transport,
		Rules:         ruleStore,
		Events:        eventStore,
		Cache:         decisionCache,
		Config:        cfgProvider,
		Signing:       signingProbe,
		Notify:        notifyCh,
		DecisionLog:   decisionLog,
		ExecLog:       execLog,
		MutationLog:   mutationLog,
		ParentName:    policy.GopsutilParentName{},
		AdminSpawn:    policy.NewUnprivilegedSpawner(0, 0),
		AdminToolPath: adminToolPath,
		Log:           log,
	}

	rpcServer := &rpcsrv.Server{
		SocketPath: rpcSocket,
		Service: &rpcsrv.Service{
			Rules:  ruleStore,
			Cache:  decisionCache,
			Kernel: transport,
			Log:    log,
		},
		Log: log,
	}
	if err := rpcServer.Start(); err != nil {
		return fmt.Errorf("start rule-management RPC surface: %w", err)
	}
	defer rpcServer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	d := &dispatch.Dispatcher{
		Transport: transport,
		Engine:    engine,
		Config:    cfgProvider,
		Log:       log,
	}

	log.Info("santad starting", "kernel_socket", kernelSocket, "rpc_socket", rpcSocket, "config", cfgFile)
	return d.Run(ctx)
}
