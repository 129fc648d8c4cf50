package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"castsync/internal/daemon"
	"castsync/internal/ipc"
	"castsync/internal/ledger"
	"castsync/internal/logging"
	"castsync/internal/preflight"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the castsync daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, stop := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(signalCtx)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := uuid.NewString()
	logPath := filepath.Join(cfg.Paths.LogDir, "castsyncd.log")
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", runID))

	for _, check := range preflight.Failed(preflight.CheckAll(cfg)) {
		logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail))
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "castsyncd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger store", logging.Error(err))
		return err
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, logger, nil, nil)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(runCtx, ctx.socketPath(), d, cancel, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(runCtx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return err
	}

	<-runCtx.Done()
	logger.Info("castsync daemon shutting down")
	d.Stop()
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
