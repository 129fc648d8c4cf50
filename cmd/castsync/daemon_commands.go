package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"castsync/internal/daemonctl"
	"castsync/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the castsync daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch {
			case result.AlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case result.Launched:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			default:
				fmt.Fprintln(stdout, "Daemon started")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the castsync daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.Acknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, feed, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext) error {
	stdout := cmd.OutOrStdout()
	report := newReporter(stdout)

	report.section("Environment")
	for _, result := range preflight.CheckAll(ctx.configValue()) {
		report.check(result.Name, result.Passed, result.Detail)
	}
	report.blank()

	report.section("Daemon")
	client, err := ctx.dialClient()
	if err != nil {
		report.warn("Running", "no (daemon unreachable)")
		return nil
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("query status: %w", err)
	}

	if status.Running {
		report.ok("Running", yesNo(status.Running))
	} else {
		report.warn("Running", yesNo(status.Running))
	}
	report.info("PID", strconv.Itoa(status.PID))
	report.info("Socket", ctx.socketPath())
	report.info("Database", status.DBPath)
	report.blank()

	report.section("Feeds")
	if len(status.Feeds) == 0 {
		report.plain("No feeds configured")
	} else {
		rows := make([][]string, 0, len(status.Feeds))
		for _, feed := range status.Feeds {
			rows = append(rows, []string{
				feed.Name,
				feed.State,
				strconv.Itoa(feed.Episodes),
				feed.LastSyncAt,
				feed.LastError,
			})
		}
		writeTable(stdout,
			[]string{"Feed", "State", "Episodes", "Last Sync", "Last Error"},
			rows, "Episodes")
	}
	report.blank()

	report.section("Queue")
	rows := buildQueueStatusRows(status.QueueStats)
	if len(rows) == 0 {
		report.plain("Queue is empty")
		return nil
	}
	writeTable(stdout, []string{"Status", "Count"}, rows, "Count")
	return nil
}

func buildQueueStatusRows(stats map[string]int) [][]string {
	keys := make([]string, 0, len(stats))
	for key, count := range stats {
		if count > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, strconv.Itoa(stats[key])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
