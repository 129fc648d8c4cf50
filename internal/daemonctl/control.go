// Package daemonctl orchestrates the castsync daemon process from the
// CLI: launching a detached instance, waiting for its socket, and
// stopping it over IPC.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"castsync/internal/ipc"
)

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

// StartResult captures daemon start orchestration state.
type StartResult struct {
	Launched       bool
	AlreadyRunning bool
	PID            int
}

// StopResult captures daemon stop outcome.
type StopResult struct {
	Acknowledged bool
	PID          int
}

// Launch starts a detached castsync daemon process running the given
// executable's daemon subcommand.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	proc.Stdin = nil
	proc.Stdout = nil
	proc.Stderr = nil
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a
// connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon when its socket is unreachable and
// reports the resulting state.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	status, statusErr := client.Status()
	if statusErr != nil {
		return StartResult{Launched: launched}, fmt.Errorf("query daemon status: %w", statusErr)
	}
	return StartResult{
		Launched:       launched,
		AlreadyRunning: !launched && status.Running,
		PID:            status.PID,
	}, nil
}

// Stop requests daemon shutdown over IPC and waits for the socket to
// disappear.
func Stop(socketPath string, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}

	pid := 0
	if status, statusErr := client.Status(); statusErr == nil {
		pid = status.PID
	}

	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{PID: pid}, err
	}

	result := StopResult{Acknowledged: resp.Stopping, PID: pid}
	if err := WaitForShutdown(socketPath, gracePeriod); err != nil {
		return result, err
	}
	return result, nil
}

// WaitForShutdown waits for the daemon socket to disappear or stop
// accepting connections.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return nil
		}
		_ = client.Close()
		lastErr = fmt.Errorf("daemon still running")
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
