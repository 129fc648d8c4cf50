// Package preflight evaluates local environment requirements before the
// daemon starts work: feed directories must be readable and writable,
// and the transfer tool must be on PATH.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"castsync/internal/config"
)

// Result captures one requirement check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectory verifies the path exists, is a directory, and grants
// read, write, and traverse permission to the current user.
func CheckDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCommand verifies an executable is resolvable on PATH.
func CheckCommand(name, command string) Result {
	if strings.TrimSpace(command) == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found on PATH", command)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("found at %s", resolved)}
}

// CheckAll evaluates every requirement for the given configuration:
// state, log, and staging directories, the yt-dlp binary, and each
// enabled feed's library directory.
func CheckAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectory("State directory", cfg.Paths.StateDir),
		CheckDirectory("Log directory", cfg.Paths.LogDir),
		CheckDirectory("Staging directory", cfg.Paths.StagingDir),
		CheckCommand("yt-dlp", cfg.Downloads.YtdlpPath),
	}
	for _, feed := range cfg.EnabledFeeds() {
		results = append(results, CheckDirectory("Feed "+feed.Name, feed.Directory))
	}
	return results
}

// Failed filters results down to the ones that did not pass.
func Failed(results []Result) []Result {
	out := make([]Result, 0)
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
