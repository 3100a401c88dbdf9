// Package tunnelproc implements tunnel.TunnelProcess by spawning an
// external WireGuard-compatible binary and watching its stdout for the
// ready/exit protocol it speaks.
package tunnelproc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

const readyLinePrefix = "READY "

// Launcher spawns the configured tunnel binary for every connection
// attempt. It implements tunnel.TunnelProcess.
type Launcher struct {
	binaryPath string
}

// New creates a Launcher that runs binaryPath to bring up each tunnel.
func New(binaryPath string) *Launcher {
	return &Launcher{binaryPath: binaryPath}
}

// Spawn implements tunnel.TunnelProcess.
func (l *Launcher) Spawn(ctx context.Context, params tunnel.Parameters) (tunnel.ProcessHandle, error) {
	args := buildArgs(params)
	cmd := exec.CommandContext(ctx, l.binaryPath, args...)
	cmd.Dir = params.ResourceDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("tunnelproc: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("tunnelproc: start: %w", err)
	}
	core.Log.Infof("Tunnel", "attempt %s: spawned %s (pid %d) for %s:%d", params.AttemptID, l.binaryPath, cmd.Process.Pid, params.Endpoint.Host, params.Endpoint.Port)

	h := &handle{
		cmd:    cmd,
		up:     make(chan []string, 1),
		exited: make(chan tunnel.ExitResult, 1),
	}
	go h.watch(stdout)
	return h, nil
}

func buildArgs(params tunnel.Parameters) []string {
	args := []string{
		"--endpoint", fmt.Sprintf("%s:%d", params.Endpoint.Host, params.Endpoint.Port),
		"--protocol", params.Endpoint.Protocol,
		"--token", params.Credential,
	}
	if params.Options.EnableIPv6 {
		args = append(args, "--enable-ipv6")
	}
	if params.Options.OpenVPNMssfix != nil {
		args = append(args, "--mssfix", fmt.Sprintf("%d", *params.Options.OpenVPNMssfix))
	}
	return args
}

type handle struct {
	cmd    *exec.Cmd
	up     chan []string
	exited chan tunnel.ExitResult

	mu           sync.Mutex
	closeOnce    sync.Once
	wasRequested bool
}

func (h *handle) Up() <-chan []string            { return h.up }
func (h *handle) Exited() <-chan tunnel.ExitResult { return h.exited }

// Close implements tunnel.ProcessHandle by terminating the child
// process; the exit is still reported asynchronously through Exited.
func (h *handle) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.wasRequested = true
		h.mu.Unlock()
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}

// watch reads the child's stdout protocol line by line, reporting the
// ready event exactly once, then blocks on process exit.
func (h *handle) watch(stdout io.ReadCloser) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if dns, ok := parseReady(line); ok {
			h.up <- dns
			break
		}
	}
	// Drain whatever output remains so the process is never blocked on
	// a full stdout pipe.
	go io.Copy(io.Discard, stdout)

	err := h.cmd.Wait()

	h.mu.Lock()
	requested := h.wasRequested
	h.mu.Unlock()

	if err != nil && !requested {
		core.Log.Warnf("Tunnel", "process exited: %v", err)
	}
	h.exited <- tunnel.ExitResult{Err: errOrNil(err, requested), WasRequested: requested}
	close(h.exited)
}

func errOrNil(err error, requested bool) error {
	if requested {
		return nil
	}
	return err
}

func parseReady(line string) ([]string, bool) {
	if !strings.HasPrefix(line, readyLinePrefix) {
		return nil, false
	}
	rest := strings.TrimPrefix(line, readyLinePrefix)
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return []string{}, true
	}
	return strings.Split(rest, ","), true
}
