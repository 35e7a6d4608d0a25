package launcher

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// PortInUse reports whether something already listens on the TCP port.
func PortInUse(port int) bool {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return true
	}
	ln.Close()
	return false
}

// FreePort kills any process listening on the specified port.
// Uses lsof on Unix-like systems, netstat and taskkill on Windows.
// This is the cleanup for a judge server left over from an earlier run.
func FreePort(ctx context.Context, port int, log zerolog.Logger) error {
	var pids []int
	var err error
	if runtime.GOOS == "windows" {
		pids, err = listenerPIDsWindows(ctx, port)
	} else {
		pids, err = listenerPIDsUnix(ctx, port)
	}
	if err != nil {
		return err
	}

	self := os.Getpid()
	for _, pid := range pids {
		if pid == self {
			continue
		}
		if err := killPID(ctx, pid); err != nil {
			log.Warn().Err(err).Int("pid", pid).Int("port", port).Msg("failed to kill stale listener")
			continue
		}
		log.Info().Int("pid", pid).Int("port", port).Msg("killed stale listener")
	}
	return nil
}

func listenerPIDsUnix(ctx context.Context, port int) ([]int, error) {
	out, err := exec.CommandContext(ctx, "lsof", "-ti", fmt.Sprintf("tcp:%d", port), "-sTCP:LISTEN").Output()
	if err != nil {
		// lsof exits non-zero when nothing matches
		return nil, nil
	}
	return parsePIDList(string(out)), nil
}

func listenerPIDsWindows(ctx context.Context, port int) ([]int, error) {
	out, err := exec.CommandContext(ctx, "netstat", "-ano", "-p", "TCP").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run netstat: %w", err)
	}
	return parseNetstatListeners(string(out), port), nil
}

func killPID(ctx context.Context, pid int) error {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "taskkill", "/F", "/PID", strconv.Itoa(pid)).Run()
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// parsePIDList parses one PID per line (lsof -t output).
func parsePIDList(output string) []int {
	var pids []int
	for _, line := range strings.Split(output, "\n") {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// parseNetstatListeners extracts the PIDs of LISTENING sockets whose local
// address ends in :port from `netstat -ano` output.
//
//	Proto  Local Address          Foreign Address        State           PID
//	TCP    0.0.0.0:5000           0.0.0.0:0              LISTENING       4242
func parseNetstatListeners(output string, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	seen := make(map[int]bool)
	var pids []int
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) || fields[3] != "LISTENING" {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	return pids
}

// PortGuard exposes PortInUse and FreePort to the startup sequence.
type PortGuard struct {
	Log zerolog.Logger
}

// InUse reports whether something already listens on port.
func (g PortGuard) InUse(port int) bool {
	return PortInUse(port)
}

// Free kills stale listeners on port, logging each one.
func (g PortGuard) Free(ctx context.Context, port int) error {
	return FreePort(ctx, port, g.Log)
}
