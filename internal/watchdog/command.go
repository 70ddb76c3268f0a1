// Package watchdog supervises the Horizon child process: it (re)starts it
// on crash with crash-loop damping, exposes an explicit restart with a
// graceful-then-forced termination, health-probes it, and restarts it again
// when it stops answering. The supervisor loop follows the single
// long-lived-task design the original Rust watchdog uses (one task owns
// the child handle; every external read goes through atomic Stats), adapted
// to Go's goroutine/channel idiom in the style of this server's gomind
// ancestor (core/agent.go's lifecycle goroutines and mutex-guarded state).
package watchdog

import (
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/permitio/pdp-sidecar/core"
)

// CommandWatchdogOptions tunes the supervisor loop.
type CommandWatchdogOptions struct {
	// RestartInterval is the minimum wall-clock time between consecutive
	// spawns; a child that exits sooner causes the supervisor to sleep
	// out the remainder before spawning again (crash-loop damping).
	RestartInterval time.Duration

	// TerminationTimeout is the grace period given to the child to exit
	// after SIGTERM before it is force-killed.
	TerminationTimeout time.Duration
}

// DefaultCommandWatchdogOptions returns the spec defaults (1s / 500ms).
func DefaultCommandWatchdogOptions() CommandWatchdogOptions {
	return CommandWatchdogOptions{
		RestartInterval:    1 * time.Second,
		TerminationTimeout: 500 * time.Millisecond,
	}
}

// CommandWatchdog owns a single child process across its lifetime: at most
// one instance of the child is alive at any moment, and after Close is
// called no further spawns occur.
type CommandWatchdog struct {
	descriptor *Descriptor
	opts       CommandWatchdogOptions
	logger     core.Logger
	stats      Stats

	restartCh chan struct{}
	shutdown  chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	cmd *exec.Cmd
}

// StartCommandWatchdog spawns the supervisor goroutine and returns
// immediately with a handle; the child itself may still be starting.
func StartCommandWatchdog(descriptor *Descriptor, opts CommandWatchdogOptions, logger core.Logger) *CommandWatchdog {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	w := &CommandWatchdog{
		descriptor: descriptor,
		opts:       opts,
		logger:     logger,
		restartCh:  make(chan struct{}, 1),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	go w.superviseLoop()
	return w
}

func (w *CommandWatchdog) StartCounter() uint64 { return w.stats.StartCounter() }
func (w *CommandWatchdog) LastExitCode() int    { return w.stats.LastExitCode() }
func (w *CommandWatchdog) Stats() *Stats        { return &w.stats }

// PID returns the current child's process ID, or 0 if no child is running.
func (w *CommandWatchdog) PID() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cmd == nil || w.cmd.Process == nil {
		return 0
	}
	return w.cmd.Process.Pid
}

// Restart asks the supervisor to gracefully-then-forcibly terminate the
// current child and start a fresh one. It fails only if the watchdog is
// already shutting down.
func (w *CommandWatchdog) Restart() error {
	select {
	case <-w.shutdown:
		return fmt.Errorf("watchdog: cannot restart, shutting down")
	default:
	}

	select {
	case w.restartCh <- struct{}{}:
	default:
		// a restart is already pending; the single-slot signal absorbs it
	}
	return nil
}

// Close triggers shutdown and blocks until the supervisor loop has
// terminated the child and exited. Safe to call more than once.
func (w *CommandWatchdog) Close() {
	w.closeOnce.Do(func() {
		close(w.shutdown)
	})
	<-w.done
}

func (w *CommandWatchdog) superviseLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.shutdown:
			return
		default:
		}

		start := time.Now()
		w.stats.incrementStartCounter()

		cmd := exec.Command(w.descriptor.Program, w.descriptor.Args...)
		cmd.Env = w.descriptor.environ()
		cmd.Dir = w.descriptor.Dir

		if err := cmd.Start(); err != nil {
			w.logger.Error("watchdog: failed to start child", map[string]interface{}{
				"program": w.descriptor.Program,
				"error":   err.Error(),
			})
			if w.sleepOrShutdown(w.opts.RestartInterval) {
				return
			}
			continue
		}

		w.mu.Lock()
		w.cmd = cmd
		w.mu.Unlock()

		waitCh := make(chan error, 1)
		go func() { waitCh <- cmd.Wait() }()

		stopping := false
		select {
		case <-w.shutdown:
			w.terminate(cmd, waitCh)
			stopping = true

		case <-w.restartCh:
			w.terminate(cmd, waitCh)

		case err := <-waitCh:
			w.recordExit(err)
		}

		w.mu.Lock()
		w.cmd = nil
		w.mu.Unlock()

		if stopping {
			return
		}
		w.waitOutRestartInterval(start)
	}
}

// terminate sends SIGTERM, waits up to TerminationTimeout for the child to
// exit, and force-kills it otherwise. Kill/wait errors are logged but never
// block progress.
func (w *CommandWatchdog) terminate(cmd *exec.Cmd, waitCh chan error) {
	if cmd.Process != nil {
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			w.logger.Warn("watchdog: failed to send SIGTERM", map[string]interface{}{"error": err.Error()})
		}
	}

	select {
	case err := <-waitCh:
		w.recordExit(err)
		return
	case <-time.After(w.opts.TerminationTimeout):
	}

	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			w.logger.Warn("watchdog: failed to force-kill child", map[string]interface{}{"error": err.Error()})
		}
	}
	w.recordExit(<-waitCh)
}

func (w *CommandWatchdog) recordExit(err error) {
	code := -1
	if err == nil {
		code = 0
	} else if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else {
		w.logger.Warn("watchdog: wait error, treating as exit -1", map[string]interface{}{"error": err.Error()})
	}
	w.stats.setLastExitCode(code)
}

// waitOutRestartInterval sleeps for whatever remains of RestartInterval
// since start, the crash-loop damping behavior.
func (w *CommandWatchdog) waitOutRestartInterval(start time.Time) {
	elapsed := time.Since(start)
	if elapsed < w.opts.RestartInterval {
		w.sleepOrShutdown(w.opts.RestartInterval - elapsed)
	}
}

// sleepOrShutdown sleeps for d, returning true early if shutdown fires.
func (w *CommandWatchdog) sleepOrShutdown(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.shutdown:
		return true
	case <-timer.C:
		return false
	}
}
