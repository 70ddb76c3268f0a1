package watchdog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/permitio/pdp-sidecar/core"
)

// ServiceWatchdogOptions tunes the health-gated restart loop.
type ServiceWatchdogOptions struct {
	// HealthCheckInterval is how often the health probe runs.
	HealthCheckInterval time.Duration
	// FailureThreshold is how many consecutive failed checks trigger a
	// restart of the Command Watchdog's child.
	FailureThreshold int
}

func DefaultServiceWatchdogOptions() ServiceWatchdogOptions {
	return ServiceWatchdogOptions{
		HealthCheckInterval: 1 * time.Second,
		FailureThreshold:    3,
	}
}

// ServiceWatchdog composes a CommandWatchdog with a HealthChecker: it keeps
// the child not merely alive but healthy, restarting it once the health
// probe has failed FailureThreshold times in a row.
type ServiceWatchdog struct {
	cmd     *CommandWatchdog
	checker HealthChecker
	opts    ServiceWatchdogOptions
	logger  core.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu              sync.Mutex
	consecutiveFail int
	lastCheckOK     bool
}

// StartServiceWatchdog starts the health-probe loop alongside cmd.
func StartServiceWatchdog(cmd *CommandWatchdog, checker HealthChecker, opts ServiceWatchdogOptions, logger core.Logger) *ServiceWatchdog {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	sw := &ServiceWatchdog{
		cmd:     cmd,
		checker: checker,
		opts:    opts,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go sw.loop()
	return sw
}

func (sw *ServiceWatchdog) Stats() *Stats { return sw.cmd.Stats() }

func (sw *ServiceWatchdog) Close() {
	sw.once.Do(func() { close(sw.stop) })
	<-sw.done
	sw.cmd.Close()
}

func (sw *ServiceWatchdog) loop() {
	defer close(sw.done)

	ticker := time.NewTicker(sw.opts.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sw.stop:
			return
		case <-ticker.C:
			sw.runCheck()
		}
	}
}

func (sw *ServiceWatchdog) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), sw.opts.HealthCheckInterval)
	defer cancel()

	sw.cmd.Stats().incrementHealthChecks()
	err := sw.checker.Check(ctx)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if err == nil {
		sw.consecutiveFail = 0
		sw.lastCheckOK = true
		return
	}

	sw.lastCheckOK = false
	sw.cmd.Stats().incrementFailedHealthChecks()
	sw.consecutiveFail++

	sw.logger.Warn("service watchdog: health check failed", map[string]interface{}{
		"consecutive_failures": sw.consecutiveFail,
		"error":                err.Error(),
	})

	if sw.consecutiveFail >= sw.opts.FailureThreshold {
		sw.logger.Error("service watchdog: restarting child after consecutive health failures", map[string]interface{}{
			"threshold": sw.opts.FailureThreshold,
		})
		if restartErr := sw.cmd.Restart(); restartErr != nil {
			sw.logger.Warn("service watchdog: restart request failed", map[string]interface{}{"error": restartErr.Error()})
		}
		sw.consecutiveFail = 0
	}
}

// WaitUntilHealthy polls the health probe until one success or timeout
// elapses, returning an error on timeout.
func (sw *ServiceWatchdog) WaitUntilHealthy(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	const pollInterval = 100 * time.Millisecond

	for {
		checkCtx, cancel := context.WithTimeout(ctx, sw.opts.HealthCheckInterval)
		err := sw.checker.Check(checkCtx)
		cancel()
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("watchdog: timed out waiting for healthy state: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
