package watchdog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitio/pdp-sidecar/internal/watchdog"
)

// mirrors the original's test_watchdog_crash_immediately: a child that
// always exits with code 12, restart_interval=10ms, ~55ms elapsed ->
// start_counter==5, last_exit_code==12 (spec §8 scenario 5).
func TestCommandWatchdog_RestartAfterCrash(t *testing.T) {
	descriptor, err := watchdog.NewDescriptor("sh", "-c", "exit 12").Build()
	require.NoError(t, err)

	opts := watchdog.CommandWatchdogOptions{
		RestartInterval:    10 * time.Millisecond,
		TerminationTimeout: 500 * time.Millisecond,
	}

	w := watchdog.StartCommandWatchdog(descriptor, opts, nil)
	defer w.Close()

	time.Sleep(55 * time.Millisecond)

	assert.EqualValues(t, 5, w.StartCounter())
	assert.Equal(t, 12, w.LastExitCode())
}

// mirrors test_watchdog_fail_to_start: a nonexistent command still
// increments start_counter on a fixed cadence without progressing further.
func TestCommandWatchdog_FailToStart(t *testing.T) {
	descriptor := &watchdog.Descriptor{
		Program: "/nonexistent/doesnotexist",
		Args:    []string{"x"},
	}

	opts := watchdog.CommandWatchdogOptions{
		RestartInterval:    10 * time.Millisecond,
		TerminationTimeout: 500 * time.Millisecond,
	}

	w := watchdog.StartCommandWatchdog(descriptor, opts, nil)
	defer w.Close()

	time.Sleep(55 * time.Millisecond)

	assert.GreaterOrEqual(t, w.StartCounter(), uint64(4))
}

func TestCommandWatchdog_Restart_FailsAfterShutdown(t *testing.T) {
	descriptor, err := watchdog.NewDescriptor("sh", "-c", "sleep 5").Build()
	require.NoError(t, err)

	w := watchdog.StartCommandWatchdog(descriptor, watchdog.DefaultCommandWatchdogOptions(), nil)
	w.Close()

	err = w.Restart()
	assert.Error(t, err)
}

// mirrors test_watchdog_explicit_restart: explicit Restart() spawns a new
// child with a different PID and bumps start_counter.
func TestCommandWatchdog_ExplicitRestart(t *testing.T) {
	descriptor, err := watchdog.NewDescriptor("sh", "-c", "sleep 5").Build()
	require.NoError(t, err)

	opts := watchdog.CommandWatchdogOptions{
		RestartInterval:    100 * time.Millisecond,
		TerminationTimeout: 500 * time.Millisecond,
	}

	w := watchdog.StartCommandWatchdog(descriptor, opts, nil)
	defer w.Close()

	time.Sleep(20 * time.Millisecond)
	initialPID := w.PID()
	require.NotZero(t, initialPID)

	require.NoError(t, w.Restart())
	// the respawn waits out the rest of the 100ms RestartInterval
	time.Sleep(150 * time.Millisecond)

	assert.NotEqual(t, initialPID, w.PID())
	assert.EqualValues(t, 2, w.StartCounter())
	// the SIGTERM-killed child has no exit code, recorded as -1
	assert.Equal(t, -1, w.LastExitCode())
}

// mirrors test_watchdog_termination_timeout: a child that ignores SIGTERM
// is forcibly killed after TerminationTimeout during Restart.
func TestCommandWatchdog_TerminationTimeoutForcesKill(t *testing.T) {
	descriptor, err := watchdog.NewDescriptor("sh", "-c", "trap '' TERM; sleep 5").Build()
	require.NoError(t, err)

	opts := watchdog.CommandWatchdogOptions{
		RestartInterval:    100 * time.Millisecond,
		TerminationTimeout: 200 * time.Millisecond,
	}

	w := watchdog.StartCommandWatchdog(descriptor, opts, nil)
	defer w.Close()

	time.Sleep(20 * time.Millisecond)
	initialPID := w.PID()
	require.NotZero(t, initialPID)

	start := time.Now()
	require.NoError(t, w.Restart())

	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) {
		if w.PID() != 0 && w.PID() != initialPID {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	assert.Less(t, time.Since(start), 600*time.Millisecond)
	assert.NotEqual(t, initialPID, w.PID())
}

func TestCommandWatchdog_ForcedKillRecordsNegativeOneExitCode(t *testing.T) {
	descriptor, err := watchdog.NewDescriptor("sh", "-c", "trap '' TERM; sleep 5").Build()
	require.NoError(t, err)

	opts := watchdog.CommandWatchdogOptions{
		RestartInterval:    100 * time.Millisecond,
		TerminationTimeout: 200 * time.Millisecond,
	}

	w := watchdog.StartCommandWatchdog(descriptor, opts, nil)
	defer w.Close()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Restart())

	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) {
		if w.LastExitCode() == -1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, -1, w.LastExitCode())
}
