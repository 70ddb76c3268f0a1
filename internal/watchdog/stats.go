package watchdog

import "sync/atomic"

// Stats holds the four atomic counters exposed by a watchdog: how many
// times the child has been (re)started, its most recent exit code, and
// the running health-check tally. Reads use relaxed loads; the counter
// increments that matter for ordering (start_counter) use a
// sequentially-consistent fetch-add, mirroring the Rust original's split
// between CommandWatchdogStats and ServiceWatchdogStats — kept here as one
// struct per spec §3.
type Stats struct {
	startCounter       uint64
	lastExitCode       int64
	healthChecks       uint64
	failedHealthChecks uint64
}

func (s *Stats) StartCounter() uint64 {
	return atomic.LoadUint64(&s.startCounter)
}

func (s *Stats) LastExitCode() int {
	return int(atomic.LoadInt64(&s.lastExitCode))
}

func (s *Stats) HealthChecks() uint64 {
	return atomic.LoadUint64(&s.healthChecks)
}

func (s *Stats) FailedHealthChecks() uint64 {
	return atomic.LoadUint64(&s.failedHealthChecks)
}

// incrementStartCounter returns the previous value, matching the Rust
// original's fetch_add semantics (the supervise loop does not use it).
func (s *Stats) incrementStartCounter() uint64 {
	return atomic.AddUint64(&s.startCounter, 1) - 1
}

func (s *Stats) setLastExitCode(code int) {
	atomic.StoreInt64(&s.lastExitCode, int64(code))
}

func (s *Stats) incrementHealthChecks() {
	atomic.AddUint64(&s.healthChecks, 1)
}

func (s *Stats) incrementFailedHealthChecks() {
	atomic.AddUint64(&s.failedHealthChecks, 1)
}
