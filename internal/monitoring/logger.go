// Package monitoring holds the process-wide diagnostic logger and a small
// stopwatch used to report run durations.
package monitoring

import (
	"log"
	"time"

	"github.com/exotransit/chordgrid/internal/timeutil"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Stopwatch measures the wall time of a labelled stage.
type Stopwatch struct {
	label string
	clock timeutil.Clock
	start time.Time
}

// StartStopwatch starts timing label using clock. A nil clock uses the real clock.
func StartStopwatch(label string, clock timeutil.Clock) *Stopwatch {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Stopwatch{label: label, clock: clock, start: clock.Now()}
}

// Elapsed returns the time since the stopwatch started.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.clock.Since(s.start)
}

// Stop logs the elapsed time and returns it.
func (s *Stopwatch) Stop() time.Duration {
	d := s.Elapsed()
	Logf("%s finished in %s", s.label, d)
	return d
}
