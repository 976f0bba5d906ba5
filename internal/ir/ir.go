// Package ir holds learned infrared waveforms.
//
// Levels in this package are logical carrier states: High means the remote
// was transmitting (carrier on), Low means it was silent. Demodulating
// receivers idle HIGH and pull their output LOW while a carrier is present,
// so a pulse's electrical level is the inverse of its logical level.
package ir

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petems/irmimic/internal/gpio"
)

var (
	// ErrEmptyRecording is returned when validating a recording without pulses.
	ErrEmptyRecording = errors.New("recording has no pulses")
	// ErrNotAlternating means two consecutive pulses share a level.
	ErrNotAlternating = errors.New("pulse levels do not alternate")
	// ErrNegativeDuration means a pulse has a negative duration.
	ErrNegativeDuration = errors.New("pulse duration is negative")
)

// Clock is the monotonic time source used to time pulses.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads time.Now, which carries a monotonic reading.
var SystemClock Clock = systemClock{}

// Elapsed returns later - earlier using the monotonic clock readings of both
// times, clamped to zero. All timestamp differences go through here.
func Elapsed(earlier, later time.Time) time.Duration {
	d := later.Sub(earlier)
	if d < 0 {
		return 0
	}
	return d
}

// Pulse is one interval of constant carrier state.
type Pulse struct {
	Level    gpio.Level
	Duration time.Duration
}

// Electrical returns the receiver output level observed during the pulse.
func (p Pulse) Electrical() gpio.Level {
	return p.Level.Invert()
}

func (p Pulse) String() string {
	return fmt.Sprintf("%s for %d.%09d", p.Level, p.Duration/time.Second, p.Duration%time.Second)
}

// Recording is a learned signal: pulses in the order they occurred.
type Recording struct {
	ID         uuid.UUID
	CapturedAt time.Time
	Pulses     []Pulse
}

// NewRecording starts an empty recording stamped with id and now.
func NewRecording(id uuid.UUID, now time.Time) Recording {
	return Recording{ID: id, CapturedAt: now}
}

// Append adds a pulse at the end of the recording.
func (r *Recording) Append(p Pulse) {
	r.Pulses = append(r.Pulses, p)
}

// Len returns the number of pulses.
func (r Recording) Len() int {
	return len(r.Pulses)
}

// Empty reports whether the recording has no pulses.
func (r Recording) Empty() bool {
	return len(r.Pulses) == 0
}

// Total is the sum of all pulse durations, i.e. how long a replay takes.
func (r Recording) Total() time.Duration {
	var total time.Duration
	for _, p := range r.Pulses {
		total += p.Duration
	}
	return total
}

// Validate checks that the recording is non-empty, that levels alternate and
// that no duration is negative.
func (r Recording) Validate() error {
	if r.Empty() {
		return ErrEmptyRecording
	}
	for i, p := range r.Pulses {
		if p.Duration < 0 {
			return fmt.Errorf("pulse %d: %w", i, ErrNegativeDuration)
		}
		if i > 0 && r.Pulses[i-1].Level == p.Level {
			return fmt.Errorf("pulses %d and %d: %w", i-1, i, ErrNotAlternating)
		}
	}
	return nil
}
