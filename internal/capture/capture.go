package capture

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petems/irmimic/internal/gpio"
	"github.com/petems/irmimic/internal/ir"
)

const (
	// DefaultDebounce is how long the preamble waits for a busy receiver to re-trigger.
	DefaultDebounce = 1000 * time.Millisecond
	// DefaultEndOfTransmission is how long the line may stay idle before a capture ends.
	DefaultEndOfTransmission = 2000 * time.Millisecond
)

// ErrNothingCaptured is returned when a capture ends without a single pulse.
var ErrNothingCaptured = errors.New("nothing captured")

// EdgeMonitor watches one digital input.
type EdgeMonitor interface {
	// ReadLevel returns the current level without blocking.
	ReadLevel() (gpio.Level, error)
	// WaitForEdge blocks until edge occurs or timeout elapses and reports
	// whether the edge was seen. gpio.NoTimeout waits forever.
	WaitForEdge(edge gpio.Edge, timeout time.Duration) (bool, error)
}

// Line is an EdgeMonitor backed by an exported pin.
type Line interface {
	EdgeMonitor
	io.Closer
}

// Opener exports and configures a pin for input.
type Opener func(pin int) (Line, error)

type state int

const (
	waitingForFirstFalling state = iota
	capturing
	done
)

// Capturer turns receiver edges into a Recording.
type Capturer struct {
	Clock             ir.Clock
	Debounce          time.Duration
	EndOfTransmission time.Duration
	// FirstEdgeTimeout bounds the wait for the first falling edge.
	// gpio.NoTimeout waits until a signal arrives.
	FirstEdgeTimeout time.Duration
	Logger           zerolog.Logger
}

// New returns a Capturer with the default timeouts.
func New(log zerolog.Logger) *Capturer {
	return &Capturer{
		Clock:             ir.SystemClock,
		Debounce:          DefaultDebounce,
		EndOfTransmission: DefaultEndOfTransmission,
		FirstEdgeTimeout:  gpio.NoTimeout,
		Logger:            log,
	}
}

func (c *Capturer) clock() ir.Clock {
	if c.Clock == nil {
		return ir.SystemClock
	}
	return c.Clock
}

// Record opens pin, waits for the receiver to go idle, captures one signal and
// releases the pin again, whatever the outcome.
func (c *Capturer) Record(ctx context.Context, open Opener, pin int, id uuid.UUID) (ir.Recording, error) {
	line, err := open(pin)
	if err != nil {
		return ir.Recording{}, err
	}
	defer func() {
		if err := line.Close(); err != nil {
			c.Logger.Warn().Err(err).Int("pin", pin).Msg("Failed to release pin")
		}
	}()

	if err := c.WaitForIdle(ctx, line); err != nil {
		return ir.Recording{}, err
	}
	c.Logger.Info().Msg("Reached stable idle state, recording now")

	return c.Capture(ctx, line, id)
}

// WaitForIdle returns once the receiver output is HIGH and has not fallen
// again within the debounce window. The receiver output is inverted, so LOW
// means a signal is still coming in.
func (c *Capturer) WaitForIdle(ctx context.Context, mon EdgeMonitor) error {
	level, err := mon.ReadLevel()
	if err != nil {
		return err
	}

	for level == gpio.Low {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Logger.Debug().Msg("Receiver still low, waiting for the signal to end")

		if _, err := mon.WaitForEdge(gpio.EdgeRising, gpio.NoTimeout); err != nil {
			return err
		}
		retriggered, err := mon.WaitForEdge(gpio.EdgeFalling, c.Debounce)
		if err != nil {
			return err
		}
		c.Logger.Debug().Bool("retriggered", retriggered).Msg("Rising edge seen")

		if level, err = mon.ReadLevel(); err != nil {
			return err
		}
	}
	return nil
}

// Capture records pulses until the line stays idle for EndOfTransmission.
//
// Only waits for a falling edge (a new pulse starting) are bounded; a pulse
// in progress is always followed to its end. Cancellation is checked between
// waits and returns the pulses captured so far together with ctx.Err().
func (c *Capturer) Capture(ctx context.Context, mon EdgeMonitor, id uuid.UUID) (ir.Recording, error) {
	clock := c.clock()
	rec := ir.NewRecording(id, clock.Now())

	var (
		current  gpio.Level
		expected gpio.Edge
		last     time.Time
	)

	for st := waitingForFirstFalling; st != done; {
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		switch st {
		case waitingForFirstFalling:
			seen, err := mon.WaitForEdge(gpio.EdgeFalling, c.FirstEdgeTimeout)
			if err != nil {
				return rec, err
			}
			if !seen {
				st = done
				continue
			}
			last = clock.Now()
			rec.CapturedAt = last
			current = gpio.Low
			expected = gpio.EdgeRising
			st = capturing

		case capturing:
			timeout := gpio.NoTimeout
			if expected == gpio.EdgeFalling {
				timeout = c.EndOfTransmission
			}
			if _, err := mon.WaitForEdge(expected, timeout); err != nil {
				return rec, err
			}

			next, err := mon.ReadLevel()
			if err != nil {
				return rec, err
			}
			if next == current {
				st = done
				continue
			}

			now := clock.Now()
			// The receiver is inverted: a LOW stretch is the carrier being on.
			rec.Append(ir.Pulse{Level: current.Invert(), Duration: ir.Elapsed(last, now)})

			expected = expected.Opposite()
			current = next
			last = now
		}
	}

	if rec.Empty() {
		return rec, ErrNothingCaptured
	}
	return rec, nil
}
