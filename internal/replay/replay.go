package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/irmimic/internal/gpio"
	"github.com/petems/irmimic/internal/ir"
	"github.com/petems/irmimic/internal/pwm"
)

const (
	// DefaultCarrierHz is the IR carrier frequency.
	DefaultCarrierHz = 38600
	// DefaultDutyCyclePct is the carrier duty cycle while a pulse is on.
	DefaultDutyCyclePct = 50
)

// Replayer transmits recordings on a PWM channel.
type Replayer struct {
	Channel      pwm.Channel
	CarrierHz    float64
	DutyCyclePct float64
	Polarity     pwm.Polarity
	Clock        ir.Clock
	// Sleep may return early; Replay sleeps again for whatever is left.
	Sleep  func(time.Duration)
	Logger zerolog.Logger
}

// New returns a Replayer using the default carrier.
func New(ch pwm.Channel, log zerolog.Logger) *Replayer {
	return &Replayer{
		Channel:      ch,
		CarrierHz:    DefaultCarrierHz,
		DutyCyclePct: DefaultDutyCyclePct,
		Polarity:     pwm.Normal,
		Clock:        ir.SystemClock,
		Sleep:        time.Sleep,
		Logger:       log,
	}
}

// Replay transmits rec. The carrier is switched on for High pulses and off
// for Low ones, each pulse ending at its offset from the start of the
// transmission so that per-pulse overhead does not accumulate.
//
// If the channel fails, Replay stops and still disables and releases it.
func (r *Replayer) Replay(rec ir.Recording) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("replay %s: %w", rec.ID, err)
	}

	clock := r.Clock
	if clock == nil {
		clock = ir.SystemClock
	}

	if err := r.Channel.Start(0, r.CarrierHz, r.Polarity); err != nil {
		return errors.Join(err, r.shutdown())
	}

	deadline := clock.Now()
	for _, p := range rec.Pulses {
		duty := 0.0
		if p.Level == gpio.High {
			duty = r.DutyCyclePct
		}
		r.Logger.Debug().Msgf("Setting %s", p)

		if err := r.Channel.SetDutyCycle(duty); err != nil {
			return errors.Join(err, r.shutdown())
		}

		deadline = deadline.Add(p.Duration)
		r.sleepUntil(clock, deadline)
	}

	return r.shutdown()
}

func (r *Replayer) sleepUntil(clock ir.Clock, deadline time.Time) {
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for {
		remaining := ir.Elapsed(clock.Now(), deadline)
		if remaining <= 0 {
			return
		}
		sleep(remaining)
	}
}

func (r *Replayer) shutdown() error {
	return errors.Join(r.Channel.Disable(), r.Channel.Release())
}
