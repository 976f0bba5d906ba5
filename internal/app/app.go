package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petems/irmimic/internal/capture"
	"github.com/petems/irmimic/internal/ir"
)

// Recorder captures one signal from a pin.
type Recorder interface {
	Record(ctx context.Context, open capture.Opener, pin int, id uuid.UUID) (ir.Recording, error)
}

// Transmitter replays a recording.
type Transmitter interface {
	Replay(rec ir.Recording) error
}

// Config holds the collaborators of an App.
type Config struct {
	Pin         int
	Open        capture.Opener
	Recorder    Recorder
	Transmitter Transmitter
	Logger      zerolog.Logger
}

// App repeats record then replay on a single goroutine until cancelled.
type App struct {
	pin  int
	open capture.Opener
	rec  Recorder
	tx   Transmitter
	log  zerolog.Logger
}

// New returns an App wired from cfg.
func New(cfg Config) *App {
	return &App{
		pin:  cfg.Pin,
		open: cfg.Open,
		rec:  cfg.Recorder,
		tx:   cfg.Transmitter,
		log:  cfg.Logger,
	}
}

// Run loops until ctx is cancelled. Cancellation is noticed between
// hardware waits, never during one.
func (a *App) Run(ctx context.Context) {
	a.log.Info().Int("pin", a.pin).Msg("Waiting for IR signals")

	for ctx.Err() == nil {
		a.cycle(ctx)
	}

	a.log.Info().Msg("Stopped")
}

// cycle records one signal and, if anything came in, replays it.
func (a *App) cycle(ctx context.Context) {
	id := uuid.New()
	log := a.log.With().Str("cycle", id.String()).Logger()

	rec, err := a.rec.Record(ctx, a.open, a.pin, id)
	switch {
	case ctx.Err() != nil:
		log.Info().Int("pulses", rec.Len()).Msg("Cancelled, discarding recording")
		return
	case errors.Is(err, capture.ErrNothingCaptured):
		log.Info().Msg("Nothing recorded")
		return
	case err != nil:
		log.Error().Err(err).Msg("Nothing recorded")
		return
	}

	log.Info().Int("pulses", rec.Len()).Dur("length", rec.Total()).Msg("Signal recorded, replaying")
	if err := a.tx.Replay(rec); err != nil {
		log.Error().Err(err).Msg("Replay failed")
		return
	}

	log.Info().Msg("Signal replayed")
}
