package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/irmimic/internal/app"
	"github.com/petems/irmimic/internal/capture"
	"github.com/petems/irmimic/internal/config"
	"github.com/petems/irmimic/internal/gpio"
	"github.com/petems/irmimic/internal/logging"
	"github.com/petems/irmimic/internal/permissions"
	"github.com/petems/irmimic/internal/pwm"
	"github.com/petems/irmimic/internal/replay"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from $IRMIMIC_CONFIG or XDG
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// Both sysfs trees must be writable before anything is exported
	if err := permissions.EnsurePermissions(cfg.GPIO.SysfsRoot, cfg.PWM.SysfsRoot); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	// Board drivers register header names such as AP-EINT1 and XIO-P0
	if err := gpio.InitDrivers(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize GPIO drivers")
	}

	pins := gpio.NewSysfs(cfg.GPIO.SysfsRoot)
	pin, err := gpio.Lookup(cfg.GPIO.Pin)
	if err != nil {
		log.Fatal().Err(err).Str("pin", cfg.GPIO.Pin).Msg("Failed to resolve receiver pin")
	}

	// A previous run killed mid-capture leaves the pin exported
	if err := pins.Unexport(pin); err != nil {
		log.Warn().Err(err).Int("pin", pin).Msg("Failed to release stale pin")
	}

	channel, err := pwm.NewSysfs(cfg.PWM.SysfsRoot).Channel(cfg.PWM.Channel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve transmitter channel")
	}
	polarity, err := pwm.ParsePolarity(cfg.PWM.Polarity)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PWM polarity")
	}

	capturer := capture.New(log)
	capturer.Debounce = cfg.Capture.Debounce()
	capturer.EndOfTransmission = cfg.Capture.EndOfTransmission()
	capturer.FirstEdgeTimeout = cfg.Capture.FirstEdgeTimeout()

	replayer := replay.New(channel, log)
	replayer.CarrierHz = cfg.PWM.CarrierHz
	replayer.DutyCyclePct = cfg.PWM.DutyCyclePct
	replayer.Polarity = polarity

	application := app.New(app.Config{
		Pin: pin,
		Open: func(n int) (capture.Line, error) {
			p, err := pins.Open(n)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Recorder:    capturer,
		Transmitter: replayer,
		Logger:      log,
	})

	log.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("pin", cfg.GPIO.Pin).
		Str("channel", cfg.PWM.Channel).
		Msg("irmimic starting...")

	// Setup shutdown signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application.Run(ctx)
	log.Info().Msg("Shutting down...")
}
