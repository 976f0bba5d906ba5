package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petems/irmimic/internal/gpio"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.GPIO.Pin != "AP-EINT1" || cfg.PWM.Channel != "PWM0" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Capture.Debounce() != 1000*time.Millisecond {
		t.Errorf("expected 1000ms debounce, got %v", cfg.Capture.Debounce())
	}
	if cfg.Capture.EndOfTransmission() != 2000*time.Millisecond {
		t.Errorf("expected 2000ms end of transmission, got %v", cfg.Capture.EndOfTransmission())
	}
	if cfg.Capture.FirstEdgeTimeout() != gpio.NoTimeout {
		t.Errorf("expected unbounded first edge wait, got %v", cfg.Capture.FirstEdgeTimeout())
	}
	if cfg.PWM.CarrierHz != 38600 || cfg.PWM.DutyCyclePct != 50 {
		t.Errorf("unexpected carrier defaults: %+v", cfg.PWM)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"log_level": "debug",
		"gpio": {"pin": "CSID0"},
		"capture": {"end_of_transmission_timeout_ms": 150, "first_edge_timeout_ms": 5000},
		"pwm": {"carrier_hz": 36000, "polarity": "inversed"}
	}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.GPIO.Pin != "CSID0" {
		t.Errorf("top level fields not applied: %+v", cfg)
	}
	if cfg.Capture.EndOfTransmission() != 150*time.Millisecond {
		t.Errorf("expected 150ms, got %v", cfg.Capture.EndOfTransmission())
	}
	if cfg.Capture.FirstEdgeTimeout() != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Capture.FirstEdgeTimeout())
	}
	// Untouched fields keep their defaults.
	if cfg.Capture.DebounceTimeoutMs != 1000 || cfg.PWM.Channel != "PWM0" || cfg.PWM.DutyCyclePct != 50 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.PWM.CarrierHz != 36000 || cfg.PWM.Polarity != "inversed" {
		t.Errorf("pwm fields not applied: %+v", cfg.PWM)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `{"gpio": {"pins": "AP-EINT1"}}`},
		{"zero idle timeout", `{"capture": {"end_of_transmission_timeout_ms": 0}}`},
		{"zero debounce", `{"capture": {"debounce_timeout_ms": 0}}`},
		{"zero first edge timeout", `{"capture": {"first_edge_timeout_ms": 0}}`},
		{"first edge timeout below -1", `{"capture": {"first_edge_timeout_ms": -2}}`},
		{"fractional timeout", `{"capture": {"debounce_timeout_ms": 1.5}}`},
		{"duty over 100", `{"pwm": {"duty_cycle_pct": 120}}`},
		{"zero carrier", `{"pwm": {"carrier_hz": 0}}`},
		{"bad polarity", `{"pwm": {"polarity": "inverted"}}`},
		{"bad log level", `{"log_level": "verbose"}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadAcceptsUnboundedFirstEdge(t *testing.T) {
	for _, content := range []string{
		`{"capture": {"first_edge_timeout_ms": -1}}`,
		`{"capture": {"first_edge_timeout_ms": 1, "debounce_timeout_ms": 1}}`,
	} {
		if _, err := LoadFile(writeConfig(t, content)); err != nil {
			t.Errorf("%s: unexpected error: %v", content, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.GPIO.Pin = "XIO-P3"

	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("saved config does not load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestPathHonoursEnv(t *testing.T) {
	t.Setenv(EnvPath, "/etc/irmimic.json")
	if got := Path(); got != "/etc/irmimic.json" {
		t.Errorf("expected env override, got %s", got)
	}

	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := Path(); got != filepath.Join("/xdg", "irmimic", "config.json") {
		t.Errorf("unexpected path %s", got)
	}
}
