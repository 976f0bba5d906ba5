package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/petems/irmimic/internal/gpio"
	"github.com/petems/irmimic/internal/pwm"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "config.schema.json"

// EnvPath overrides the config file location.
const EnvPath = "IRMIMIC_CONFIG"

type Config struct {
	LogLevel string        `json:"log_level"`
	GPIO     GPIOConfig    `json:"gpio"`
	Capture  CaptureConfig `json:"capture"`
	PWM      PWMConfig     `json:"pwm"`
}

type GPIOConfig struct {
	Pin       string `json:"pin"` // header name, "gpioN" or a number
	SysfsRoot string `json:"sysfs_root"`
}

type CaptureConfig struct {
	DebounceTimeoutMs          int `json:"debounce_timeout_ms"`
	EndOfTransmissionTimeoutMs int `json:"end_of_transmission_timeout_ms"`
	FirstEdgeTimeoutMs         int `json:"first_edge_timeout_ms"` // -1 waits forever
}

type PWMConfig struct {
	Channel      string  `json:"channel"`
	SysfsRoot    string  `json:"sysfs_root"`
	CarrierHz    float64 `json:"carrier_hz"`
	DutyCyclePct float64 `json:"duty_cycle_pct"`
	Polarity     string  `json:"polarity"` // "normal" or "inversed"
}

func (c CaptureConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceTimeoutMs) * time.Millisecond
}

func (c CaptureConfig) EndOfTransmission() time.Duration {
	return time.Duration(c.EndOfTransmissionTimeoutMs) * time.Millisecond
}

func (c CaptureConfig) FirstEdgeTimeout() time.Duration {
	if c.FirstEdgeTimeoutMs < 0 {
		return gpio.NoTimeout
	}
	return time.Duration(c.FirstEdgeTimeoutMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		GPIO: GPIOConfig{
			Pin:       "AP-EINT1",
			SysfsRoot: gpio.DefaultSysfsRoot,
		},
		Capture: CaptureConfig{
			DebounceTimeoutMs:          1000,
			EndOfTransmissionTimeoutMs: 2000,
			FirstEdgeTimeoutMs:         -1,
		},
		PWM: PWMConfig{
			Channel:      "PWM0",
			SysfsRoot:    pwm.DefaultSysfsRoot,
			CarrierHz:    38600,
			DutyCyclePct: 50,
			Polarity:     string(pwm.Normal),
		},
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path on top of the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := validate(data); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	return c.SaveFile(Path())
}

func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func validate(data []byte) error {
	schema, err := jsonschema.CompileString(schemaURL, schemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// Path returns the config file location: $IRMIMIC_CONFIG, else
// $XDG_CONFIG_HOME/irmimic/config.json.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}

	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}

	return filepath.Join(base, "irmimic", "config.json")
}
