package pwm

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultSysfsRoot is where the kernel exposes PWM chips.
const DefaultSysfsRoot = "/sys/class/pwm"

const exportWait = time.Second

var (
	errBadFrequency = errors.New("frequency must be positive")
	errBadDuty      = errors.New("duty cycle must be between 0 and 100")
	errNotStarted   = errors.New("channel not started")
	errNotExported  = errors.New("channel directory did not appear after export")
)

// Sysfs resolves PWM channels below a /sys/class/pwm style tree.
type Sysfs struct {
	Root string
}

// NewSysfs returns a Sysfs rooted at root, or DefaultSysfsRoot if root is empty.
func NewSysfs(root string) *Sysfs {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &Sysfs{Root: root}
}

// Channel resolves a channel name. "PWMn" is channel n of pwmchip0 and
// "chip:channel" names both explicitly.
func (s *Sysfs) Channel(name string) (*SysfsChannel, error) {
	chip, ch := 0, -1
	upper := strings.ToUpper(strings.TrimSpace(name))

	if rest, ok := strings.CutPrefix(upper, "PWM"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil {
			ch = n
		}
	} else if c, n, ok := strings.Cut(upper, ":"); ok {
		cn, err1 := strconv.Atoi(c)
		nn, err2 := strconv.Atoi(n)
		if err1 == nil && err2 == nil {
			chip, ch = cn, nn
		}
	}

	if chip < 0 || ch < 0 {
		return nil, fmt.Errorf("unknown pwm channel %q", name)
	}

	return &SysfsChannel{
		name:    name,
		chipDir: filepath.Join(s.Root, "pwmchip"+strconv.Itoa(chip)),
		channel: ch,
	}, nil
}

// SysfsChannel is one PWM output. It is not safe for concurrent use.
type SysfsChannel struct {
	name     string
	chipDir  string
	channel  int
	periodNs int64
}

func (c *SysfsChannel) dir() string {
	return filepath.Join(c.chipDir, "pwm"+strconv.Itoa(c.channel))
}

func (c *SysfsChannel) write(attr string, value string) error {
	return os.WriteFile(filepath.Join(c.dir(), attr), []byte(value), 0644)
}

func (c *SysfsChannel) fail(op string, err error) error {
	return &PeripheralError{Op: op, Channel: c.name, Err: err}
}

func (c *SysfsChannel) export() error {
	if _, err := os.Stat(c.dir()); err == nil {
		return nil
	}
	if err := os.WriteFile(filepath.Join(c.chipDir, "export"), []byte(strconv.Itoa(c.channel)), 0644); err != nil {
		return err
	}

	deadline := time.Now().Add(exportWait)
	for {
		if _, err := os.Stat(c.dir()); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errNotExported
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Start exports the channel, programs period, polarity and duty cycle, and
// enables the output.
func (c *SysfsChannel) Start(dutyPct, freqHz float64, polarity Polarity) error {
	if freqHz <= 0 || math.IsNaN(freqHz) || math.IsInf(freqHz, 0) {
		return c.fail("start", errBadFrequency)
	}
	if err := checkDuty(dutyPct); err != nil {
		return c.fail("start", err)
	}
	if err := c.export(); err != nil {
		return c.fail("export", err)
	}

	// Polarity can only change while disabled, and the kernel rejects a duty
	// cycle longer than the period, so zero the duty cycle before the period.
	period := int64(math.Round(float64(time.Second) / freqHz))
	steps := []struct {
		attr, value string
	}{
		{"enable", "0"},
		{"duty_cycle", "0"},
		{"period", strconv.FormatInt(period, 10)},
		{"polarity", string(polarity)},
		{"duty_cycle", strconv.FormatInt(dutyNs(period, dutyPct), 10)},
		{"enable", "1"},
	}
	for _, s := range steps {
		if err := c.write(s.attr, s.value); err != nil {
			return c.fail("set "+s.attr, err)
		}
	}

	c.periodNs = period
	return nil
}

// SetDutyCycle changes the duty cycle of a started channel.
func (c *SysfsChannel) SetDutyCycle(pct float64) error {
	if c.periodNs == 0 {
		return c.fail("set duty_cycle", errNotStarted)
	}
	if err := checkDuty(pct); err != nil {
		return c.fail("set duty_cycle", err)
	}
	if err := c.write("duty_cycle", strconv.FormatInt(dutyNs(c.periodNs, pct), 10)); err != nil {
		return c.fail("set duty_cycle", err)
	}
	return nil
}

// Disable turns the output off.
func (c *SysfsChannel) Disable() error {
	if _, err := os.Stat(c.dir()); os.IsNotExist(err) {
		return nil
	}
	if err := c.write("enable", "0"); err != nil {
		return c.fail("disable", err)
	}
	return nil
}

// Release unexports the channel.
func (c *SysfsChannel) Release() error {
	c.periodNs = 0
	if _, err := os.Stat(c.dir()); os.IsNotExist(err) {
		return nil
	}
	if err := os.WriteFile(filepath.Join(c.chipDir, "unexport"), []byte(strconv.Itoa(c.channel)), 0644); err != nil {
		return c.fail("release", err)
	}
	return nil
}

func checkDuty(pct float64) error {
	if pct < 0 || pct > 100 || math.IsNaN(pct) {
		return errBadDuty
	}
	return nil
}

func dutyNs(periodNs int64, pct float64) int64 {
	return int64(math.Round(float64(periodNs) * pct / 100))
}
