package pwm

import "fmt"

// Channel is a PWM output claimed for the duration of one transmission.
type Channel interface {
	// Start claims the channel and enables output at freqHz with the given duty cycle.
	Start(dutyPct, freqHz float64, polarity Polarity) error
	// SetDutyCycle changes the duty cycle (0-100) of a started channel.
	SetDutyCycle(pct float64) error
	// Disable stops the output.
	Disable() error
	// Release hands the channel back to the system.
	Release() error
}

// Polarity of the PWM output, using the sysfs vocabulary.
type Polarity string

const (
	Normal   Polarity = "normal"
	Inversed Polarity = "inversed"
)

// ParsePolarity accepts "normal" or "inversed". The empty string is Normal.
func ParsePolarity(s string) (Polarity, error) {
	switch Polarity(s) {
	case "", Normal:
		return Normal, nil
	case Inversed:
		return Inversed, nil
	default:
		return Normal, fmt.Errorf("unknown polarity %q", s)
	}
}

// PeripheralError reports a failed PWM operation.
type PeripheralError struct {
	Op      string
	Channel string
	Err     error
}

func (e *PeripheralError) Error() string {
	return fmt.Sprintf("pwm %s: %s: %v", e.Channel, e.Op, e.Err)
}

func (e *PeripheralError) Unwrap() error {
	return e.Err
}
