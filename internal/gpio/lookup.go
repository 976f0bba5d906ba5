package gpio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	_ "periph.io/x/host/v3/chip"
)

// ErrPinNotFound is returned by Lookup for names it cannot resolve.
var ErrPinNotFound = errors.New("pin not found")

// InitDrivers loads the host drivers that register board pin names, such as
// the C.H.I.P. header (AP-EINT1, CSID0, XIO-P0..7), with gpioreg.
func InitDrivers() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init host drivers: %w", err)
	}
	return nil
}

// Lookup resolves a pin name to a kernel GPIO number. "gpioN" and bare
// numbers are taken as is; anything else must be a name or alias registered
// with gpioreg, so call InitDrivers first.
func Lookup(name string) (int, error) {
	name = strings.TrimSpace(name)

	digits := name
	if len(digits) > 4 && strings.EqualFold(digits[:4], "gpio") {
		digits = digits[4:]
	}
	if n, err := strconv.Atoi(digits); err == nil {
		if n < 0 {
			return -1, fmt.Errorf("%s: %w", name, ErrPinNotFound)
		}
		return n, nil
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return -1, fmt.Errorf("%s: %w", name, ErrPinNotFound)
	}
	if r, ok := p.(periphgpio.RealPin); ok {
		p = r.Real()
	}
	if p.Number() < 0 {
		return -1, fmt.Errorf("%s: no kernel GPIO number: %w", name, ErrPinNotFound)
	}
	return p.Number(), nil
}
