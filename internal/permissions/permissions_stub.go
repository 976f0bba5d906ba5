//go:build !linux

package permissions

import "errors"

// EnsurePermissions fails on platforms without the Linux GPIO sysfs interface.
func EnsurePermissions(gpioRoot, pwmRoot string) error {
	return errors.New("GPIO and PWM sysfs access requires Linux")
}
