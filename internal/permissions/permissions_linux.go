//go:build linux

package permissions

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// EnsurePermissions checks that the export files of the GPIO and PWM sysfs
// trees are writable, so pins and channels can be claimed at run time.
func EnsurePermissions(gpioRoot, pwmRoot string) error {
	if err := writable(filepath.Join(gpioRoot, "export")); err != nil {
		return fmt.Errorf("gpio access: %w", err)
	}

	chips, err := filepath.Glob(filepath.Join(pwmRoot, "pwmchip*", "export"))
	if err != nil {
		return err
	}
	if len(chips) == 0 {
		return fmt.Errorf("pwm access: no pwmchip under %s", pwmRoot)
	}
	for _, export := range chips {
		if err := writable(export); err != nil {
			return fmt.Errorf("pwm access: %w", err)
		}
	}
	return nil
}

func writable(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
