//go:build linux

package permissions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestEnsurePermissions(t *testing.T) {
	gpioRoot := t.TempDir()
	pwmRoot := t.TempDir()
	touch(t, filepath.Join(gpioRoot, "export"))
	touch(t, filepath.Join(pwmRoot, "pwmchip0", "export"))

	if err := EnsurePermissions(gpioRoot, pwmRoot); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
}

func TestEnsurePermissionsMissingGPIO(t *testing.T) {
	pwmRoot := t.TempDir()
	touch(t, filepath.Join(pwmRoot, "pwmchip0", "export"))

	err := EnsurePermissions(t.TempDir(), pwmRoot)
	if !errors.Is(err, unix.ENOENT) {
		t.Fatalf("expected ENOENT, got %v", err)
	}
}

func TestEnsurePermissionsNoPWMChip(t *testing.T) {
	gpioRoot := t.TempDir()
	touch(t, filepath.Join(gpioRoot, "export"))

	if err := EnsurePermissions(gpioRoot, t.TempDir()); err == nil {
		t.Fatal("expected an error without a pwmchip")
	}
}
