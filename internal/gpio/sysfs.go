package gpio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultSysfsRoot is where the kernel exposes the legacy GPIO interface.
const DefaultSysfsRoot = "/sys/class/gpio"

// defaultExportWait covers udev fixing permissions on a freshly exported pin.
const defaultExportWait = time.Second

var errNotExported = errors.New("pin directory did not appear after export")

// Sysfs drives pins through /sys/class/gpio.
type Sysfs struct {
	Root       string
	ExportWait time.Duration
}

// NewSysfs returns a Sysfs rooted at root, or DefaultSysfsRoot if root is empty.
func NewSysfs(root string) *Sysfs {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &Sysfs{Root: root, ExportWait: defaultExportWait}
}

func (s *Sysfs) pinDir(pin int) string {
	return filepath.Join(s.Root, "gpio"+strconv.Itoa(pin))
}

// Export makes the pin available in sysfs. Already exported pins are left alone.
func (s *Sysfs) Export(pin int) error {
	dir := s.pinDir(pin)
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := writeAttr(filepath.Join(s.Root, "export"), strconv.Itoa(pin)); err != nil {
		return &SetupError{Op: "export", Pin: pin, Err: err}
	}

	deadline := time.Now().Add(s.ExportWait)
	for {
		if _, err := os.Stat(dir); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return &SetupError{Op: "export", Pin: pin, Err: errNotExported}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Unexport releases the pin. Pins that are not exported are ignored.
func (s *Sysfs) Unexport(pin int) error {
	if _, err := os.Stat(s.pinDir(pin)); os.IsNotExist(err) {
		return nil
	}
	if err := writeAttr(filepath.Join(s.Root, "unexport"), strconv.Itoa(pin)); err != nil {
		return &SetupError{Op: "unexport", Pin: pin, Err: err}
	}
	return nil
}

// SetDirection configures an exported pin as input or output.
func (s *Sysfs) SetDirection(pin int, dir Direction) error {
	if err := writeAttr(filepath.Join(s.pinDir(pin), "direction"), string(dir)); err != nil {
		return &SetupError{Op: "set direction", Pin: pin, Err: err}
	}
	return nil
}

// Open exports pin, configures it as an input and returns a session for
// reading it. Close the pin to unexport it again.
func (s *Sysfs) Open(pin int) (*Pin, error) {
	if err := s.Export(pin); err != nil {
		return nil, err
	}
	if err := s.SetDirection(pin, In); err != nil {
		s.Unexport(pin)
		return nil, err
	}

	value, err := os.Open(filepath.Join(s.pinDir(pin), "value"))
	if err != nil {
		s.Unexport(pin)
		return nil, &SetupError{Op: "open value", Pin: pin, Err: err}
	}

	return &Pin{sys: s, num: pin, value: value}, nil
}

// Pin is an exported input pin. It is not safe for concurrent use.
type Pin struct {
	sys   *Sysfs
	num   int
	value *os.File
	edge  Edge
}

// Number returns the kernel GPIO number.
func (p *Pin) Number() int {
	return p.num
}

// ReadLevel reads the current level without blocking.
func (p *Pin) ReadLevel() (Level, error) {
	var buf [1]byte
	if _, err := p.value.Seek(0, io.SeekStart); err != nil {
		return Low, fmt.Errorf("gpio%d: seek value: %w", p.num, err)
	}
	if _, err := io.ReadFull(p.value, buf[:]); err != nil {
		return Low, fmt.Errorf("gpio%d: read value: %w", p.num, err)
	}

	switch buf[0] {
	case '0':
		return Low, nil
	case '1':
		return High, nil
	default:
		return Low, fmt.Errorf("gpio%d: unexpected value %q", p.num, buf[0])
	}
}

// SetEdge selects which transitions raise an interrupt on the value file.
func (p *Pin) SetEdge(edge Edge) error {
	if p.edge == edge {
		return nil
	}
	if err := writeAttr(filepath.Join(p.sys.pinDir(p.num), "edge"), edge.String()); err != nil {
		return &SetupError{Op: "set edge " + edge.String(), Pin: p.num, Err: err}
	}
	p.edge = edge
	return nil
}

// WaitForEdge blocks until edge occurs or timeout elapses. A negative timeout
// waits forever. It reports whether an edge was seen. A rising or falling
// wait on a line already at the level that edge leads to returns true at
// once, since the edge happened before the interrupt was armed.
func (p *Pin) WaitForEdge(edge Edge, timeout time.Duration) (bool, error) {
	if err := p.SetEdge(edge); err != nil {
		return false, err
	}

	// Reading the value acknowledges any interrupt latched before this call.
	level, err := p.ReadLevel()
	if err != nil {
		return false, err
	}
	if target, ok := edge.Target(); ok && level == target {
		return true, nil
	}

	fds := []unix.PollFd{{Fd: int32(p.value.Fd()), Events: unix.POLLPRI | unix.POLLERR}}
	deadline := time.Now().Add(timeout)
	for {
		ms := -1
		if timeout >= 0 {
			ms = pollTimeout(time.Until(deadline))
		}

		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("gpio%d: poll: %w", p.num, err)
		}
		return n > 0, nil
	}
}

// Close removes edge detection, closes the value file and unexports the pin.
func (p *Pin) Close() error {
	var errs []error
	if p.edge != EdgeNone {
		errs = append(errs, p.SetEdge(EdgeNone))
	}
	errs = append(errs, p.value.Close())
	errs = append(errs, p.sys.Unexport(p.num))
	return errors.Join(errs...)
}

// pollTimeout converts d to poll milliseconds, rounding up so that poll never
// gives up before d has elapsed.
func pollTimeout(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

func writeAttr(path, value string) error {
	return os.WriteFile(path, []byte(value), 0644)
}
