package gpio

import (
	"fmt"
	"time"
)

// Level is the logic level of a digital pin.
type Level int

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	switch l {
	case Low:
		return "LOW"
	case High:
		return "HIGH"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Invert returns the opposite level.
func (l Level) Invert() Level {
	if l == Low {
		return High
	}
	return Low
}

// Edge is a transition between levels. The string forms are the values
// accepted by the sysfs edge attribute.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeNone:
		return "none"
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return fmt.Sprintf("Edge(%d)", int(e))
	}
}

// Opposite swaps rising and falling. Other edges are returned unchanged.
func (e Edge) Opposite() Edge {
	switch e {
	case EdgeRising:
		return EdgeFalling
	case EdgeFalling:
		return EdgeRising
	default:
		return e
	}
}

// Target is the level a line is at once edge has occurred. It is only
// defined for EdgeRising and EdgeFalling.
func (e Edge) Target() (Level, bool) {
	switch e {
	case EdgeRising:
		return High, true
	case EdgeFalling:
		return Low, true
	default:
		return Low, false
	}
}

// NoTimeout makes an edge wait block until the edge occurs.
const NoTimeout time.Duration = -1

// Direction of a pin.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// SetupError reports a pin that could not be exported or configured.
type SetupError struct {
	Op  string
	Pin int
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("gpio%d: %s: %v", e.Pin, e.Op, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
