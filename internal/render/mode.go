package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownMode = errors.New("render: unknown mode")

// Mode selects the pass sequence. The set is closed: Normal, FromLightPOV,
// DepthMap and WithShadows.
type Mode interface {
	// Ordinal is the 1-based number the mode is selected by.
	Ordinal() int
	String() string
	mode()
}

type (
	Normal       struct{}
	FromLightPOV struct{}
	DepthMap     struct{}
	WithShadows  struct{}
)

func (Normal) Ordinal() int       { return 1 }
func (FromLightPOV) Ordinal() int { return 2 }
func (DepthMap) Ordinal() int     { return 3 }
func (WithShadows) Ordinal() int  { return 4 }

func (Normal) String() string       { return "normal" }
func (FromLightPOV) String() string { return "light" }
func (DepthMap) String() string     { return "depth" }
func (WithShadows) String() string  { return "shadows" }

func (Normal) mode()       {}
func (FromLightPOV) mode() {}
func (DepthMap) mode()     {}
func (WithShadows) mode()  {}

// Modes lists every mode in ordinal order.
var Modes = [4]Mode{Normal{}, FromLightPOV{}, DepthMap{}, WithShadows{}}

// ModeByOrdinal returns the mode selected by n (1..4).
func ModeByOrdinal(n int) (Mode, error) {
	if n < 1 || n > len(Modes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, n)
	}
	return Modes[n-1], nil
}

// ParseMode accepts a mode name, a long alias or an ordinal.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return ModeByOrdinal(n)
	}
	switch s {
	case "normal":
		return Normal{}, nil
	case "light", "from-light-pov":
		return FromLightPOV{}, nil
	case "depth", "depth-map":
		return DepthMap{}, nil
	case "shadows", "with-shadows":
		return WithShadows{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ModeSwitch holds the active mode. Requests made during a frame take
// effect at the next Latch, which the orchestrator calls once per frame
// before any pass runs.
type ModeSwitch struct {
	current Mode
	pending Mode
}

func NewModeSwitch(initial Mode) *ModeSwitch {
	if initial == nil {
		initial = Normal{}
	}
	return &ModeSwitch{current: initial}
}

// Request queues m for the next frame. The last request before Latch wins.
func (s *ModeSwitch) Request(m Mode) {
	if m != nil {
		s.pending = m
	}
}

// Latch applies a pending request and reports whether the mode changed.
func (s *ModeSwitch) Latch() (Mode, bool) {
	if s.pending == nil {
		return s.current, false
	}
	changed := s.pending != s.current
	s.current = s.pending
	s.pending = nil
	return s.current, changed
}

// Current is the mode latched at the start of the current frame.
func (s *ModeSwitch) Current() Mode { return s.current }
