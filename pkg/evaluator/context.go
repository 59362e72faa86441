package evaluator

import (
	"fmt"
	"math"
	"strings"
)

// AngleMode selects the unit trigonometric functions interpret angles in.
type AngleMode uint8

const (
	// Degrees converts angles to radians before applying sin, cos and tan.
	Degrees AngleMode = iota
	// Radians passes angles through unchanged.
	Radians
)

// String returns the short name of the mode ("deg" or "rad").
func (m AngleMode) String() string {
	if m == Radians {
		return "rad"
	}
	return "deg"
}

// ParseAngleMode parses "deg", "degrees", "rad" or "radians", case-insensitively.
// An empty string selects Degrees.
func ParseAngleMode(s string) (AngleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deg", "degree", "degrees":
		return Degrees, nil
	case "rad", "radian", "radians":
		return Radians, nil
	default:
		return Degrees, fmt.Errorf("unknown angle mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m AngleMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *AngleMode) UnmarshalText(text []byte) error {
	mode, err := ParseAngleMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// EvalContext carries the state that outlives a single evaluation: the angle
// mode, the memory register and the last successfully evaluated result.
//
// An EvalContext is owned by one calculator session and is not safe for
// concurrent use. Use Clone to hand a copy to another goroutine.
type EvalContext struct {
	angle   AngleMode
	memory  float64
	last    float64
	hasLast bool
}

// NewContext creates a new evaluation context in degree mode with an empty
// memory register.
func NewContext() *EvalContext {
	return &EvalContext{angle: Degrees}
}

// NewContextWithMode creates a new evaluation context using the given angle mode.
func NewContextWithMode(mode AngleMode) *EvalContext {
	return &EvalContext{angle: mode}
}

// AngleMode returns the current angle mode.
func (c *EvalContext) AngleMode() AngleMode {
	return c.angle
}

// SetAngleMode switches the angle mode. Memory and last result are untouched.
func (c *EvalContext) SetAngleMode(mode AngleMode) {
	c.angle = mode
}

// LastResult returns the last successfully evaluated result, if any.
func (c *EvalContext) LastResult() (float64, bool) {
	return c.last, c.hasLast
}

// SetLastResult records v as the last evaluated result.
func (c *EvalContext) SetLastResult(v float64) {
	c.last = v
	c.hasLast = true
}

// ClearLastResult forgets the last evaluated result, so M+ and M- do
// nothing until the next evaluation.
func (c *EvalContext) ClearLastResult() {
	c.last = 0
	c.hasLast = false
}

// MemoryAdd adds the last evaluated result to the memory register (M+).
// It reports false, leaving the register unchanged, when nothing has been
// evaluated yet or the sum would overflow.
func (c *EvalContext) MemoryAdd() bool {
	if !c.hasLast {
		return false
	}
	return c.setMemory(c.memory + c.last)
}

// MemorySubtract subtracts the last evaluated result from the memory
// register (M-). It reports false under the same conditions as MemoryAdd.
func (c *EvalContext) MemorySubtract() bool {
	if !c.hasLast {
		return false
	}
	return c.setMemory(c.memory - c.last)
}

func (c *EvalContext) setMemory(v float64) bool {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return false
	}
	c.memory = Round(v, DefaultPrecision)
	return true
}

// MemoryRecall returns the value of the memory register (MR).
func (c *EvalContext) MemoryRecall() float64 {
	return c.memory
}

// MemoryStore replaces the memory register with v (MS). Non-finite values
// are rejected.
func (c *EvalContext) MemoryStore(v float64) bool {
	return c.setMemory(v)
}

// MemoryClear resets the memory register to zero (MC).
func (c *EvalContext) MemoryClear() {
	c.memory = 0
}

// Clone returns an independent copy of the context.
func (c *EvalContext) Clone() *EvalContext {
	cp := *c
	return &cp
}
