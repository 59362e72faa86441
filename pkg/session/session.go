// Package session implements the calculator session: the key-driven state
// machine that owns a display buffer, a one-line history, the memory
// register and the angle mode, and delegates arithmetic to the evaluator.
//
// # States
//
//	Idle ──key──▶ Accumulating ──=──▶ Evaluated ──key──▶ Accumulating
//	                   │                                     ▲
//	                   └──= (diagnostic)──▶ Error ──key──────┘
//
// AC returns to Idle from any state, clearing the buffer and the history
// but never the memory register; only MC clears memory.
//
// A Session is not safe for concurrent use. Front ends that share one
// session between goroutines must serialize access.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/pkg/evaluator"
)

// ErrUnknownKey is returned by Press for keys the calculator does not have.
var ErrUnknownKey = errors.New("unknown key")

// ErrBufferFull is returned by Press when the entry reaches MaxBufferLen.
var ErrBufferFull = errors.New("entry is too long")

// MaxBufferLen is the maximum number of typed characters in the entry
// buffer. Operands the session splices in from a result or the memory
// register do not count, so 170! can always be continued.
const MaxBufferLen = 256

// ErrorDisplay is shown while the session is in the Error state.
const ErrorDisplay = "Error"

// State is the session state.
type State uint8

const (
	StateIdle State = iota
	StateAccumulating
	StateEvaluated
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateEvaluated:
		return "evaluated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Observer is notified after every successful evaluation.
type Observer func(expression string, result float64)

// Session is one calculator instance.
type Session struct {
	id       string
	ev       *evaluator.Evaluator
	ctx      *evaluator.EvalContext
	logger   *zap.Logger
	observer Observer

	state   State
	buffer  string
	history string
	result  float64
	lastErr error

	// inserted counts the buffer runes that came from a stored value
	// rather than from typed keys.
	inserted int
}

// Option configures a Session.
type Option func(*Session)

// WithEvaluator sets the evaluator. Custom functions registered on it
// become available as function keys.
func WithEvaluator(ev *evaluator.Evaluator) Option {
	return func(s *Session) {
		s.ev = ev
	}
}

// WithAngleMode sets the initial angle mode.
func WithAngleMode(mode evaluator.AngleMode) Option {
	return func(s *Session) {
		s.ctx.SetAngleMode(mode)
	}
}

// WithObserver registers fn to be called after every successful evaluation.
func WithObserver(fn Observer) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithID sets the session identifier instead of a random UUID.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// New creates an idle session in degree mode with an empty memory register.
func New(opts ...Option) *Session {
	s := &Session{
		id:  uuid.NewString(),
		ctx: evaluator.NewContext(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ev == nil {
		s.ev = evaluator.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Buffer returns the raw entry buffer.
func (s *Session) Buffer() string { return s.buffer }

// History returns the one-line history: the last evaluated expression
// followed by " =", or "" before the first evaluation.
func (s *Session) History() string { return s.history }

// Memory returns the value of the memory register.
func (s *Session) Memory() float64 { return s.ctx.MemoryRecall() }

// AngleMode returns the current angle mode.
func (s *Session) AngleMode() evaluator.AngleMode { return s.ctx.AngleMode() }

// LastError returns the diagnostic that put the session in the Error state.
func (s *Session) LastError() error {
	if s.state != StateError {
		return nil
	}
	return s.lastErr
}

// Result returns the last evaluated result and whether there is one.
func (s *Session) Result() (float64, bool) {
	return s.ctx.LastResult()
}

// Display returns what the calculator screen shows.
func (s *Session) Display() string {
	switch s.state {
	case StateEvaluated:
		return evaluator.Canonical(s.result)
	case StateError:
		return ErrorDisplay
	case StateAccumulating:
		return s.buffer
	default:
		return "0"
	}
}

// Press applies one key.
//
// Evaluation diagnostics raised by "=" or "M+" do not make Press fail: the
// session moves to the Error state and LastError reports the cause. Press
// returns an error only for keys the session cannot accept.
func (s *Session) Press(key string) error {
	switch key {
	case "=":
		_, _ = s.Evaluate()
		return nil
	case "AC":
		s.ClearAll()
		return nil
	case "C", "CE", "⌫":
		s.ClearEntry()
		return nil
	case "M+":
		s.memoryUpdate(s.ctx.MemoryAdd)
		return nil
	case "M-", "M−":
		s.memoryUpdate(s.ctx.MemorySubtract)
		return nil
	case "MR":
		return s.recallMemory()
	case "MC":
		s.ctx.MemoryClear()
		return nil
	case "DEG":
		s.SetAngleMode(evaluator.Degrees)
		return nil
	case "RAD":
		s.SetAngleMode(evaluator.Radians)
		return nil
	}

	kind, text, ok := s.classify(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return s.input(kind, text)
}

// Evaluate evaluates the buffer. From Evaluated it returns the current
// result again; from Error it returns the pending diagnostic; with an empty
// buffer it returns 0 and leaves the session untouched.
func (s *Session) Evaluate() (float64, error) {
	return s.EvaluateContext(context.Background())
}

// EvaluateContext is Evaluate with a caller-supplied context.
func (s *Session) EvaluateContext(ctx context.Context) (float64, error) {
	switch s.state {
	case StateIdle:
		return 0, nil
	case StateEvaluated:
		return s.result, nil
	case StateError:
		return 0, s.lastErr
	}

	expression := s.buffer
	s.history = expression + " ="

	v, err := s.ev.EvalString(ctx, expression, s.ctx)
	if err != nil {
		s.state = StateError
		s.lastErr = err
		s.logger.Debug("session evaluation failed",
			zap.String("session", s.id),
			zap.String("expression", expression),
			zap.Error(err))
		return 0, err
	}

	s.state = StateEvaluated
	s.result = v
	s.lastErr = nil
	s.logger.Debug("session evaluated",
		zap.String("session", s.id),
		zap.String("expression", expression),
		zap.Float64("result", v))

	if s.observer != nil {
		s.observer(expression, v)
	}
	return v, nil
}

// ClearEntry removes the last character of the entry. An entry that becomes
// empty, an evaluated result and an error all return to Idle; the history
// line is kept.
func (s *Session) ClearEntry() {
	if s.state != StateAccumulating {
		s.reset()
		return
	}
	_, size := utf8.DecodeLastRuneInString(s.buffer)
	s.buffer = s.buffer[:len(s.buffer)-size]
	s.inserted = min(s.inserted, utf8.RuneCountInString(s.buffer))
	if s.buffer == "" {
		s.state = StateIdle
	}
}

// ClearAll returns to Idle with an empty buffer and history. The last
// result is forgotten, so M+ right after AC changes nothing. The memory
// register and the angle mode are untouched.
func (s *Session) ClearAll() {
	s.reset()
	s.history = ""
}

// SetAngleMode switches between degrees and radians without altering any
// other session state.
func (s *Session) SetAngleMode(mode evaluator.AngleMode) {
	s.ctx.SetAngleMode(mode)
}

func (s *Session) reset() {
	s.state = StateIdle
	s.buffer = ""
	s.inserted = 0
	s.result = 0
	s.lastErr = nil
	s.ctx.ClearLastResult()
}

// memoryUpdate applies M+ or M-. A pending entry is evaluated first, as if
// "=" had been pressed; if that fails the register is left unchanged.
func (s *Session) memoryUpdate(apply func() bool) {
	if s.state == StateAccumulating {
		if _, err := s.Evaluate(); err != nil {
			return
		}
	}
	if s.state == StateError {
		return
	}
	apply()
}

// recallMemory appends the register value to the entry.
func (s *Session) recallMemory() error {
	operand := operandText(s.ctx.MemoryRecall())
	text := operand
	if s.state == StateAccumulating && endsOperand(s.buffer) {
		text = "×" + text
	}
	return s.insert(keyOperand, text, utf8.RuneCountInString(operand))
}

type keyKind uint8

const (
	keyOperand  keyKind = iota + 1 // digits, point, constants, parentheses, memory recall
	keyBinary                      // + - × ÷ ^
	keyPostfix                     // % ! and x²
	keyPrefix                      // √ and function keys
)

var staticKeys = map[string]struct {
	kind keyKind
	text string
}{
	".":   {keyOperand, "."},
	"π":   {keyOperand, "π"},
	"pi":  {keyOperand, "π"},
	"e":   {keyOperand, "e"},
	"(":   {keyOperand, "("},
	")":   {keyOperand, ")"},
	"+":   {keyBinary, "+"},
	"-":   {keyBinary, "−"},
	"−":   {keyBinary, "−"},
	"*":   {keyBinary, "×"},
	"×":   {keyBinary, "×"},
	"/":   {keyBinary, "÷"},
	"÷":   {keyBinary, "÷"},
	"^":   {keyBinary, "^"},
	"%":   {keyPostfix, "%"},
	"!":   {keyPostfix, "!"},
	"x²":  {keyPostfix, "^2"},
	"x^2": {keyPostfix, "^2"},
	"√":   {keyPrefix, "√"},
}

// classify maps a key to its kind and the text it appends.
func (s *Session) classify(key string) (keyKind, string, bool) {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return keyOperand, key, true
	}
	if k, ok := staticKeys[key]; ok {
		return k.kind, k.text, true
	}
	if s.isFunction(key) {
		return keyPrefix, key + "(", true
	}
	return 0, "", false
}

func (s *Session) isFunction(name string) bool {
	switch name {
	case "sin", "cos", "tan", "log", "ln", "sqrt":
		return true
	}
	for _, def := range s.ev.Functions() {
		if def.Name == name {
			return true
		}
	}
	return false
}

// input appends typed text according to the state machine.
func (s *Session) input(kind keyKind, text string) error {
	return s.insert(kind, text, 0)
}

// insert appends text. stored is the number of runes in text that came from
// a stored value rather than typed keys. From Evaluated, an operator
// continues from the result.
func (s *Session) insert(kind keyKind, text string, stored int) error {
	next, inserted := s.buffer, s.inserted+stored
	switch s.state {
	case StateIdle, StateError:
		next, inserted = text, stored
	case StateEvaluated:
		if kind == keyBinary || kind == keyPostfix {
			seed := operandText(s.result)
			next, inserted = seed+text, utf8.RuneCountInString(seed)
		} else {
			next, inserted = text, stored
		}
	default:
		next += text
	}

	if utf8.RuneCountInString(next)-inserted > MaxBufferLen {
		return ErrBufferFull
	}
	s.buffer = next
	s.inserted = inserted
	s.state = StateAccumulating
	s.lastErr = nil
	return nil
}

// operandText renders v so that it can be spliced into an entry as one
// operand: negative values are parenthesized.
func operandText(v float64) string {
	text := evaluator.Canonical(v)
	if strings.HasPrefix(text, "-") {
		return "(" + text + ")"
	}
	return text
}

// endsOperand reports whether the entry ends with something a number
// cannot directly follow.
func endsOperand(buffer string) bool {
	r, _ := utf8.DecodeLastRuneInString(buffer)
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '.', r == ')', r == '!', r == '%', r == 'π', r == 'e':
		return true
	}
	return false
}
