package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a diagnostic code.
type ErrorCode string

// Error codes. The leading letter selects the diagnostic kind:
// S for syntax, D1 for overflow, D2 for domain, E for internal failures.
const (
	// S01xx: Tokenizer errors
	ErrUnknownCharacter ErrorCode = "S0101"
	ErrMalformedNumber  ErrorCode = "S0102"
	ErrUnknownName      ErrorCode = "S0103"

	// S02xx: Parser errors
	ErrSyntaxError      ErrorCode = "S0201"
	ErrExpectedToken    ErrorCode = "S0202"
	ErrUnexpectedEnd    ErrorCode = "S0203"
	ErrEmptyExpression  ErrorCode = "S0204"
	ErrUnknownFunction  ErrorCode = "S0205"
	ErrNestingTooDeep   ErrorCode = "S0206"
	ErrMissingArgument  ErrorCode = "S0207"
	ErrUnbalancedParens ErrorCode = "S0208"

	// D1xxx: Overflow
	ErrNumberTooLarge ErrorCode = "D1001"

	// D2xxx: Domain errors
	ErrDivisionByZero   ErrorCode = "D2001"
	ErrNegativeRoot     ErrorCode = "D2002"
	ErrLogDomain        ErrorCode = "D2003"
	ErrFactorialDomain  ErrorCode = "D2004"
	ErrUndefinedResult  ErrorCode = "D2005"
	ErrTangentUndefined ErrorCode = "D2006"
	ErrFunctionFailed   ErrorCode = "D2007"

	// E0xxx: Internal errors
	ErrInternal ErrorCode = "E0001"
)

// Kind classifies a diagnostic.
type Kind uint8

const (
	KindSyntax Kind = iota + 1
	KindDomain
	KindOverflow
	KindInternal
)

// String returns the diagnostic kind name.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindDomain:
		return "DomainError"
	case KindOverflow:
		return "OverflowError"
	case KindInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is matching against a diagnostic kind.
var (
	ErrSyntax   = errors.New("syntax error")
	ErrDomain   = errors.New("domain error")
	ErrOverflow = errors.New("overflow error")
)

// Error is a structured diagnostic. Syntax diagnostics carry a position
// (a character offset into the input) and, when known, the expected token.
// Domain and overflow diagnostics carry the name of the operation that failed.
type Error struct {
	Code      ErrorCode
	Message   string
	Position  int
	Token     string
	Expected  string
	Operation string
	Err       error
}

// NewError creates a new diagnostic.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// NewDomainError creates a domain diagnostic for the named operation.
func NewDomainError(code ErrorCode, operation, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Position:  -1,
		Operation: operation,
	}
}

// NewOverflowError creates an overflow diagnostic for the named operation.
func NewOverflowError(operation string) *Error {
	return &Error{
		Code:      ErrNumberTooLarge,
		Message:   "result exceeds the representable range",
		Position:  -1,
		Operation: operation,
	}
}

// Kind returns the diagnostic kind derived from the code.
func (e *Error) Kind() Kind {
	c := string(e.Code)
	switch {
	case len(c) > 0 && c[0] == 'S':
		return KindSyntax
	case len(c) > 1 && c[0] == 'D' && c[1] == '1':
		return KindOverflow
	case len(c) > 0 && c[0] == 'D':
		return KindDomain
	default:
		return KindInternal
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		if e.Expected != "" {
			return fmt.Sprintf("%s at position %d: %s (expected %s)", e.Code, e.Position, e.Message, e.Expected)
		}
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	if e.Operation != "" {
		return fmt.Sprintf("%s in %s: %s", e.Code, e.Operation, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this diagnostic's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSyntax:
		return e.Kind() == KindSyntax
	case ErrDomain:
		return e.Kind() == KindDomain
	case ErrOverflow:
		return e.Kind() == KindOverflow
	}
	return false
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithExpected records the token the parser expected.
func (e *Error) WithExpected(expected string) *Error {
	e.Expected = expected
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// MarshalJSON renders the diagnostic for API clients.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      string    `json:"kind"`
		Code      ErrorCode `json:"code"`
		Message   string    `json:"message"`
		Position  int       `json:"position"`
		Token     string    `json:"token,omitempty"`
		Expected  string    `json:"expected,omitempty"`
		Operation string    `json:"operation,omitempty"`
	}{
		Kind:      e.Kind().String(),
		Code:      e.Code,
		Message:   e.Message,
		Position:  e.Position,
		Token:     e.Token,
		Expected:  e.Expected,
		Operation: e.Operation,
	})
}

// AsDiagnostic extracts a *Error from err, if any.
func AsDiagnostic(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
