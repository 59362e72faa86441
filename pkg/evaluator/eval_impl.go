package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sandrolain/gocalc/pkg/types"
)

// maxFactorial is the largest n whose factorial is representable as float64.
const maxFactorial = 170

// factorials holds n! for 0 <= n <= maxFactorial.
var factorials = func() [maxFactorial + 1]float64 {
	var t [maxFactorial + 1]float64
	t[0] = 1
	for i := 1; i <= maxFactorial; i++ {
		t[i] = t[i-1] * float64(i)
	}
	return t
}()

// evalNode evaluates an AST node in the given context.
func (e *Evaluator) evalNode(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (float64, error) {
	if node == nil {
		return 0, types.NewError(types.ErrInternal, "missing operand", -1)
	}

	// Dispatch based on node type
	switch node.Type {
	case types.NodeLiteral:
		return node.Value, nil
	case types.NodeUnary:
		return e.evalUnary(ctx, node, evalCtx)
	case types.NodeBinary:
		return e.evalBinary(ctx, node, evalCtx)
	case types.NodeFunction:
		return e.evalFunction(ctx, node, evalCtx)
	default:
		return 0, types.NewError(types.ErrInternal, fmt.Sprintf("unknown node type: %s", node.Type), node.Position)
	}
}

// evalUnary evaluates negation and the postfix operators.
func (e *Evaluator) evalUnary(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (float64, error) {
	x, err := e.evalNode(ctx, node.Operand, evalCtx)
	if err != nil {
		return 0, err
	}

	switch node.Op {
	case types.OpNeg:
		return -x, nil
	case types.OpPercent:
		return x / 100, nil
	case types.OpFactorial:
		return factorial(x)
	default:
		return 0, types.NewError(types.ErrInternal, fmt.Sprintf("unknown unary operator %s", node.Op), node.Position)
	}
}

// evalBinary evaluates the arithmetic operators.
func (e *Evaluator) evalBinary(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (float64, error) {
	lhs, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return 0, err
	}
	rhs, err := e.evalNode(ctx, node.RHS, evalCtx)
	if err != nil {
		return 0, err
	}

	var result float64
	switch node.Op {
	case types.OpAdd:
		result = lhs + rhs
	case types.OpSub:
		result = lhs - rhs
	case types.OpMul:
		result = lhs * rhs
	case types.OpDiv:
		if rhs == 0 {
			return 0, types.NewDomainError(types.ErrDivisionByZero, "/", "division by zero")
		}
		result = lhs / rhs
	case types.OpPow:
		if lhs == 0 && rhs < 0 {
			return 0, types.NewDomainError(types.ErrDivisionByZero, "^", "zero raised to a negative power")
		}
		result = math.Pow(lhs, rhs)
	default:
		return 0, types.NewError(types.ErrInternal, fmt.Sprintf("unknown binary operator %s", node.Op), node.Position)
	}

	if err := checkFinite(result, node.Op.String()); err != nil {
		return 0, err
	}
	return result, nil
}

// evalFunction evaluates a builtin or custom function call.
func (e *Evaluator) evalFunction(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (float64, error) {
	x, err := e.evalNode(ctx, node.Operand, evalCtx)
	if err != nil {
		return 0, err
	}

	if fn, ok := builtins[node.Name]; ok {
		result, err := fn(x, evalCtx.AngleMode())
		if err != nil {
			return 0, err
		}
		if err := checkFinite(result, node.Name); err != nil {
			return 0, err
		}
		return result, nil
	}

	cfd, ok := e.customFns[node.Name]
	if !ok {
		return 0, types.NewError(types.ErrUnknownFunction, fmt.Sprintf("unknown function '%s'", node.Name), node.Position).
			WithToken(node.Name)
	}

	result, err := cfd.Fn(ctx, x)
	if err != nil {
		var diag *types.Error
		if errors.As(err, &diag) {
			return 0, err
		}
		return 0, types.NewDomainError(types.ErrFunctionFailed, node.Name, err.Error()).WithCause(err)
	}
	if cfd.ReturnsAngle && evalCtx.AngleMode() == Degrees {
		result = result * 180 / math.Pi
	}
	if err := checkFinite(result, node.Name); err != nil {
		return 0, err
	}
	return result, nil
}

// factorial computes n! for non-negative integers up to maxFactorial.
func factorial(n float64) (float64, error) {
	if n < 0 || n != math.Trunc(n) || math.IsNaN(n) {
		return 0, types.NewDomainError(types.ErrFactorialDomain, "!", "factorial requires a non-negative integer")
	}
	if n > maxFactorial {
		return 0, types.NewOverflowError("!")
	}
	return factorials[int(n)], nil
}

// checkFinite converts a non-finite value into a diagnostic naming op:
// infinities overflow, NaN is undefined.
func checkFinite(v float64, op string) error {
	switch {
	case math.IsInf(v, 0):
		return types.NewOverflowError(op)
	case math.IsNaN(v):
		return types.NewDomainError(types.ErrUndefinedResult, op, "result is undefined")
	}
	return nil
}
