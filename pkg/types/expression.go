// Package types defines the core type system for gocalc.
//
// This package contains type definitions for:
//   - Expression: compiled arithmetic expressions
//   - ASTNode: expression tree nodes (literal, unary, binary, function call)
//   - Error: structured diagnostics with codes and kinds
package types

// Expression represents a compiled arithmetic expression.
//
// An Expression can be evaluated multiple times against different
// evaluation contexts by passing it to [evaluator.Evaluator.Eval]. It is
// immutable and safe for concurrent use by multiple goroutines.
type Expression struct {
	ast    *ASTNode
	source string
	arena  *NodeArena
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// NewExpressionWithArena creates an Expression that keeps the arena backing
// its nodes alive.
func NewExpressionWithArena(ast *ASTNode, source string, arena *NodeArena) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
		arena:  arena,
	}
}

// AST returns the root of the expression tree.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source text of the expression.
func (e *Expression) Source() string {
	return e.source
}

// Canonical returns the expression re-rendered from its tree.
func (e *Expression) Canonical() string {
	return e.ast.String()
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}
