package parser

import (
	"fmt"

	"github.com/sandrolain/gocalc/pkg/types"
)

// BuiltinFunctions lists the function names every parser accepts.
var BuiltinFunctions = []string{"sin", "cos", "tan", "log", "ln", "sqrt"}

const expectedOperand = "number, constant, function or ("

// Binding powers, low to high.
const (
	bpNone     = 0
	bpAdditive = 10 // + -
	bpMultiply = 20 // * / and implicit multiplication
	bpUnary    = 30 // prefix - +
	bpPower    = 40 // ^ (right-associative)
	bpPostfix  = 50 // ! %
)

// Parser implements a recursive descent parser for arithmetic expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence and associativity.
type Parser struct {
	lexer     *Lexer
	input     string
	current   Token
	prev      Token
	opts      CompileOptions
	functions map[string]struct{}
	arena     *types.NodeArena
	depth     int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 256,
	}
	for _, opt := range opts {
		opt(&options)
	}

	fns := make(map[string]struct{}, len(BuiltinFunctions)+len(options.Functions))
	for _, name := range BuiltinFunctions {
		fns[name] = struct{}{}
	}
	for _, name := range options.Functions {
		fns[name] = struct{}{}
	}

	p := &Parser{
		lexer:     NewLexer(input),
		input:     input,
		opts:      options,
		functions: fns,
		arena:     types.NewNodeArena(),
	}

	p.lexer.words = fns

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrEmptyExpression, "empty expression").WithExpected(expectedOperand)
	}

	node, err := p.parseExpression(bpNone)
	if err != nil {
		return nil, err
	}

	switch p.current.Type {
	case TokenEOF:
	case TokenError:
		return nil, p.lexer.Error()
	case TokenParenClose:
		return nil, p.error(types.ErrUnbalancedParens, "unmatched ')'")
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("unexpected %s", describe(p.current))).
			WithExpected("operator")
	}

	return types.NewExpressionWithArena(node, p.input, p.arena), nil
}

// lbp returns the left binding power of the current token.
func (p *Parser) lbp() int {
	switch p.current.Type {
	case TokenOperator:
		switch p.current.Value {
		case "+", "-":
			return bpAdditive
		case "*", "/":
			return bpMultiply
		case "^":
			return bpPower
		case "!":
			return bpPostfix
		}
	case TokenPercent:
		return bpPostfix
	}
	if p.implicitMultiplication() {
		return bpMultiply
	}
	return bpNone
}

// implicitMultiplication reports whether the current token begins an operand
// that multiplies the one just parsed, as in 2π, 3(4), (1)(2) or 2sin(30).
// Two adjacent bare numerals never multiply.
func (p *Parser) implicitMultiplication() bool {
	if !endsOperand(p.prev) {
		return false
	}
	switch p.current.Type {
	case TokenIdentifier, TokenRoot, TokenParenOpen:
		return true
	case TokenNumber:
		return p.current.Constant || p.prev.Type == TokenParenClose
	}
	return false
}

func endsOperand(t Token) bool {
	switch t.Type {
	case TokenNumber, TokenParenClose, TokenPercent:
		return true
	case TokenOperator:
		return t.Value == "!"
	}
	return false
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type == TokenError {
		return p.lexer.Error()
	}
	if p.current.Type != tt {
		code := types.ErrExpectedToken
		if tt == TokenParenClose {
			code = types.ErrUnbalancedParens
		}
		return p.error(code, fmt.Sprintf("expected %s but got %s", tt.String(), describe(p.current))).
			WithExpected(tt.String())
	}
	p.advance()
	return nil
}

// error creates a parser error positioned at the current token.
func (p *Parser) error(code types.ErrorCode, message string) *types.Error {
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// describe renders a token for error messages.
func describe(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenNumber:
		return fmt.Sprintf("number %s", t.Value)
	case TokenOperator:
		return fmt.Sprintf("operator '%s'", t.Value)
	case TokenIdentifier:
		return fmt.Sprintf("name '%s'", t.Value)
	default:
		return fmt.Sprintf("'%s'", t.Value)
	}
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrNestingTooDeep, fmt.Sprintf("expression nested deeper than %d levels", p.opts.MaxDepth))
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix and postfix expressions while precedence allows (led - left denotation)
	for rbp < p.lbp() {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenIdentifier:
		return p.parseFunctionCall()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenRoot:
		return p.parseRoot()
	case TokenOperator:
		switch token.Value {
		case "-":
			return p.parseUnaryMinus()
		case "+":
			p.advance()
			return p.parseExpression(bpUnary)
		}
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("unexpected %s", describe(token))).
			WithExpected(expectedOperand)
	case TokenError:
		return nil, p.lexer.Error()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "unexpected end of input").
			WithExpected(expectedOperand)
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("unexpected %s", describe(token))).
			WithExpected(expectedOperand)
	}
}

// parseInfix parses an infix or postfix expression (led - left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenPercent:
		return p.parsePostfix(left, types.OpPercent)
	case TokenOperator:
		switch token.Value {
		case "!":
			return p.parsePostfix(left, types.OpFactorial)
		case "^":
			// Right-associative: parse the right side one step below our own power.
			return p.parseBinaryOp(left, types.OpPow, bpPower-1)
		case "+":
			return p.parseBinaryOp(left, types.OpAdd, bpAdditive)
		case "-":
			return p.parseBinaryOp(left, types.OpSub, bpAdditive)
		case "*":
			return p.parseBinaryOp(left, types.OpMul, bpMultiply)
		case "/":
			return p.parseBinaryOp(left, types.OpDiv, bpMultiply)
		}
	}

	if p.implicitMultiplication() {
		right, err := p.parseExpression(bpMultiply)
		if err != nil {
			return nil, err
		}
		node := p.arena.Alloc(types.NodeBinary, token.Position)
		node.Op = types.OpMul
		node.LHS = left
		node.RHS = right
		return node, nil
	}

	return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("unexpected %s", describe(token))).
		WithExpected("operator")
}

// parseNumber parses a number literal or named constant.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeLiteral, p.current.Position)
	node.Value = p.current.Number
	node.Text = p.current.Value
	p.advance()
	return node, nil
}

// parseUnaryMinus parses a negation. Negation binds looser than ^ and the
// postfix operators, so -2^2 is -(2^2) and -3! is -(3!).
func (p *Parser) parseUnaryMinus() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance()

	operand, err := p.parseExpression(bpUnary)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeUnary, pos)
	node.Op = types.OpNeg
	node.Operand = operand
	return node, nil
}

// parseRoot parses the √ prefix. It binds like function application, tighter
// than ^ and the postfix operators: √4^2 is (√4)^2 and √9! is (√9)!.
func (p *Parser) parseRoot() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance()

	operand, err := p.parseExpression(bpPostfix)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeFunction, pos)
	node.Name = "sqrt"
	node.Operand = operand
	return node, nil
}

// parsePostfix wraps left in a postfix operator node.
func (p *Parser) parsePostfix(left *types.ASTNode, op types.Operator) (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeUnary, p.current.Position)
	node.Op = op
	node.Operand = left
	p.advance()
	return node, nil
}

// parseBinaryOp parses the right-hand side of a binary operator.
func (p *Parser) parseBinaryOp(left *types.ASTNode, op types.Operator, rbp int) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance()

	right, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeBinary, pos)
	node.Op = op
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		return nil, p.error(types.ErrMissingArgument, "empty parentheses").WithExpected(expectedOperand)
	}

	inner, err := p.parseExpression(bpNone)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return inner, nil
}

// parseFunctionCall parses name(argument). Every function takes exactly one
// parenthesized argument.
func (p *Parser) parseFunctionCall() (*types.ASTNode, error) {
	name := p.current.Value
	if _, ok := p.functions[name]; !ok {
		return nil, p.error(types.ErrUnknownFunction, fmt.Sprintf("unknown function '%s'", name))
	}

	pos := p.current.Position
	p.advance()

	if p.current.Type != TokenParenOpen {
		if p.current.Type == TokenError {
			return nil, p.lexer.Error()
		}
		return nil, p.error(types.ErrMissingArgument, fmt.Sprintf("function '%s' requires a parenthesized argument", name)).
			WithExpected("(")
	}
	p.advance()

	if p.current.Type == TokenParenClose {
		return nil, p.error(types.ErrMissingArgument, fmt.Sprintf("function '%s' requires an argument", name)).
			WithExpected(expectedOperand)
	}

	arg, err := p.parseExpression(bpNone)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeFunction, pos)
	node.Name = name
	node.Operand = arg
	return node, nil
}
