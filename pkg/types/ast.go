package types

import (
	"strings"
)

// NodeType identifies the type of an AST node.
type NodeType uint8

// AST node types.
const (
	NodeLiteral  NodeType = iota + 1 // number or constant
	NodeUnary                        // -x, x!, x%
	NodeBinary                       // x+y, x-y, x*y, x/y, x^y
	NodeFunction                     // sin(x), sqrt(x), ...
)

// String returns a string representation of the node type.
func (t NodeType) String() string {
	switch t {
	case NodeLiteral:
		return "literal"
	case NodeUnary:
		return "unary"
	case NodeBinary:
		return "binary"
	case NodeFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Operator identifies a unary or binary operation.
type Operator uint8

const (
	OpAdd Operator = iota + 1
	OpSub
	OpMul
	OpDiv
	OpPow
	OpNeg
	OpFactorial
	OpPercent
)

var operatorSymbols = [...]string{
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpPow:       "^",
	OpNeg:       "-",
	OpFactorial: "!",
	OpPercent:   "%",
}

// String returns the operator symbol.
func (o Operator) String() string {
	if int(o) < len(operatorSymbols) && operatorSymbols[o] != "" {
		return operatorSymbols[o]
	}
	return "?"
}

// Postfix reports whether the operator is written after its operand.
func (o Operator) Postfix() bool {
	return o == OpFactorial || o == OpPercent
}

// ASTNode represents a node in the expression tree.
//
// Literal nodes use Value and Text. Unary nodes use Op and Operand.
// Binary nodes use Op, LHS and RHS. Function nodes use Name and Operand.
type ASTNode struct {
	Type     NodeType
	Op       Operator
	Name     string
	Value    float64
	Text     string // source text of a literal, e.g. "2.5" or "π"
	Position int

	LHS     *ASTNode
	RHS     *ASTNode
	Operand *ASTNode
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
// Calculator input rarely exceeds a few dozen nodes.
const arenaChunkSize = 32

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// The arena pre-allocates fixed-size chunks of ASTNode structs and returns
// pointers into them, so a typical expression costs a single allocation.
//
// The arena must stay alive as long as any node it returned is reachable;
// attaching it to the [Expression] achieves this.
//
// NodeArena is not thread-safe. Each parser owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena,
// with Type and Position set.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}

// Len returns the number of nodes allocated so far.
func (a *NodeArena) Len() int {
	return (len(a.chunks)-1)*arenaChunkSize + a.pos
}

// String renders the subtree in infix notation. Every compound operand is
// parenthesized, so the output re-parses to an identical tree.
func (n *ASTNode) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *ASTNode) write(sb *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Type {
	case NodeLiteral:
		sb.WriteString(n.Text)
	case NodeFunction:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		n.Operand.write(sb)
		sb.WriteByte(')')
	case NodeUnary:
		if n.Op.Postfix() {
			writeOperand(sb, n.Operand)
			sb.WriteString(n.Op.String())
			return
		}
		sb.WriteString(n.Op.String())
		writeOperand(sb, n.Operand)
	case NodeBinary:
		writeOperand(sb, n.LHS)
		sb.WriteByte(' ')
		sb.WriteString(n.Op.String())
		sb.WriteByte(' ')
		writeOperand(sb, n.RHS)
	}
}

func writeOperand(sb *strings.Builder, n *ASTNode) {
	if n != nil && (n.Type == NodeBinary || n.Type == NodeUnary) {
		sb.WriteByte('(')
		n.write(sb)
		sb.WriteByte(')')
		return
	}
	n.write(sb)
}

// Depth returns the height of the subtree rooted at n.
func (n *ASTNode) Depth() int {
	if n == nil {
		return 0
	}
	d := 0
	for _, c := range [...]*ASTNode{n.LHS, n.RHS, n.Operand} {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}
