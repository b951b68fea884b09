// Package ast defines the checked AST the planner consumes (§6 Inbound
// AST): integer node ids, one of eight node kinds per node, optional type
// annotations, and optional reference resolution. Node shapes are new to
// this domain (CEL's AST has no statements, declarations, or patterns),
// but the interface-plus-concrete-struct style and the per-node
// TokenLiteral/Accept pair are grounded on Funxy's
// internal/ast/ast_core.go — generalized here to ID()/Kind() since
// there is no source token to carry (parsing is out of scope; see
// DESIGN.md).
package ast

import "github.com/cel-lang/celcore/internal/types"

// NodeID identifies a node within a single checked AST, stable across
// planning and used to key optional type/reference annotations.
type NodeID int64

// Kind discriminates the eight node shapes named in §6.
type Kind uint8

const (
	ConstKind Kind = iota
	IdentKind
	SelectKind
	CallKind
	CreateListKind
	CreateMapKind
	CreateRecordKind
	ComprehensionKind
)

// Node is the common shape every AST node satisfies.
type Node interface {
	ID() NodeID
	Kind() Kind
}

// Const is a literal value known at checking time.
type Const struct {
	NodeID NodeID
	Value  types.Value
}

func (c *Const) ID() NodeID { return c.NodeID }
func (c *Const) Kind() Kind { return ConstKind }

// Ident is a variable reference resolved against the Activation at
// evaluation time.
type Ident struct {
	NodeID NodeID
	Name   string
}

func (i *Ident) ID() NodeID { return i.NodeID }
func (i *Ident) Kind() Kind { return IdentKind }

// Select reads a field off Operand; TestOnly marks a `has()` presence
// test rather than a value read (§4.8 Select lowering).
type Select struct {
	NodeID   NodeID
	Operand  Node
	Field    string
	TestOnly bool
}

func (s *Select) ID() NodeID { return s.NodeID }
func (s *Select) Kind() Kind { return SelectKind }

// Call invokes Function with Args, optionally against Target (a receiver
// call, e.g. `x.size()`). Overload, when non-empty, is the checker's
// pre-resolved overload id (§4.8: "pre-resolved at plan time when the AST
// provides enough type info, otherwise resolved at run time").
type Call struct {
	NodeID   NodeID
	Function string
	Target   Node // nil for a free function call
	Args     []Node
	Overload string
}

func (c *Call) ID() NodeID { return c.NodeID }
func (c *Call) Kind() Kind { return CallKind }

// CreateList builds a List value from Elements.
type CreateList struct {
	NodeID   NodeID
	Elements []Node
}

func (c *CreateList) ID() NodeID { return c.NodeID }
func (c *CreateList) Kind() Kind { return CreateListKind }

// MapEntry is one key/value pair of a CreateMap node.
type MapEntry struct {
	Key   Node
	Value Node
}

// CreateMap builds a Map value from Entries.
type CreateMap struct {
	NodeID  NodeID
	Entries []MapEntry
}

func (c *CreateMap) ID() NodeID { return c.NodeID }
func (c *CreateMap) Kind() Kind { return CreateMapKind }

// FieldEntry is one field initializer of a CreateRecord node.
type FieldEntry struct {
	Name  string
	Value Node
}

// CreateRecord builds a Record of type TypeName from Fields.
type CreateRecord struct {
	NodeID   NodeID
	TypeName string
	Fields   []FieldEntry
}

func (c *CreateRecord) ID() NodeID { return c.NodeID }
func (c *CreateRecord) Kind() Kind { return CreateRecordKind }

// Comprehension is the five-subexpression, two-variable fold of §4.9.
type Comprehension struct {
	NodeID        NodeID
	IterVar       string
	Range         Node
	AccuVar       string
	AccuInit      Node
	LoopCondition Node
	LoopStep      Node
	Result        Node
}

func (c *Comprehension) ID() NodeID { return c.NodeID }
func (c *Comprehension) Kind() Kind { return ComprehensionKind }

// CheckedAST is the planner's input: a root expression plus the optional
// per-node annotations a type checker may have attached. Annotations are
// keyed by NodeID so a checker-less caller can omit them entirely and
// force runtime overload resolution (§6: "Missing type info forces
// runtime overload resolution").
type CheckedAST struct {
	Root  Node
	Types map[NodeID]types.Type
}

func New(root Node) *CheckedAST {
	return &CheckedAST{Root: root, Types: make(map[NodeID]types.Type)}
}

// TypeOf returns the checker-assigned type for id, if any.
func (a *CheckedAST) TypeOf(id NodeID) (types.Type, bool) {
	t, ok := a.Types[id]
	return t, ok
}
