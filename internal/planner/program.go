// Package planner lowers a checked ast.CheckedAST into a Program the
// interpreter executes (§4.8). The step-kind enum plus name table mirror
// Funxy's Opcode/OpcodeNames pair in internal/vm/opcodes.go; the
// growable instruction list mirrors internal/vm/chunk.go (constants are
// stored inline in each Step rather than in a separate pool).
// Steps are a typed slice rather than a byte stream because a CEL Program
// is planned once per expression and walked directly by the interpreter —
// there is no serialization format to support, so there is nothing the
// byte/constant-pool encoding would buy over a plain struct slice (see
// DESIGN.md).
package planner

import "github.com/cel-lang/celcore/internal/types"

// StepKind discriminates a Program instruction, mirroring vm.Opcode.
type StepKind uint8

const (
	StepConst StepKind = iota
	StepLookup
	StepSlotLookup
	StepSelect
	StepHas
	StepCall
	StepCreateList
	StepCreateMap
	StepCreateRecord
	StepJump
	StepJumpIfFalseOrError
	StepJumpIfAbsorbing
	StepAnd2
	StepOr2
	StepComprehension
	StepPop
)

// StepNames maps StepKind to its display name, used by trace output and
// disassembly (cmd/celeval -trace), grounded on Funxy's
// internal/vm/disasm.go opcode-naming convention.
var StepNames = map[StepKind]string{
	StepConst:              "CONST",
	StepLookup:             "LOOKUP",
	StepSlotLookup:         "SLOT_LOOKUP",
	StepSelect:             "SELECT",
	StepHas:                "HAS",
	StepCall:               "CALL",
	StepCreateList:         "CREATE_LIST",
	StepCreateMap:          "CREATE_MAP",
	StepCreateRecord:       "CREATE_RECORD",
	StepJump:               "JUMP",
	StepJumpIfFalseOrError: "JUMP_IF_FALSE_OR_ERROR",
	StepJumpIfAbsorbing:    "JUMP_IF_ABSORBING",
	StepAnd2:               "AND2",
	StepOr2:                "OR2",
	StepComprehension:      "COMPREHENSION",
	StepPop:                "POP",
}

func (k StepKind) String() string {
	if n, ok := StepNames[k]; ok {
		return n
	}
	return "UNKNOWN"
}

// Step is one planned instruction. Only the fields relevant to Kind are
// populated; unused fields are zero.
type Step struct {
	Kind StepKind

	Const types.Value

	Name string // Lookup: variable name; Select/Has: field name

	Function      string // Call
	Arity         int
	Overload      string // pre-resolved overload id, empty if runtime-resolved
	ReceiverStyle bool

	N int // CreateList/CreateMap element count; SlotLookup: slot index

	TypeName   string   // CreateRecord
	FieldNames []string // CreateRecord, parallel to the len(FieldNames) preceding field values

	Target    int // Jump: absolute step index. JumpIfFalseOrError: the false-branch (else) target.
	ErrTarget int // JumpIfFalseOrError only: where an error/unknown condition jumps (§4.8: "jumps to the end, skipping both arms").

	Comprehension *Comprehension
}

// Comprehension holds the five compiled subexpressions and two slot
// indices of §4.9. Each subexpression is its own nested Program, mirroring
// Funxy's per-closure Chunk (internal/vm/chunk.go) rather than
// flattening into the parent's instruction stream with hand-rolled
// back-edges.
type Comprehension struct {
	IterVar  string
	AccuVar  string
	IterSlot int
	AccuSlot int

	Range         *Program
	AccuInit      *Program
	LoopCondition *Program
	LoopStep      *Program
	Result        *Program
}

// Program is a planned, immutable sequence of Steps plus the slot-table
// size computed from the maximum simultaneously-live comprehension depth
// (§4.9: "Slots are pre-sized at plan time").
type Program struct {
	Steps     []Step
	SlotCount int
	MaxStack  int
}
