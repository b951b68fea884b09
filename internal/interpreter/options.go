package interpreter

import "github.com/cel-lang/celcore/internal/types"

// UnknownTracking selects how aggressively the evaluator surfaces Unknown
// values for attributes the host marked unknown (§6 RuntimeOptions:
// enableUnknownTracking).
type UnknownTracking uint8

const (
	// UnknownDisabled never converts a lookup/select result to Unknown;
	// unknown attribute patterns, if any, are ignored.
	UnknownDisabled UnknownTracking = iota
	// UnknownAttributeOnly converts a lookup/select/index result to
	// Unknown when its attribute trail matches an UnknownPattern.
	UnknownAttributeOnly
	// UnknownAttributeAndFunction additionally would propagate Unknown
	// through impure function results keyed by their argument attributes;
	// not implemented by this evaluator (see DESIGN.md) — treated as
	// UnknownAttributeOnly.
	UnknownAttributeAndFunction
)

// Options is the RuntimeOptions set of spec §6 that governs evaluation
// (the planner consumes EnableConstantFolding and EnableShortCircuiting
// separately, at plan time; they are repeated here as the source of truth
// a host configures once and threads to both planner.Options and this
// struct).
type Options struct {
	// ComprehensionMaxIterations bounds the total number of comprehension
	// loop-step evaluations across one whole evaluation (nested
	// comprehensions share the same budget). Zero disables the limit.
	ComprehensionMaxIterations uint32
	// EnableHeterogeneousEquality controls cross-numeric-kind equality
	// and map-key lookup; consulted by the standard-library overloads and
	// by types.Map's own Heterogeneous flag at construction time, not by
	// this package directly.
	EnableHeterogeneousEquality bool
	// UnknownTracking governs whether lookup/select/index results are
	// checked against the Activation's unknown attribute patterns.
	UnknownTracking UnknownTracking
	// EnableMissingAttributeErrors governs whether lookup/select/index
	// results are checked against the Activation's missing attribute
	// patterns.
	EnableMissingAttributeErrors bool
	// EnableShortCircuiting governs whether a comprehension's loop stops
	// as soon as loopCondition is false (§4.9); the planner's identically
	// named option governs the analogous behavior for logical operators.
	EnableShortCircuiting bool
}

// TraceFunc is the optional per-step callback of §6 ("an optional per-step
// function (nodeId, value) -> ok|error"). This evaluator keys callbacks by
// program-counter step index rather than source node id, since a planned
// Program does not retain the checked AST's NodeIDs (see DESIGN.md);
// returning a non-nil error aborts evaluation, and Eval/EvalTraced return
// that error (wrapped) as their Go error result.
type TraceFunc func(pc int, value types.Value) error
