// Package cel is the host-facing embedding API, grounded on Funxy's
// pkg/embed/vm.go (the VM wrapper exposing New/Bind/Set/Get/Call/Eval over
// the internal evaluator) generalized from "compile and run a whole Funxy
// script" to "plan a checked CEL expression once, evaluate it repeatedly
// against many activations" — the planner/interpreter split of §4.8/§6
// makes the two steps independently reusable, unlike Funxy's single
// VM.Eval entry point.
package cel

import (
	"context"
	"fmt"

	"github.com/cel-lang/celcore/internal/activation"
	"github.com/cel-lang/celcore/internal/arena"
	"github.com/cel-lang/celcore/internal/ast"
	"github.com/cel-lang/celcore/internal/functions"
	"github.com/cel-lang/celcore/internal/interpreter"
	"github.com/cel-lang/celcore/internal/planner"
	"github.com/cel-lang/celcore/internal/recordprovider"
	"github.com/cel-lang/celcore/internal/stdlib"
	"github.com/cel-lang/celcore/internal/types"
)

// Env is a configured planning/evaluation environment: a frozen
// FunctionRegistry (standard library plus any host-registered overloads),
// a RecordProvider, and the RuntimeOptions that govern every Program it
// plans (§6).
type Env struct {
	registry    *functions.Registry
	provider    recordprovider.Provider
	runtimeOpts interpreter.Options
	plannerOpts planner.Options
	trace       interpreter.TraceFunc
}

// EnvOption configures NewEnv, following Funxy's Bind-then-build
// sequencing (internal/evaluator/environment.go) but as the functional-
// options pattern idiomatic to a public Go API.
type EnvOption func(*Env) error

// NewEnv builds an Env: a fresh FunctionRegistry seeded with the standard
// library (internal/stdlib), extended by any WithOverload options, then
// frozen (§4.4: "append-only... then immutable").
func NewEnv(opts ...EnvOption) (*Env, error) {
	e := &Env{
		registry: functions.NewRegistry(),
		provider: recordprovider.NewStaticProvider(),
		runtimeOpts: interpreter.Options{
			ComprehensionMaxIterations:   1_000_000,
			EnableHeterogeneousEquality:  true,
			EnableMissingAttributeErrors: true,
			EnableShortCircuiting:        true,
		},
		plannerOpts: planner.Options{EnableShortCircuiting: true},
	}
	if err := stdlib.Register(e.registry); err != nil {
		return nil, fmt.Errorf("cel: registering standard library: %w", err)
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.registry.Freeze()
	e.plannerOpts.Registry = e.registry
	return e, nil
}

// WithOverload registers an additional named overload before the
// registry is frozen (e.g. a host-defined extension function).
func WithOverload(name string, ov functions.Overload) EnvOption {
	return func(e *Env) error {
		return e.registry.Register(name, ov)
	}
}

// WithProvider replaces the default in-memory StaticProvider with a host-
// supplied RecordProvider (e.g. a ProtoProvider backed by a descriptor
// pool).
func WithProvider(p recordprovider.Provider) EnvOption {
	return func(e *Env) error {
		e.provider = p
		return nil
	}
}

// WithRuntimeOptions overrides the RuntimeOptions defaults (§6) a planned
// Program evaluates under.
func WithRuntimeOptions(opts interpreter.Options) EnvOption {
	return func(e *Env) error {
		e.runtimeOpts = opts
		return nil
	}
}

// WithConstantFolding toggles plan-time constant folding (§4.8).
func WithConstantFolding(enabled bool) EnvOption {
	return func(e *Env) error {
		e.plannerOpts.EnableConstantFolding = enabled
		return nil
	}
}

// WithTrace installs a per-step trace callback every Program.Eval call
// uses by default (§6 "Trace callback"); EvalDetails additionally records
// the same steps when requested per call via EvalContext with
// collectTrace set.
func WithTrace(trace interpreter.TraceFunc) EnvOption {
	return func(e *Env) error {
		e.trace = trace
		return nil
	}
}

// Plan lowers a checked AST into an executable Program (§4.8), using this
// Env's frozen registry for plan-time overload pre-resolution and
// constant folding.
func (e *Env) Plan(checked *ast.CheckedAST) (*Program, error) {
	e.plannerOpts.Registry = e.registry
	e.plannerOpts.HeterogeneousEquality = e.runtimeOpts.EnableHeterogeneousEquality
	prog, err := planner.Plan(checked, e.plannerOpts)
	if err != nil {
		return nil, err
	}
	return &Program{prog: prog, env: e}, nil
}

// NewActivation builds an Activation from a flat map of Go-native values,
// converting each through the Marshaller (§6.1).
func NewActivation(vars map[string]any) (activation.Activation, error) {
	m := &Marshaller{}
	converted := make(map[string]types.Value, len(vars))
	for name, v := range vars {
		cv, err := m.ToValue(v)
		if err != nil {
			return nil, fmt.Errorf("cel: converting activation variable %q: %w", name, err)
		}
		converted[name] = cv
	}
	return activation.New(converted), nil
}

// NewHierarchicalActivation composes a child Activation over a parent,
// child bindings shadowing parent ones — Funxy's
// NewEnclosedEnvironment outer-chain lookup (internal/evaluator/
// environment.go) generalized to immutable Activations.
func NewHierarchicalActivation(parent, child activation.Activation) activation.Activation {
	return activation.NewHierarchical(parent, child)
}

// Program is a planned, not-yet-evaluated expression (§4.8/§6). It is
// immutable and safe to evaluate concurrently from multiple goroutines
// against distinct Activations (§5 Concurrency).
type Program struct {
	prog *planner.Program
	env  *Env
}

// EvalDetails carries optional diagnostic output from one evaluation.
type EvalDetails struct {
	// Trace is the per-step (pc, value) record collected when tracing is
	// enabled for the call, in execution order.
	Trace []TraceEntry
}

// TraceEntry is one step of an EvalDetails.Trace.
type TraceEntry struct {
	PC    int
	Value types.Value
}

// Steps exposes the planned instruction listing for disassembly (e.g.
// cmd/celeval -trace); callers must not mutate the returned slice.
func (p *Program) Steps() []planner.Step {
	return p.prog.Steps
}

// Eval runs the Program to completion against vars using a background
// context and no step tracing (§6).
func (p *Program) Eval(vars activation.Activation) (types.Value, *EvalDetails, error) {
	return p.EvalContext(context.Background(), vars, false)
}

// EvalContext is Eval plus an explicit context (honored by the
// comprehension-iteration cancellation poll, §5 "Cancellation") and an
// opt-in step trace collected into the returned EvalDetails.
func (p *Program) EvalContext(ctx context.Context, vars activation.Activation, collectTrace bool) (types.Value, *EvalDetails, error) {
	alloc := arena.NewHeapAllocator()
	var details *EvalDetails
	trace := p.env.trace
	if collectTrace {
		details = &EvalDetails{}
		userTrace := trace
		trace = func(pc int, v types.Value) error {
			details.Trace = append(details.Trace, TraceEntry{PC: pc, Value: v})
			if userTrace != nil {
				return userTrace(pc, v)
			}
			return nil
		}
	}
	result, err := interpreter.EvalTraced(p.prog, vars, p.env.registry, p.env.provider, p.env.runtimeOpts, alloc, ctx, trace)
	if err != nil {
		return nil, details, err
	}
	return result, details, nil
}
