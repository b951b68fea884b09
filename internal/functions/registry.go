// Package functions implements the FunctionRegistry of spec §4.4: a
// name+signature -> overload resolution table, append-only until Freeze
// is called and immutable thereafter, generalized from
// Funxy's single-implementation-per-name Builtin table
// (internal/evaluator/builtins_std.go's Builtin{Name, TypeInfo, Fn}
// entries) to true multi-overload arity/kind resolution.
package functions

import (
	"fmt"
	"sync"

	"github.com/cel-lang/celcore/internal/arena"
	"github.com/cel-lang/celcore/internal/types"
)

// ArgSpec describes one formal parameter's expected kind; Any makes this
// parameter position match any argument kind (the Dyn wildcard of §4.4).
type ArgSpec struct {
	Kind types.Kind
	Any  bool
}

func Exact(k types.Kind) ArgSpec { return ArgSpec{Kind: k} }
func Any() ArgSpec               { return ArgSpec{Any: true} }

// CallContext is threaded through every overload invocation per the
// function call ABI of spec §6: "f(args, pool, factory, arena) -> Value".
// Pool and Factory are opaque here (typed as interface{}) to avoid a
// dependency from functions -> recordprovider; the interpreter passes its
// RecordProvider as Pool and leaves Factory nil.
type CallContext struct {
	Pool    interface{}
	Factory interface{}
	Arena   *arena.Allocator
	// HeterogeneousEquality mirrors the enableHeterogeneousEquality
	// RuntimeOption (§6) for overloads whose result depends on it (the
	// standard library's `_==_`/`_!=_`), since the Registry itself is
	// evaluation-independent and frozen before any RuntimeOptions exist.
	HeterogeneousEquality bool
}

// Impl is the concrete implementation callable for one overload.
type Impl func(args []types.Value, ctx CallContext) types.Value

// Overload is one concrete implementation of a named function for a
// specific argument-kind tuple (§4.4).
type Overload struct {
	ID            string
	Args          []ArgSpec
	Result        types.Kind
	ReceiverStyle bool
	Impl          Impl

	order int // registration order, used for specificity/tie-break
}

// Registry holds, keyed by function name, the list of registered
// overloads (§4.4).
type Registry struct {
	mu      sync.Mutex
	byName  map[string][]*Overload
	byID    map[string]*Overload
	frozen  bool
	nextSeq int
}

// NewRegistry returns an empty, mutable Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string][]*Overload), byID: make(map[string]*Overload)}
}

// Register appends ov under name. Registration is append-only and must
// happen before any evaluation runs (§4.4: "Registration is append-only
// and happens before any evaluation runs; the registry is then
// immutable").
func (r *Registry) Register(name string, ov Overload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("functions: cannot register %q: registry is frozen", name)
	}
	ov.order = r.nextSeq
	r.nextSeq++
	stored := &ov
	r.byName[name] = append(r.byName[name], stored)
	if stored.ID != "" {
		r.byID[stored.ID] = stored
	}
	return nil
}

// Freeze marks the registry immutable; safe to call multiple times. Call
// this before handing the Registry to any Evaluator, so concurrent
// evaluators can share it lock-free (§5 Concurrency: "The FunctionRegistry
// ... immutable after setup and shared across threads without locks").
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Resolve implements the §4.4 resolution algorithm: filter by arity and
// receiver style, then by kind compatibility (Dyn matches any kind); if
// several survive, prefer the most specific (exact-match over Dyn-match),
// breaking ties by registration order.
func (r *Registry) Resolve(name string, argKinds []types.Kind, receiverStyle bool) (*Overload, *types.ErrorVal) {
	candidates := r.byName[name]
	var best *Overload
	bestScore := -1
	for _, ov := range candidates {
		if ov.ReceiverStyle != receiverStyle || len(ov.Args) != len(argKinds) {
			continue
		}
		score, ok := matchScore(ov.Args, argKinds)
		if !ok {
			continue
		}
		// candidates is in registration order, so the first overload to
		// reach a given score already has the lowest order among ties;
		// only a strictly higher score displaces it (§4.4 rule 3).
		if score > bestScore {
			best = ov
			bestScore = score
		}
	}
	if best == nil {
		return nil, types.NewError(types.ErrNoSuchOverload, "no matching overload for %s(%s)", name, kindsString(argKinds))
	}
	return best, nil
}

// matchScore returns (number of exact-kind matches, true) if every
// parameter either matches exactly or is satisfied by Dyn; the exact-match
// count is the specificity score used to prefer a narrower overload over
// a Dyn-accepting one (§4.4 rule 3).
func matchScore(specs []ArgSpec, argKinds []types.Kind) (int, bool) {
	score := 0
	for i, spec := range specs {
		if spec.Any {
			continue
		}
		if spec.Kind != argKinds[i] {
			return 0, false
		}
		score++
	}
	return score, true
}

func kindsString(kinds []types.Kind) string {
	s := ""
	for i, k := range kinds {
		if i > 0 {
			s += ", "
		}
		s += k.String()
	}
	return s
}

// Invoke resolves and calls the overload for name given args, returning
// the CEL-level result (which may itself be an Error value produced by
// the overload, e.g. Overflow) or a resolution Error(NoSuchOverload).
func (r *Registry) Invoke(name string, args []types.Value, receiverStyle bool, ctx CallContext) types.Value {
	kinds := make([]types.Kind, len(args))
	for i, a := range args {
		kinds[i] = a.Kind()
	}
	ov, err := r.Resolve(name, kinds, receiverStyle)
	if err != nil {
		return err
	}
	return ov.Impl(args, ctx)
}

// InvokeByID calls the overload previously returned by Resolve/preResolve
// directly by its id, skipping the arity/kind resolution scan — the
// runtime half of the plan-time pre-resolution described in §4.8 ("the
// overload set is pre-resolved at plan time when the AST provides enough
// type info"). Reports false if id is unknown (e.g. a stale Program
// planned against a different Registry).
func (r *Registry) InvokeByID(id string, args []types.Value, ctx CallContext) (types.Value, bool) {
	r.mu.Lock()
	ov, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return ov.Impl(args, ctx), true
}
