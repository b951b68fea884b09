// Package activation implements the name->Value binding lookup of spec
// §4.3, plus unknown/missing attribute pattern sets. The parent-chained
// lookup mirrors Funxy's Environment (internal/evaluator/
// environment.go: NewEnclosedEnvironment, outer-chain Get), generalized
// from a mutable variable scope to an immutable, per-evaluation binding
// source.
package activation

import (
	"sync"

	"github.com/cel-lang/celcore/internal/attribute"
	"github.com/cel-lang/celcore/internal/types"
)

// Thunk is a lazily produced binding (§4.3: findLazy). It is invoked at
// most once per evaluation; its result is cached for the remainder of
// that evaluation by the Activation implementation.
type Thunk func() (types.Value, error)

// Activation is the set of variable bindings supplied to one evaluation.
type Activation interface {
	// Find performs scalar variable lookup, returning (value, true) on a
	// hit or (nil, false) when name is unbound.
	Find(name string) (types.Value, bool)
	// FindLazy returns a thunk for a lazily produced binding, or
	// (nil, false) when name has no lazy binding.
	FindLazy(name string) (Thunk, bool)
	// UnknownPatterns returns the set of patterns marking inputs as
	// unknown.
	UnknownPatterns() []attribute.Pattern
	// MissingPatterns returns the set of patterns marking inputs as
	// forbidden; accessing them produces Error(Missing).
	MissingPatterns() []attribute.Pattern
}

// mapActivation is the common-case Activation backed by a plain map of
// eagerly available values, with an optional parent for hierarchical
// composition (spec's Activation does not mandate chaining, but nested
// scopes — e.g. a request activation layered over a global-config
// activation — are a natural embedding need; grounded on Funxy's
// NewEnclosedEnvironment outer-chain pattern).
type mapActivation struct {
	vars            map[string]types.Value
	lazy            map[string]Thunk
	unknownPatterns []attribute.Pattern
	missingPatterns []attribute.Pattern
	parent          Activation

	mu        sync.Mutex
	lazyCache map[string]types.Value
	lazyErr   map[string]error
}

// New builds an Activation from a flat map of eager bindings.
func New(vars map[string]types.Value) Activation {
	return &mapActivation{vars: vars}
}

// NewWithPatterns builds an Activation with unknown/missing attribute
// patterns in addition to eager bindings (§4.3).
func NewWithPatterns(vars map[string]types.Value, unknown, missing []attribute.Pattern) Activation {
	return &mapActivation{vars: vars, unknownPatterns: unknown, missingPatterns: missing}
}

// NewLazy builds an Activation whose bindings are produced on demand.
func NewLazy(lazy map[string]Thunk) Activation {
	return &mapActivation{lazy: lazy, lazyCache: make(map[string]types.Value), lazyErr: make(map[string]error)}
}

// NewHierarchical returns an Activation that looks up child first, then
// falls back to parent — the outer-chain pattern of
// evaluator.NewEnclosedEnvironment generalized to immutable Activations.
func NewHierarchical(parent, child Activation) Activation {
	return &mapActivation{
		parent:    parent,
		vars:      childVars(child),
		lazy:      childLazy(child),
		lazyCache: make(map[string]types.Value),
		lazyErr:   make(map[string]error),
	}
}

func childVars(a Activation) map[string]types.Value {
	if m, ok := a.(*mapActivation); ok {
		return m.vars
	}
	return nil
}

func childLazy(a Activation) map[string]Thunk {
	if m, ok := a.(*mapActivation); ok {
		return m.lazy
	}
	return nil
}

func (a *mapActivation) Find(name string) (types.Value, bool) {
	if a.vars != nil {
		if v, ok := a.vars[name]; ok {
			return v, true
		}
	}
	if a.parent != nil {
		return a.parent.Find(name)
	}
	return nil, false
}

func (a *mapActivation) FindLazy(name string) (Thunk, bool) {
	if a.lazy == nil {
		if a.parent != nil {
			return a.parent.FindLazy(name)
		}
		return nil, false
	}
	raw, ok := a.lazy[name]
	if !ok {
		if a.parent != nil {
			return a.parent.FindLazy(name)
		}
		return nil, false
	}
	return func() (types.Value, error) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if v, cached := a.lazyCache[name]; cached {
			return v, nil
		}
		if err, cached := a.lazyErr[name]; cached {
			return nil, err
		}
		v, err := raw()
		if err != nil {
			a.lazyErr[name] = err
			return nil, err
		}
		a.lazyCache[name] = v
		return v, nil
	}, true
}

func (a *mapActivation) UnknownPatterns() []attribute.Pattern {
	if a.parent != nil {
		return append(append([]attribute.Pattern(nil), a.parent.UnknownPatterns()...), a.unknownPatterns...)
	}
	return a.unknownPatterns
}

func (a *mapActivation) MissingPatterns() []attribute.Pattern {
	if a.parent != nil {
		return append(append([]attribute.Pattern(nil), a.parent.MissingPatterns()...), a.missingPatterns...)
	}
	return a.missingPatterns
}
