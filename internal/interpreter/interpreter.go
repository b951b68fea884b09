// Package interpreter is the stack-based evaluator of spec §4/§5: it walks
// a planner.Program against an Activation, FunctionRegistry, and
// RecordProvider, producing a single Value per evaluation. The
// ExecutionFrame (ip, bounded value stack, parallel attribute-trail stack,
// slot table, iteration counter) and the panic/recover-guarded dispatch
// loop are grounded on Funxy's internal/vm/vm.go step()/execute()
// pair; the periodic context.Done() poll reuses its checkInterval idiom.
package interpreter

import (
	"context"
	"fmt"

	"github.com/cel-lang/celcore/internal/activation"
	"github.com/cel-lang/celcore/internal/arena"
	"github.com/cel-lang/celcore/internal/attribute"
	"github.com/cel-lang/celcore/internal/functions"
	"github.com/cel-lang/celcore/internal/planner"
	"github.com/cel-lang/celcore/internal/recordprovider"
	"github.com/cel-lang/celcore/internal/types"
)

// checkInterval mirrors Funxy's vm.go cancellation poll: a context
// check every N dispatched steps rather than on every single one, so a
// long-running evaluation without a deadline pays no per-step overhead for
// it.
const checkInterval = 1024

const fnIndex = "_[_]"

// abort unwinds the whole recursive exec call stack (including inside
// nested comprehension subprograms) back to Eval in one step, carrying a
// CEL-level Value — budget/deadline exhaustion are fatal in the sense that
// evaluation stops immediately, but per §7 they are still represented as
// an Error *value*, not an out-of-band Go error, so Eval recovers this and
// returns it as a normal result.
type abort struct{ value types.Value }

// traceFailure unwinds the evaluation like abort, but carries the error a
// trace callback returned so Eval can hand it back out-of-band (§7 plane 1).
type traceFailure struct{ err error }

// slot holds one comprehension-variable binding (§3 ExecutionFrame: "the
// slot table, indexed array of Option<Value, AttributeTrail>").
type slot struct {
	value types.Value
	trail attribute.Trail
	set   bool
}

// frame is the ExecutionFrame of spec §3: the parts of an evaluation that
// are immutable references (Activation, FunctionRegistry, RecordProvider,
// RuntimeOptions, Allocator) plus the one piece of cross-subprogram mutable
// state, the slot table and iteration counter, shared by every nested
// Program belonging to one top-level evaluation.
type frame struct {
	act      activation.Activation
	registry *functions.Registry
	provider recordprovider.Provider
	opts     Options
	alloc    *arena.Allocator
	ctx      context.Context
	trace    TraceFunc

	slots      []slot
	iterations uint32
	steps      uint64 // total dispatched steps, for the cancellation poll
}

// Eval runs prog to completion and returns its result Value. A non-nil
// error is a fatal host-level failure (§7 plane 1: implementation bugs,
// trace callback failures) — not IterationLimit/Cancelled, which come back
// as the ordinary result Value per §5 "Cancellation".
func Eval(
	prog *planner.Program,
	act activation.Activation,
	registry *functions.Registry,
	provider recordprovider.Provider,
	opts Options,
	alloc *arena.Allocator,
	ctx context.Context,
) (result types.Value, err error) {
	return EvalTraced(prog, act, registry, provider, opts, alloc, ctx, nil)
}

// EvalTraced is Eval plus an optional per-step trace callback (§6 "Trace
// callback").
func EvalTraced(
	prog *planner.Program,
	act activation.Activation,
	registry *functions.Registry,
	provider recordprovider.Provider,
	opts Options,
	alloc *arena.Allocator,
	ctx context.Context,
	trace TraceFunc,
) (result types.Value, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if alloc == nil {
		alloc = arena.NewHeapAllocator()
	}
	f := &frame{
		act:      act,
		registry: registry,
		provider: provider,
		opts:     opts,
		alloc:    alloc,
		ctx:      ctx,
		trace:    trace,
		slots:    make([]slot, prog.SlotCount),
	}

	defer func() {
		if r := recover(); r != nil {
			if a, ok := r.(abort); ok {
				result, err = a.value, nil
				return
			}
			if tf, ok := r.(traceFailure); ok {
				result, err = nil, fmt.Errorf("interpreter: trace callback: %w", tf.err)
				return
			}
			result, err = nil, fmt.Errorf("interpreter: internal error: %v", r)
		}
	}()

	v, _ := f.exec(prog)
	return v, nil
}

// exec runs one Program's step list against a fresh, program-local value
// stack and parallel attribute-trail stack. The slot table and iteration
// counter on f are shared across every nested invocation belonging to one
// evaluation (§4.9: comprehension slots and the iteration budget are
// evaluation-wide, not per-subprogram).
func (f *frame) exec(prog *planner.Program) (types.Value, attribute.Trail) {
	capHint := prog.MaxStack
	if capHint < 4 {
		capHint = 4
	}
	stack := make([]types.Value, 0, capHint)
	trails := make([]attribute.Trail, 0, capHint)

	push := func(v types.Value, t attribute.Trail) {
		stack = append(stack, v)
		trails = append(trails, t)
	}
	pop := func() (types.Value, attribute.Trail) {
		n := len(stack) - 1
		v, t := stack[n], trails[n]
		stack = stack[:n]
		trails = trails[:n]
		return v, t
	}

	pc := 0
	for pc < len(prog.Steps) {
		stepPC := pc
		step := &prog.Steps[pc]
		jumped := false

		switch step.Kind {
		case planner.StepConst:
			push(step.Const, attribute.Empty())

		case planner.StepLookup:
			v, t := f.lookup(step.Name)
			push(v, t)

		case planner.StepSlotLookup:
			s := f.slots[step.N]
			push(s.value, s.trail)

		case planner.StepSelect:
			operand, trail := pop()
			v, t := f.selectField(operand, trail, step.Name)
			push(v, t)

		case planner.StepHas:
			operand, trail := pop()
			v, t := f.hasField(operand, trail, step.Name)
			push(v, t)

		case planner.StepCall:
			n := step.Arity
			if step.ReceiverStyle {
				n++
			}
			args := make([]types.Value, n)
			argTrails := make([]attribute.Trail, n)
			for i := n - 1; i >= 0; i-- {
				args[i], argTrails[i] = pop()
			}
			v, t := f.call(step, args, argTrails)
			push(v, t)

		case planner.StepCreateList:
			elems := make([]types.Value, step.N)
			for i := step.N - 1; i >= 0; i-- {
				elems[i], _ = pop()
			}
			push(f.createList(elems), attribute.Empty())

		case planner.StepCreateMap:
			flat := make([]types.Value, step.N*2)
			for i := len(flat) - 1; i >= 0; i-- {
				flat[i], _ = pop()
			}
			push(f.createMap(flat), attribute.Empty())

		case planner.StepCreateRecord:
			n := len(step.FieldNames)
			vals := make([]types.Value, n)
			for i := n - 1; i >= 0; i-- {
				vals[i], _ = pop()
			}
			push(f.createRecord(step.TypeName, step.FieldNames, vals), attribute.Empty())

		case planner.StepJump:
			pc = step.Target
			jumped = true

		case planner.StepJumpIfFalseOrError:
			top, _ := pop()
			if b, ok := top.(types.Bool); ok {
				if !bool(b) {
					pc = step.Target
					jumped = true
				}
				// Bool(true): condition consumed, fall through to the
				// then-branch that immediately follows this step.
			} else {
				// error or unknown: leave it as the final value and skip
				// both arms entirely.
				push(top, attribute.Empty())
				pc = step.ErrTarget
				jumped = true
			}

		case planner.StepJumpIfAbsorbing:
			top := stack[len(stack)-1] // peek only, per §4.8
			if b, ok := top.(types.Bool); ok && b == step.Const.(types.Bool) {
				pc = step.Target
				jumped = true
			}

		case planner.StepAnd2:
			right, _ := pop()
			left, _ := pop()
			push(and2(left, right), attribute.Empty())

		case planner.StepOr2:
			right, _ := pop()
			left, _ := pop()
			push(or2(left, right), attribute.Empty())

		case planner.StepComprehension:
			push(f.comprehension(step.Comprehension), attribute.Empty())

		case planner.StepPop:
			pop()

		default:
			panic(abort{types.NewError(types.ErrInternal, "unknown step kind %v", step.Kind)})
		}

		if f.trace != nil && len(stack) > 0 {
			if err := f.trace(stepPC, stack[len(stack)-1]); err != nil {
				panic(traceFailure{err})
			}
		}

		f.steps++
		if f.steps%checkInterval == 0 {
			select {
			case <-f.ctx.Done():
				panic(abort{types.NewError(types.ErrCancelled, "evaluation cancelled: %v", f.ctx.Err())})
			default:
			}
		}

		if !jumped {
			pc++
		}
	}

	if len(stack) == 0 {
		return types.Null{}, attribute.Empty()
	}
	return stack[len(stack)-1], trails[len(trails)-1]
}

// checkPatterns tests trail against the Activation's unknown and missing
// attribute patterns (§4.3/§4.7), returning a replacement Value when one
// matches, or nil when the caller should proceed with its own computed
// value. Unknown is checked first: an attribute that is both "unknown" and
// "missing" surfaces as Unknown, matching Funxy-independent
// intuition that Unknown is the more permissive, non-fatal signal.
func (f *frame) checkPatterns(trail attribute.Trail) types.Value {
	if f.opts.UnknownTracking != UnknownDisabled {
		if _, ok := attribute.MatchesAny(trail, f.act.UnknownPatterns()); ok {
			return types.NewUnknown(trail.String())
		}
	}
	if f.opts.EnableMissingAttributeErrors {
		if _, ok := attribute.MatchesAny(trail, f.act.MissingPatterns()); ok {
			return types.NewError(types.ErrMissing, "missing attribute: %s", trail.String())
		}
	}
	return nil
}

func (f *frame) lookup(name string) (types.Value, attribute.Trail) {
	trail := attribute.Root(name)
	if v := f.checkPatterns(trail); v != nil {
		return v, trail
	}
	if v, ok := f.act.Find(name); ok {
		return v, trail
	}
	if thunk, ok := f.act.FindLazy(name); ok {
		v, err := thunk()
		if err != nil {
			return types.NewError(types.ErrInternal, "%v", err), trail
		}
		return v, trail
	}
	return types.NewError(types.ErrNoSuchAttribute, "no such attribute: %s", name), trail
}

func (f *frame) selectField(operand types.Value, trail attribute.Trail, field string) (types.Value, attribute.Trail) {
	newTrail := trail.Extend(attribute.StringQualifier(field))
	if types.IsError(operand) || types.IsUnknown(operand) {
		return operand, newTrail
	}
	if v := f.checkPatterns(newTrail); v != nil {
		return v, newTrail
	}
	rec, ok := operand.(*types.Record)
	if !ok {
		return types.NewError(types.ErrNoSuchField, "cannot select field %q from %s", field, operand.Type()), newTrail
	}
	v, ok := rec.GetField(field)
	if !ok {
		return types.NewError(types.ErrNoSuchField, "no such field: %s", field), newTrail
	}
	return v, newTrail
}

func (f *frame) hasField(operand types.Value, trail attribute.Trail, field string) (types.Value, attribute.Trail) {
	newTrail := trail.Extend(attribute.StringQualifier(field))
	if types.IsError(operand) || types.IsUnknown(operand) {
		return operand, newTrail
	}
	rec, ok := operand.(*types.Record)
	if !ok {
		return types.NewError(types.ErrNoSuchField, "cannot test field %q on %s", field, operand.Type()), newTrail
	}
	return types.Bool(rec.HasField(field)), newTrail
}

// propagateN folds Propagate2 across an ordered argument list, matching
// the binary table of §4.6 generalized to N arguments: any unknown wins
// over errors, with all unknowns merged into one union; absent any
// unknown, the first error encountered (left to right) wins.
func propagateN(args []types.Value) (types.Value, bool) {
	if len(args) == 0 {
		return nil, false
	}
	acc := args[0]
	handled := false
	for _, next := range args[1:] {
		// Once acc itself is an error/unknown, every further Propagate2
		// call also reports handled=true (acc alone decides it), so this
		// single call both detects a fresh error/unknown in next and
		// keeps folding one already found in acc (e.g. unioning a later
		// unknown into an accumulated one).
		if v, ok := types.Propagate2(acc, next); ok {
			acc = v
			handled = true
		}
	}
	if handled {
		return acc, true
	}
	return nil, false
}

func (f *frame) call(step *planner.Step, args []types.Value, argTrails []attribute.Trail) (types.Value, attribute.Trail) {
	if result, handled := propagateN(args); handled {
		return result, attribute.Empty()
	}

	isIndex := step.Function == fnIndex && !step.ReceiverStyle && len(args) == 2
	if isIndex {
		trail := indexTrail(argTrails[0], args[1])
		if v := f.checkPatterns(trail); v != nil {
			return v, trail
		}
	}

	ctx := functions.CallContext{Pool: f.provider, Arena: f.alloc, HeterogeneousEquality: f.opts.EnableHeterogeneousEquality}
	var result types.Value
	if step.Overload != "" {
		if v, ok := f.registry.InvokeByID(step.Overload, args, ctx); ok {
			result = v
		} else {
			result = f.registry.Invoke(step.Function, args, step.ReceiverStyle, ctx)
		}
	} else {
		result = f.registry.Invoke(step.Function, args, step.ReceiverStyle, ctx)
	}

	if isIndex && !types.IsError(result) && !types.IsUnknown(result) {
		return result, indexTrail(argTrails[0], args[1])
	}
	return result, attribute.Empty()
}

// indexTrail extends collTrail with the qualifier a `_[_]` index argument
// contributes (§4.7: "extended by select/index steps"); a key kind with no
// qualifier representation (e.g. a Double or composite key) yields the
// collection's trail unextended rather than inventing a lossy qualifier.
func indexTrail(collTrail attribute.Trail, key types.Value) attribute.Trail {
	switch k := key.(type) {
	case types.Str:
		return collTrail.Extend(attribute.StringQualifier(k.String()))
	case types.Int:
		return collTrail.Extend(attribute.IntQualifier(int64(k)))
	case types.Uint:
		return collTrail.Extend(attribute.UintQualifier(uint64(k)))
	case types.Bool:
		return collTrail.Extend(attribute.BoolQualifier(bool(k)))
	default:
		return collTrail
	}
}

func (f *frame) createList(elems []types.Value) types.Value {
	if result, handled := propagateN(elems); handled {
		return result
	}
	return types.NewList(elems)
}

func (f *frame) createMap(flat []types.Value) types.Value {
	if result, handled := propagateN(flat); handled {
		return result
	}
	m := types.NewMap(f.opts.EnableHeterogeneousEquality)
	for i := 0; i < len(flat); i += 2 {
		m = m.Put(flat[i], flat[i+1])
	}
	return m
}

func (f *frame) createRecord(typeName string, fieldNames []string, vals []types.Value) types.Value {
	if result, handled := propagateN(vals); handled {
		return result
	}
	if f.provider == nil {
		return types.NewError(types.ErrInternal, "no RecordProvider configured for type %s", typeName)
	}
	b, err := f.provider.NewBuilder(typeName)
	if err != nil {
		return recordBuildError(typeName, err)
	}
	for i, name := range fieldNames {
		if err := b.SetField(name, vals[i]); err != nil {
			return recordBuildError(typeName, err)
		}
	}
	rec, err := b.Build()
	if err != nil {
		return recordBuildError(typeName, err)
	}
	return rec
}

func recordBuildError(typeName string, err error) *types.ErrorVal {
	switch err.(type) {
	case *recordprovider.ErrFieldNotFound:
		return types.NewError(types.ErrNoSuchField, "%s: %v", typeName, err)
	case *recordprovider.ErrInvalidFieldType:
		return types.NewError(types.ErrInvalidArgument, "%s: %v", typeName, err)
	case *recordprovider.ErrUnknownType:
		return types.NewError(types.ErrTypeConversion, "%s: %v", typeName, err)
	default:
		return types.NewError(types.ErrInternal, "%s: %v", typeName, err)
	}
}

// and2 implements the commutative short-circuit AND of §4.6: False is
// absorbing regardless of which side carries an error/unknown; otherwise
// an unknown (the union, if both sides are unknown) wins over an error,
// an error (the left one, if both are errors) wins over a value, and
// otherwise plain Bool(true) is the result.
func and2(left, right types.Value) types.Value {
	if b, ok := left.(types.Bool); ok && !bool(b) {
		return types.Bool(false)
	}
	if b, ok := right.(types.Bool); ok && !bool(b) {
		return types.Bool(false)
	}
	if v, ok := types.Propagate2(left, right); ok {
		return v
	}
	return types.Bool(true)
}

// or2 is and2's dual: True is absorbing.
func or2(left, right types.Value) types.Value {
	if b, ok := left.(types.Bool); ok && bool(b) {
		return types.Bool(true)
	}
	if b, ok := right.(types.Bool); ok && bool(b) {
		return types.Bool(true)
	}
	if v, ok := types.Propagate2(left, right); ok {
		return v
	}
	return types.Bool(false)
}

// comprehension runs the five-subexpression state machine of §4.9.
func (f *frame) comprehension(c *planner.Comprehension) types.Value {
	rangeVal, rangeTrail := f.exec(c.Range)
	if types.IsError(rangeVal) || types.IsUnknown(rangeVal) {
		return rangeVal
	}

	length, elemAt, ok := iterableOver(rangeVal, rangeTrail)
	if !ok {
		return types.NewError(types.ErrNoSuchOverload, "<iter-range>: %s is not iterable", rangeVal.Type())
	}

	accuInit, _ := f.exec(c.AccuInit)
	if types.IsError(accuInit) || types.IsUnknown(accuInit) {
		return accuInit
	}
	f.slots[c.AccuSlot] = slot{value: accuInit, set: true}

	for i := 0; i < length; i++ {
		if f.opts.ComprehensionMaxIterations != 0 && f.iterations >= f.opts.ComprehensionMaxIterations {
			f.clearComprehensionSlots(c)
			panic(abort{types.NewError(types.ErrIterationLimit, "comprehension exceeded %d iterations", f.opts.ComprehensionMaxIterations)})
		}

		elemVal, elemTrail := elemAt(i)
		f.slots[c.IterSlot] = slot{value: elemVal, trail: elemTrail, set: true}

		condVal, _ := f.exec(c.LoopCondition)
		if types.IsError(condVal) || types.IsUnknown(condVal) {
			f.clearComprehensionSlots(c)
			return condVal
		}
		condBool, ok := condVal.(types.Bool)
		if !ok {
			f.clearComprehensionSlots(c)
			return types.NewError(types.ErrInvalidArgument, "comprehension loop condition must be bool, got %s", condVal.Type())
		}
		if !bool(condBool) && f.opts.EnableShortCircuiting {
			break
		}

		stepVal, _ := f.exec(c.LoopStep)
		f.slots[c.AccuSlot] = slot{value: stepVal, set: true}
		f.iterations++
	}

	result, _ := f.exec(c.Result)
	f.clearComprehensionSlots(c)
	return result
}

func (f *frame) clearComprehensionSlots(c *planner.Comprehension) {
	f.slots[c.IterSlot] = slot{}
	f.slots[c.AccuSlot] = slot{}
}

// iterableOver returns the element count and an accessor for ranging over
// v (§4.9: "must evaluate to a List or Map"). The map form iterates keys
// in insertion order and exposes the key as the iteration variable; each
// element's trail extends rangeTrail with an index/key qualifier (§4.9:
// "read next element of range into iterSlot (index attr-trail)").
func iterableOver(v types.Value, rangeTrail attribute.Trail) (int, func(i int) (types.Value, attribute.Trail), bool) {
	switch rv := v.(type) {
	case *types.List:
		return rv.Len(), func(i int) (types.Value, attribute.Trail) {
			elem, _ := rv.Get(i)
			return elem, indexTrail(rangeTrail, types.Int(i))
		}, true
	case *types.Map:
		keys := rv.Keys()
		return len(keys), func(i int) (types.Value, attribute.Trail) {
			k := keys[i]
			return k, indexTrail(rangeTrail, k)
		}, true
	default:
		return 0, nil, false
	}
}
