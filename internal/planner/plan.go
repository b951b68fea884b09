package planner

import (
	"fmt"

	"github.com/cel-lang/celcore/internal/ast"
	"github.com/cel-lang/celcore/internal/functions"
	"github.com/cel-lang/celcore/internal/types"
)

// Special function names the checker/parser uses for operators that have
// their own lowering rules (§4.8), following real-world CEL's convention
// of representing logicals and the conditional as ordinary Call nodes with
// reserved names rather than dedicated AST node kinds.
const (
	fnLogicalAnd  = "_&&_"
	fnLogicalOr   = "_||_"
	fnConditional = "_?_:_"
)

// Options configures planning (§6 RuntimeOptions subset relevant to the
// planner; the rest are consumed by the interpreter).
type Options struct {
	// Registry pre-resolves overloads when the checked AST carries enough
	// per-node type info; nil disables pre-resolution (every call resolves
	// at run time).
	Registry *functions.Registry
	// EnableConstantFolding folds pure constant subtrees at plan time
	// (§4.8 "Constant folding (optional)").
	EnableConstantFolding bool
	// EnableShortCircuiting compiles logicals so a decisive (absorbing)
	// left operand skips the right subtree entirely; when false both
	// sides are always evaluated, matching the "run exhaustively" mode
	// named by the enableShortCircuiting RuntimeOption for side-effect
	// test functions.
	EnableShortCircuiting bool
	// HeterogeneousEquality mirrors the enableHeterogeneousEquality
	// RuntimeOption the Program will actually be evaluated under, so that
	// constant-folding an `_==_`/`_!=_` call (tryFold) produces the same
	// result the unfolded call would at run time (§4.8: "folding never
	// changes error/unknown semantics").
	HeterogeneousEquality bool
}

// nameSlot binds a comprehension variable name to its slot index for the
// duration of the subexpressions that can see it (§4.9: loopCondition,
// loopStep, and result see both iterVar and accuVar; range and accuInit do
// not, since they run before either is bound).
type nameSlot struct {
	name string
	slot int
}

type compiler struct {
	checked  *ast.CheckedAST
	opts     Options
	steps    []Step
	depth    int
	maxDepth int
	nextSlot int
	maxSlot  int
	scopes   []nameSlot
}

// resolveScope searches innermost-first so a nested comprehension's
// variable shadows an outer one of the same name.
func (c *compiler) resolveScope(name string) (int, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].name == name {
			return c.scopes[i].slot, true
		}
	}
	return 0, false
}

// Plan lowers a checked AST into an executable Program (§4.8).
func Plan(checked *ast.CheckedAST, opts Options) (*Program, error) {
	c := &compiler{checked: checked, opts: opts}
	if err := c.compile(checked.Root); err != nil {
		return nil, err
	}
	return &Program{Steps: c.steps, SlotCount: c.maxSlot, MaxStack: c.maxDepth}, nil
}

func (c *compiler) emit(s Step) {
	c.steps = append(c.steps, s)
	switch s.Kind {
	case StepCall:
		c.push(-(s.Arity + boolToInt(s.ReceiverStyle)) + 1)
	case StepCreateList, StepCreateMap:
		c.push(-s.N + 1)
	case StepCreateRecord:
		c.push(-len(s.FieldNames) + 1)
	case StepSelect, StepHas:
		c.push(0) // pops operand, pushes result: net zero
	case StepJumpIfAbsorbing:
		c.push(0) // peeks only, never pops
	case StepPop:
		c.push(-1)
	case StepAnd2, StepOr2:
		c.push(-1) // pops two, pushes one
	default:
		c.push(1)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// push tracks net stack-depth delta for MaxStack bookkeeping (§4.2/§5:
// "the value stack has a planner-computed maximum depth").
func (c *compiler) push(delta int) {
	c.depth += delta
	if c.depth > c.maxDepth {
		c.maxDepth = c.depth
	}
}

func (c *compiler) allocSlots(n int) int {
	base := c.nextSlot
	c.nextSlot += n
	if c.nextSlot > c.maxSlot {
		c.maxSlot = c.nextSlot
	}
	return base
}

func (c *compiler) freeSlots(n int) {
	c.nextSlot -= n
}

func (c *compiler) compile(n ast.Node) error {
	if c.opts.EnableConstantFolding {
		if _, isConst := n.(*ast.Const); !isConst {
			if folded, ok := c.tryFold(n); ok {
				c.emit(Step{Kind: StepConst, Const: folded})
				return nil
			}
		}
	}
	switch node := n.(type) {
	case *ast.Const:
		c.emit(Step{Kind: StepConst, Const: node.Value})
		return nil
	case *ast.Ident:
		if slotIdx, ok := c.resolveScope(node.Name); ok {
			c.emit(Step{Kind: StepSlotLookup, N: slotIdx})
			return nil
		}
		c.emit(Step{Kind: StepLookup, Name: node.Name})
		return nil
	case *ast.Select:
		if err := c.compile(node.Operand); err != nil {
			return err
		}
		kind := StepSelect
		if node.TestOnly {
			kind = StepHas
		}
		c.emit(Step{Kind: kind, Name: node.Field})
		return nil
	case *ast.Call:
		return c.compileCall(node)
	case *ast.CreateList:
		for _, e := range node.Elements {
			if err := c.compile(e); err != nil {
				return err
			}
		}
		c.emit(Step{Kind: StepCreateList, N: len(node.Elements)})
		return nil
	case *ast.CreateMap:
		for _, entry := range node.Entries {
			if err := c.compile(entry.Key); err != nil {
				return err
			}
			if err := c.compile(entry.Value); err != nil {
				return err
			}
		}
		c.emit(Step{Kind: StepCreateMap, N: len(node.Entries)})
		return nil
	case *ast.CreateRecord:
		names := make([]string, len(node.Fields))
		for i, f := range node.Fields {
			if err := c.compile(f.Value); err != nil {
				return err
			}
			names[i] = f.Name
		}
		c.emit(Step{Kind: StepCreateRecord, TypeName: node.TypeName, FieldNames: names})
		return nil
	case *ast.Comprehension:
		return c.compileComprehension(node)
	default:
		return fmt.Errorf("planner: unsupported node kind %T", n)
	}
}

func (c *compiler) compileCall(call *ast.Call) error {
	switch call.Function {
	case fnConditional:
		if len(call.Args) != 3 {
			return fmt.Errorf("planner: conditional expects 3 args, got %d", len(call.Args))
		}
		return c.compileConditional(call.Args[0], call.Args[1], call.Args[2])
	case fnLogicalAnd:
		if len(call.Args) != 2 {
			return fmt.Errorf("planner: logical and expects 2 args, got %d", len(call.Args))
		}
		return c.compileLogical(call.Args[0], call.Args[1], StepAnd2)
	case fnLogicalOr:
		if len(call.Args) != 2 {
			return fmt.Errorf("planner: logical or expects 2 args, got %d", len(call.Args))
		}
		return c.compileLogical(call.Args[0], call.Args[1], StepOr2)
	}

	if call.Target != nil {
		if err := c.compile(call.Target); err != nil {
			return err
		}
	}
	for _, a := range call.Args {
		if err := c.compile(a); err != nil {
			return err
		}
	}

	overload := call.Overload
	if overload == "" {
		overload = c.preResolve(call)
	}
	c.emit(Step{
		Kind:          StepCall,
		Function:      call.Function,
		Arity:         len(call.Args),
		Overload:      overload,
		ReceiverStyle: call.Target != nil,
	})
	return nil
}

// preResolve attempts compile-time overload resolution when every argument
// (and, for a receiver call, the target) carries a checker type annotation
// (§4.8: "pre-resolved at plan time when the AST provides enough type
// info, otherwise resolved at run time").
func (c *compiler) preResolve(call *ast.Call) string {
	if c.opts.Registry == nil {
		return ""
	}
	kinds := make([]types.Kind, 0, len(call.Args)+1)
	if call.Target != nil {
		t, ok := c.checked.TypeOf(call.Target.ID())
		if !ok {
			return ""
		}
		kinds = append(kinds, t.Kind())
	}
	for _, a := range call.Args {
		t, ok := c.checked.TypeOf(a.ID())
		if !ok {
			return ""
		}
		kinds = append(kinds, t.Kind())
	}
	ov, errVal := c.opts.Registry.Resolve(call.Function, kinds, call.Target != nil)
	if errVal != nil {
		return ""
	}
	return ov.ID
}

// compileConditional lowers `c ? t : e` (§4.8): `c; jumpIfFalseOrError L1;
// t; jump L2; L1: e; L2:`.
func (c *compiler) compileConditional(cond, then, els ast.Node) error {
	baseDepth := c.depth
	if err := c.compile(cond); err != nil {
		return err
	}
	jumpToElse := len(c.steps)
	c.emit(Step{Kind: StepJumpIfFalseOrError})
	// The condition is consumed on the common (Bool) path; maxDepth has
	// already recorded the conservative high-water mark above, so it is
	// safe to reset the running depth back to baseDepth here.
	c.depth = baseDepth

	if err := c.compile(then); err != nil {
		return err
	}
	jumpToEnd := len(c.steps)
	c.emit(Step{Kind: StepJump})

	c.depth = baseDepth
	elseStart := len(c.steps)
	if err := c.compile(els); err != nil {
		return err
	}
	end := len(c.steps)

	c.steps[jumpToElse].Target = elseStart
	c.steps[jumpToElse].ErrTarget = end
	c.steps[jumpToEnd].Target = end
	return nil
}

// compileLogical lowers `a && b` / `a || b` via the commutative
// short-circuit protocol of §4.6/§4.8. Left is always evaluated first; when
// short-circuiting is enabled and left is the operator's absorbing value
// (False for &&, True for ||) it is the final result and right is never
// evaluated. Otherwise (left is the non-absorbing Bool, an error, or an
// unknown) right must still run — it may itself be absorbing and override
// left — so and2/or2 combines both per the table in §4.6.
func (c *compiler) compileLogical(left, right ast.Node, op StepKind) error {
	if err := c.compile(left); err != nil {
		return err
	}
	if !c.opts.EnableShortCircuiting {
		if err := c.compile(right); err != nil {
			return err
		}
		c.emit(Step{Kind: op})
		return nil
	}

	absorbing := types.Bool(op == StepOr2)
	jumpIdx := len(c.steps)
	c.emit(Step{Kind: StepJumpIfAbsorbing, Const: absorbing})
	if err := c.compile(right); err != nil {
		return err
	}
	c.emit(Step{Kind: op})
	c.steps[jumpIdx].Target = len(c.steps)
	return nil
}

// compileComprehension lowers the five-subexpression fold of §4.9,
// allocating two fresh slots for the duration of this comprehension and
// reclaiming them afterward so sibling (non-overlapping) comprehensions
// can reuse the same slot numbers.
func (c *compiler) compileComprehension(node *ast.Comprehension) error {
	iterSlot := c.allocSlots(1)
	accuSlot := c.allocSlots(1)
	defer c.freeSlots(2)

	// Range and accuInit run before either variable is bound, so they
	// compile in the outer scope.
	rangeProg, err := c.subCompile(node.Range)
	if err != nil {
		return err
	}
	accuInitProg, err := c.subCompile(node.AccuInit)
	if err != nil {
		return err
	}

	savedScopes := c.scopes
	c.scopes = append(append([]nameSlot(nil), savedScopes...),
		nameSlot{name: node.IterVar, slot: iterSlot},
		nameSlot{name: node.AccuVar, slot: accuSlot})

	loopCondProg, err := c.subCompile(node.LoopCondition)
	if err != nil {
		c.scopes = savedScopes
		return err
	}
	loopStepProg, err := c.subCompile(node.LoopStep)
	if err != nil {
		c.scopes = savedScopes
		return err
	}
	resultProg, err := c.subCompile(node.Result)
	c.scopes = savedScopes
	if err != nil {
		return err
	}

	c.emit(Step{Kind: StepComprehension, Comprehension: &Comprehension{
		IterVar:       node.IterVar,
		AccuVar:       node.AccuVar,
		IterSlot:      iterSlot,
		AccuSlot:      accuSlot,
		Range:         rangeProg,
		AccuInit:      accuInitProg,
		LoopCondition: loopCondProg,
		LoopStep:      loopStepProg,
		Result:        resultProg,
	}})
	return nil
}

// subCompile compiles a subexpression into its own nested Program,
// sharing this compiler's slot allocator (so nested comprehensions get
// distinct slots) but tracking stack depth independently, mirroring how
// Funxy compiles each function body into its own Chunk
// (internal/vm/compiler.go) while sharing the enclosing Compiler's scope
// bookkeeping.
func (c *compiler) subCompile(n ast.Node) (*Program, error) {
	sub := &compiler{checked: c.checked, opts: c.opts, nextSlot: c.nextSlot, maxSlot: c.nextSlot, scopes: c.scopes}
	if err := sub.compile(n); err != nil {
		return nil, err
	}
	if sub.maxSlot > c.maxSlot {
		c.maxSlot = sub.maxSlot
	}
	return &Program{Steps: sub.steps, SlotCount: sub.maxSlot, MaxStack: sub.maxDepth}, nil
}

// tryFold implements §4.8's optional constant folding: a subtree whose
// operands are all compile-time constants and whose function call is pure
// may be evaluated at plan time and replaced by a single constant. A fold
// that would itself produce an Error is rejected regardless of where the
// subtree sits, since an unfolded expression can still be skipped by
// short-circuiting while a folded `push const error` cannot (§4.8:
// "Folding never changes error/unknown semantics").
func (c *compiler) tryFold(n ast.Node) (types.Value, bool) {
	switch node := n.(type) {
	case *ast.Const:
		return node.Value, true
	case *ast.CreateList:
		elems := make([]types.Value, len(node.Elements))
		for i, e := range node.Elements {
			v, ok := c.tryFold(e)
			if !ok {
				return nil, false
			}
			elems[i] = v
		}
		return types.NewList(elems), true
	case *ast.CreateMap:
		m := types.NewMap(c.opts.HeterogeneousEquality)
		for _, entry := range node.Entries {
			k, ok := c.tryFold(entry.Key)
			if !ok {
				return nil, false
			}
			v, ok := c.tryFold(entry.Value)
			if !ok {
				return nil, false
			}
			m = m.Put(k, v)
		}
		return m, true
	case *ast.Call:
		if c.opts.Registry == nil || node.Function == fnConditional ||
			node.Function == fnLogicalAnd || node.Function == fnLogicalOr {
			return nil, false
		}
		args := make([]types.Value, 0, len(node.Args)+1)
		kinds := make([]types.Kind, 0, len(node.Args)+1)
		if node.Target != nil {
			v, ok := c.tryFold(node.Target)
			if !ok {
				return nil, false
			}
			args = append(args, v)
			kinds = append(kinds, v.Kind())
		}
		for _, a := range node.Args {
			v, ok := c.tryFold(a)
			if !ok {
				return nil, false
			}
			args = append(args, v)
			kinds = append(kinds, v.Kind())
		}
		result := c.opts.Registry.Invoke(node.Function, args, node.Target != nil, functions.CallContext{
			HeterogeneousEquality: c.opts.HeterogeneousEquality,
		})
		if types.IsError(result) {
			return nil, false
		}
		return result, true
	default:
		return nil, false
	}
}
