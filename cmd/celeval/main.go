// Command celeval plans and evaluates a checked CEL expression against an
// activation, the way Funxy's cmd/funxy drives evaluator.Evaluator
// end to end — except there is no lexer/parser/analyzer pipeline here
// (source-text parsing is out of scope, §6's "Inbound AST" contract), so
// celeval reads the checked AST directly from a JSON/YAML file rather than
// CEL surface syntax.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cel-lang/celcore/internal/planner"
	"github.com/cel-lang/celcore/internal/types"
	"github.com/cel-lang/celcore/pkg/cel"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

func main() {
	exprPath := flag.String("expr", "", "path to a JSON/YAML-encoded checked expression (required)")
	varsPath := flag.String("vars", "", "path to a JSON/YAML-encoded activation (variable bindings); omitted means no variables")
	trace := flag.Bool("trace", false, "print the planned instruction listing and a per-step execution trace")
	flag.Parse()

	if *exprPath == "" {
		fmt.Fprintln(os.Stderr, "celeval: -expr is required")
		flag.Usage()
		os.Exit(2)
	}

	runID := uuid.New()
	if err := run(*exprPath, *varsPath, *trace, runID); err != nil {
		fmt.Fprintf(os.Stderr, "celeval[%s]: %v\n", runID, err)
		os.Exit(1)
	}
}

func run(exprPath, varsPath string, trace bool, runID uuid.UUID) error {
	root, err := loadExpr(exprPath)
	if err != nil {
		return fmt.Errorf("loading expression: %w", err)
	}
	checked, err := buildAST(root)
	if err != nil {
		return fmt.Errorf("building AST: %w", err)
	}

	vars, err := loadVars(varsPath)
	if err != nil {
		return fmt.Errorf("loading activation: %w", err)
	}

	env, err := cel.NewEnv()
	if err != nil {
		return fmt.Errorf("constructing environment: %w", err)
	}
	prog, err := env.Plan(checked)
	if err != nil {
		return fmt.Errorf("planning: %w", err)
	}

	if trace {
		fmt.Printf("== run %s ==\n", runID)
		printListing(prog)
	}

	act, err := cel.NewActivation(vars)
	if err != nil {
		return fmt.Errorf("building activation: %w", err)
	}

	result, details, err := prog.EvalContext(nil, act, trace) //nolint:staticcheck // nil ctx defaults to Background
	if err != nil {
		return fmt.Errorf("evaluating: %w", err)
	}
	if trace && details != nil {
		printTrace(details)
	}

	printResult(result)
	return nil
}

func loadExpr(path string) (*exprNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var n exprNode
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func loadVars(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// printListing prints the planned Program's Steps in Funxy's
// disasm.go %04d-offset convention, grounded on internal/vm/disasm.go.
func printListing(prog *cel.Program) {
	steps := prog.Steps()
	fmt.Println("-- instructions --")
	for i, step := range steps {
		fmt.Printf("%04d %s\n", i, describeStep(i, step))
	}
}

func describeStep(offset int, step planner.Step) string {
	name := planner.StepNames[step.Kind]
	switch step.Kind {
	case planner.StepConst:
		return fmt.Sprintf("%-24s %s", name, step.Const.DebugString())
	case planner.StepLookup, planner.StepSelect, planner.StepHas:
		return fmt.Sprintf("%-24s %s", name, step.Name)
	case planner.StepSlotLookup:
		return fmt.Sprintf("%-24s slot %d", name, step.N)
	case planner.StepCall:
		return fmt.Sprintf("%-24s %s/%d", name, step.Function, step.Arity)
	case planner.StepCreateList, planner.StepCreateMap:
		return fmt.Sprintf("%-24s count %d", name, step.N)
	case planner.StepCreateRecord:
		return fmt.Sprintf("%-24s %s", name, step.TypeName)
	case planner.StepJump:
		return fmt.Sprintf("%-24s -> %04d", name, step.Target)
	case planner.StepJumpIfFalseOrError:
		return fmt.Sprintf("%-24s -> %04d (err/unknown -> %04d)", name, step.Target, step.ErrTarget)
	default:
		return name
	}
}

func printTrace(details *cel.EvalDetails) {
	fmt.Println("-- trace --")
	for _, entry := range details.Trace {
		fmt.Printf("%04d %s\n", entry.PC, entry.Value.DebugString())
	}
}

func printResult(v types.Value) {
	if errVal, ok := v.(*types.ErrorVal); ok {
		fmt.Println(colorize(fmt.Sprintf("error: %s: %s", errVal.Code, errVal.Message), red))
		return
	}
	if _, ok := v.(types.Unknown); ok {
		fmt.Println(colorize(v.DebugString(), yellow))
		return
	}
	fmt.Println(colorize(v.DebugString(), green))
}

const (
	red = iota + 1
	green
	yellow
)

// colorize wraps s in an ANSI color code when stdout is a real terminal and
// the user hasn't opted out, grounded on Funxy's detectColorLevel
// (internal/evaluator/builtins_term.go): NO_COLOR convention, TERM=dumb,
// and an isatty check.
func colorize(s string, color int) string {
	if !colorEnabled() {
		return s
	}
	code := "0"
	switch color {
	case red:
		code = "31"
	case green:
		code = "32"
	case yellow:
		code = "33"
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
