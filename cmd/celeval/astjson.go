package main

import (
	"fmt"

	"github.com/cel-lang/celcore/internal/ast"
	"github.com/cel-lang/celcore/internal/types"
)

// exprNode is the on-disk encoding of one ast.Node, decoded via
// gopkg.in/yaml.v3 (which also accepts plain JSON, a YAML subset). This
// stands in for the checker-produced "Inbound AST" of §6: source-text
// parsing is out of scope for this module, so celeval's -expr file
// carries the checked AST directly rather than CEL surface syntax.
type exprNode struct {
	Kind string `yaml:"kind"`

	// const
	Type  string `yaml:"type,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// ident / select field / call function
	Name string `yaml:"name,omitempty"`

	// select
	Operand  *exprNode `yaml:"operand,omitempty"`
	TestOnly bool      `yaml:"testOnly,omitempty"`

	// call
	Function string      `yaml:"function,omitempty"`
	Target   *exprNode   `yaml:"target,omitempty"`
	Args     []*exprNode `yaml:"args,omitempty"`

	// createList
	Elements []*exprNode `yaml:"elements,omitempty"`

	// createMap
	Entries []mapEntryNode `yaml:"entries,omitempty"`

	// createRecord
	TypeName string           `yaml:"typeName,omitempty"`
	Fields   []fieldEntryNode `yaml:"fields,omitempty"`

	// comprehension
	IterVar       string    `yaml:"iterVar,omitempty"`
	AccuVar       string    `yaml:"accuVar,omitempty"`
	Range         *exprNode `yaml:"range,omitempty"`
	AccuInit      *exprNode `yaml:"accuInit,omitempty"`
	LoopCondition *exprNode `yaml:"loopCondition,omitempty"`
	LoopStep      *exprNode `yaml:"loopStep,omitempty"`
	Result        *exprNode `yaml:"result,omitempty"`
}

type mapEntryNode struct {
	Key   *exprNode `yaml:"key"`
	Value *exprNode `yaml:"value"`
}

type fieldEntryNode struct {
	Name  string    `yaml:"name"`
	Value *exprNode `yaml:"value"`
}

// buildAST converts the decoded exprNode tree into a *ast.CheckedAST,
// assigning each node a fresh NodeID in postorder (children before their
// parent).
func buildAST(root *exprNode) (*ast.CheckedAST, error) {
	var nextID ast.NodeID
	id := func() ast.NodeID {
		nextID++
		return nextID
	}
	n, err := toASTNode(root, id)
	if err != nil {
		return nil, err
	}
	return ast.New(n), nil
}

func toASTNode(n *exprNode, id func() ast.NodeID) (ast.Node, error) {
	if n == nil {
		return nil, fmt.Errorf("celeval: nil expression node")
	}
	switch n.Kind {
	case "const":
		v, err := constValue(n.Type, n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Const{NodeID: id(), Value: v}, nil
	case "ident":
		return &ast.Ident{NodeID: id(), Name: n.Name}, nil
	case "select":
		operand, err := toASTNode(n.Operand, id)
		if err != nil {
			return nil, err
		}
		return &ast.Select{NodeID: id(), Operand: operand, Field: n.Name, TestOnly: n.TestOnly}, nil
	case "call":
		var target ast.Node
		if n.Target != nil {
			t, err := toASTNode(n.Target, id)
			if err != nil {
				return nil, err
			}
			target = t
		}
		args := make([]ast.Node, len(n.Args))
		for i, a := range n.Args {
			arg, err := toASTNode(a, id)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return &ast.Call{NodeID: id(), Function: n.Function, Target: target, Args: args}, nil
	case "createList":
		elems := make([]ast.Node, len(n.Elements))
		for i, e := range n.Elements {
			v, err := toASTNode(e, id)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &ast.CreateList{NodeID: id(), Elements: elems}, nil
	case "createMap":
		entries := make([]ast.MapEntry, len(n.Entries))
		for i, e := range n.Entries {
			k, err := toASTNode(e.Key, id)
			if err != nil {
				return nil, err
			}
			v, err := toASTNode(e.Value, id)
			if err != nil {
				return nil, err
			}
			entries[i] = ast.MapEntry{Key: k, Value: v}
		}
		return &ast.CreateMap{NodeID: id(), Entries: entries}, nil
	case "createRecord":
		fields := make([]ast.FieldEntry, len(n.Fields))
		for i, f := range n.Fields {
			v, err := toASTNode(f.Value, id)
			if err != nil {
				return nil, err
			}
			fields[i] = ast.FieldEntry{Name: f.Name, Value: v}
		}
		return &ast.CreateRecord{NodeID: id(), TypeName: n.TypeName, Fields: fields}, nil
	case "comprehension":
		rangeNode, err := toASTNode(n.Range, id)
		if err != nil {
			return nil, err
		}
		accuInit, err := toASTNode(n.AccuInit, id)
		if err != nil {
			return nil, err
		}
		loopCond, err := toASTNode(n.LoopCondition, id)
		if err != nil {
			return nil, err
		}
		loopStep, err := toASTNode(n.LoopStep, id)
		if err != nil {
			return nil, err
		}
		result, err := toASTNode(n.Result, id)
		if err != nil {
			return nil, err
		}
		return &ast.Comprehension{
			NodeID:        id(),
			IterVar:       n.IterVar,
			Range:         rangeNode,
			AccuVar:       n.AccuVar,
			AccuInit:      accuInit,
			LoopCondition: loopCond,
			LoopStep:      loopStep,
			Result:        result,
		}, nil
	default:
		return nil, fmt.Errorf("celeval: unknown expression node kind %q", n.Kind)
	}
}

func constValue(typ string, raw any) (types.Value, error) {
	switch typ {
	case "null":
		return types.Null{}, nil
	case "bool":
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("celeval: const type bool expects a bool value, got %T", raw)
		}
		return types.Bool(b), nil
	case "int":
		n, err := asInt64(raw)
		if err != nil {
			return nil, err
		}
		return types.Int(n), nil
	case "uint":
		n, err := asInt64(raw)
		if err != nil {
			return nil, err
		}
		return types.Uint(n), nil
	case "double":
		f, ok := raw.(float64)
		if !ok {
			n, err := asInt64(raw)
			if err != nil {
				return nil, fmt.Errorf("celeval: const type double expects a number, got %T", raw)
			}
			f = float64(n)
		}
		return types.Double(f), nil
	case "string":
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("celeval: const type string expects a string value, got %T", raw)
		}
		return types.NewString(s), nil
	case "bytes":
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("celeval: const type bytes expects a string value, got %T", raw)
		}
		return types.NewBytes([]byte(s)), nil
	default:
		return nil, fmt.Errorf("celeval: unknown const type %q", typ)
	}
}

func asInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("celeval: expected an integer, got %T", raw)
	}
}
