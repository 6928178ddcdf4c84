// Package blocksem checks a decoded workspace against the block registry
// before any code is generated.
package blocksem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/workspace"
)

const (
	CodeUnknownBlockType = "UNKNOWN_BLOCK_TYPE"
	CodeUnknownSlot      = "UNKNOWN_SLOT"
	CodeInvalidField     = "INVALID_FIELD"
	CodeNotAnExpression  = "NOT_AN_EXPRESSION"
	CodeNotAStatement    = "NOT_A_STATEMENT"
)

type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
	BlockID  string `json:"blockId,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Path     string `json:"path"`
	Severity string `json:"severity"`
}

// Validate walks every enabled block of p. Disabled blocks are skipped along
// with everything nested in them, the same way the assembler skips them.
func Validate(reg *blocks.Registry, p *workspace.Program) []Issue {
	if reg == nil {
		reg = blocks.Builtin()
	}
	v := &validator{reg: reg}
	for i, root := range p.Roots {
		v.chain(root, "stack["+strconv.Itoa(i)+"]")
	}
	return v.out
}

type validator struct {
	reg *blocks.Registry
	out []Issue
}

func (v *validator) chain(head *workspace.Node, path string) {
	for i, n := range head.Chain() {
		if n.Disabled {
			continue
		}
		at := path + "/" + strconv.Itoa(i)
		shape, ok := v.lookup(n, at)
		if !ok {
			continue
		}
		if shape.Role != blocks.RoleStatement {
			v.add(n, at, CodeNotAStatement,
				"block '"+string(n.Kind)+"' produces a value and cannot run as a step",
				"plug it into a value slot such as URL or MESSAGE")
			continue
		}
		v.node(n, shape, at)
	}
}

func (v *validator) expression(n *workspace.Node, path string) {
	shape, ok := v.lookup(n, path)
	if !ok {
		return
	}
	if shape.Role != blocks.RoleExpression {
		v.add(n, path, CodeNotAnExpression,
			"block '"+string(n.Kind)+"' is a step and cannot fill a value slot",
			"use text, math_number, logic_boolean or text_join")
		return
	}
	v.node(n, shape, path)
}

func (v *validator) node(n *workspace.Node, shape blocks.Shape, path string) {
	for _, name := range sortedKeys(n.Fields) {
		field, ok := shape.Field(name)
		if !ok {
			v.add(n, path, CodeUnknownSlot,
				string(n.Kind)+" has no field '"+name+"'", fieldHint(shape))
			continue
		}
		value := n.Fields[name]
		if !field.Allows(value) {
			v.add(n, path, CodeInvalidField,
				string(n.Kind)+" field "+name+" has invalid value '"+value+"'",
				"one of: "+strings.Join(field.Options, ", "))
			continue
		}
		if n.Kind == blocks.KindNumber && name == blocks.FieldNum {
			if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
				v.add(n, path, CodeInvalidField,
					"math_number field NUM is not a number: '"+value+"'", "NUM: 1.5")
			}
		}
	}
	if shape.VariadicPrefix != "" {
		v.variadic(n, shape, path)
	}
	for _, name := range sortedKeys(n.Values) {
		if _, ok := shape.Value(name); !ok {
			v.add(n, path, CodeUnknownSlot,
				string(n.Kind)+" has no value slot '"+name+"'", valueHint(shape))
			continue
		}
		if child := n.Values[name]; child != nil {
			v.expression(child, path+"."+name)
		}
	}
	for _, name := range sortedKeys(n.Statements) {
		if !shape.HasStatement(name) {
			v.add(n, path, CodeUnknownSlot,
				string(n.Kind)+" has no statement slot '"+name+"'", "only http_request accepts ASSERTIONS")
			continue
		}
		if head := n.Statements[name]; head != nil {
			v.chain(head, path+"."+name)
		}
	}
}

// variadic bounds the declared item count and every connected item index.
func (v *validator) variadic(n *workspace.Node, shape blocks.Shape, path string) {
	limit := strconv.Itoa(blocks.MaxJoinItems)
	if raw, ok := n.Extra["itemCount"]; ok {
		if _, ok := blocks.ItemCount(raw); !ok {
			v.add(n, path, CodeInvalidField,
				fmt.Sprintf("%s itemCount %v is not a whole number between 0 and %s", n.Kind, raw, limit),
				"itemCount: 2")
		}
	}
	for _, name := range sortedKeys(n.Values) {
		if i, ok := blocks.SlotIndex(shape.VariadicPrefix, name); ok && i >= blocks.MaxJoinItems {
			v.add(n, path, CodeInvalidField,
				string(n.Kind)+" input "+name+" is beyond the "+limit+" item limit",
				shape.VariadicPrefix+"0.."+shape.VariadicPrefix+strconv.Itoa(blocks.MaxJoinItems-1))
		}
	}
}

func (v *validator) lookup(n *workspace.Node, path string) (blocks.Shape, bool) {
	shape, err := v.reg.Lookup(n.Kind)
	if err != nil {
		v.add(n, path, CodeUnknownBlockType,
			"unknown block type '"+string(n.Kind)+"'", "known types: "+kindList(v.reg))
		return blocks.Shape{}, false
	}
	return shape, true
}

func (v *validator) add(n *workspace.Node, path, code, message, hint string) {
	v.out = append(v.out, Issue{
		Code:     code,
		Message:  message,
		Hint:     hint,
		BlockID:  n.ID,
		Kind:     string(n.Kind),
		Path:     path,
		Severity: "error",
	})
}

func kindList(reg *blocks.Registry) string {
	kinds := reg.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func fieldHint(shape blocks.Shape) string {
	if len(shape.Fields) == 0 {
		return string(shape.Kind) + " has no fields"
	}
	names := make([]string, len(shape.Fields))
	for i, f := range shape.Fields {
		names[i] = f.Name
	}
	return "fields: " + strings.Join(names, ", ")
}

func valueHint(shape blocks.Shape) string {
	names := make([]string, 0, len(shape.Values)+1)
	for _, s := range shape.Values {
		names = append(names, s.Name)
	}
	if shape.VariadicPrefix != "" {
		names = append(names, shape.VariadicPrefix+"0.."+shape.VariadicPrefix+"n")
	}
	if len(names) == 0 {
		return string(shape.Kind) + " has no value slots"
	}
	return "value slots: " + strings.Join(names, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
