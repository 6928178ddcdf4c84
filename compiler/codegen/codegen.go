// Package codegen maps one block to its IR. It never walks chains: child
// expressions and nested statement lists come from the caller.
package codegen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/compiler/workspace"
)

var (
	ErrNotAStatement   = errors.New("block is not a statement")
	ErrNotAnExpression = errors.New("block is not an expression")
	ErrInvalidField    = errors.New("invalid field value")
)

// Input is one block plus accessors for its connected children.
type Input struct {
	Node  *workspace.Node
	Shape blocks.Shape
	// Value returns the expression in a value slot, or the slot default.
	Value func(slot string) (ir.Expr, error)
	// Statements returns the instructions generated for a statement slot.
	Statements func(slot string) ([]ir.Instr, error)
}

// Generate returns the instructions of a statement block.
func Generate(in Input) ([]ir.Instr, error) {
	n := in.Node
	switch n.Kind {
	case blocks.KindHTTPRequest:
		method, err := field(in, blocks.FieldMethod)
		if err != nil {
			return nil, err
		}
		req := &ir.Request{BlockID: n.ID, Method: method}
		if req.URL, err = in.Value(blocks.SlotURL); err != nil {
			return nil, err
		}
		if req.Headers, err = in.Value(blocks.SlotHeaders); err != nil {
			return nil, err
		}
		if method != "GET" && method != "DELETE" {
			if req.Body, err = in.Value(blocks.SlotBody); err != nil {
				return nil, err
			}
		}
		if req.Assertions, err = in.Statements(blocks.SlotAssertions); err != nil {
			return nil, err
		}
		return []ir.Instr{req}, nil

	case blocks.KindAssertStatus:
		raw, err := field(in, blocks.FieldStatus)
		if err != nil {
			return nil, err
		}
		code, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w: STATUS %q", n.ID, ErrInvalidField, raw)
		}
		return []ir.Instr{&ir.AssertStatus{BlockID: n.ID, Expected: code}}, nil

	case blocks.KindAssertContains:
		content, err := in.Value(blocks.SlotContent)
		if err != nil {
			return nil, err
		}
		return []ir.Instr{&ir.AssertContains{BlockID: n.ID, Content: content}}, nil

	case blocks.KindAssertJSONPath:
		key, err := in.Value(blocks.SlotPath)
		if err != nil {
			return nil, err
		}
		value, err := in.Value(blocks.SlotValue)
		if err != nil {
			return nil, err
		}
		return []ir.Instr{&ir.AssertJSONKey{BlockID: n.ID, Key: key, Value: value}}, nil

	case blocks.KindWait:
		seconds, err := in.Value(blocks.SlotDuration)
		if err != nil {
			return nil, err
		}
		return []ir.Instr{&ir.Wait{BlockID: n.ID, Seconds: seconds}}, nil

	case blocks.KindLog:
		msg, err := in.Value(blocks.SlotMessage)
		if err != nil {
			return nil, err
		}
		return []ir.Instr{&ir.Log{BlockID: n.ID, Message: msg}}, nil

	case blocks.KindAuthRequest:
		scheme, err := field(in, blocks.FieldAuthType)
		if err != nil {
			return nil, err
		}
		auth := &ir.Auth{BlockID: n.ID, Scheme: scheme}
		if auth.Token, err = in.Value(blocks.SlotToken); err != nil {
			return nil, err
		}
		if auth.Secret, err = in.Value(blocks.SlotSecret); err != nil {
			return nil, err
		}
		return []ir.Instr{auth}, nil

	case blocks.KindText, blocks.KindNumber, blocks.KindBoolean, blocks.KindTextJoin:
		return nil, fmt.Errorf("block %s (%s): %w", n.ID, n.Kind, ErrNotAStatement)

	default:
		return nil, fmt.Errorf("block %s: %w: %q", n.ID, blocks.ErrUnknownBlockType, string(n.Kind))
	}
}

// Expression returns the value produced by an expression block.
func Expression(in Input) (ir.Expr, error) {
	n := in.Node
	switch n.Kind {
	case blocks.KindText:
		s, err := field(in, blocks.FieldText)
		if err != nil {
			return nil, err
		}
		return ir.Str{Value: s}, nil

	case blocks.KindNumber:
		raw, err := field(in, blocks.FieldNum)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w: NUM %q", n.ID, ErrInvalidField, raw)
		}
		return ir.Num{Value: f}, nil

	case blocks.KindBoolean:
		raw, err := field(in, blocks.FieldBool)
		if err != nil {
			return nil, err
		}
		return ir.Bool{Value: raw == "TRUE"}, nil

	case blocks.KindTextJoin:
		count := joinCount(n)
		if count == 0 {
			return ir.Str{}, nil
		}
		parts := make([]ir.Expr, 0, count)
		for i := 0; i < count; i++ {
			part, err := in.Value(blocks.JoinPrefix + strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return ir.Concat{Parts: parts}, nil

	case blocks.KindHTTPRequest, blocks.KindAssertStatus, blocks.KindAssertContains,
		blocks.KindAssertJSONPath, blocks.KindWait, blocks.KindLog, blocks.KindAuthRequest:
		return nil, fmt.Errorf("block %s (%s): %w", n.ID, n.Kind, ErrNotAnExpression)

	default:
		return nil, fmt.Errorf("block %s: %w: %q", n.ID, blocks.ErrUnknownBlockType, string(n.Kind))
	}
}

// DefaultExpr is the expression used for an unconnected value slot.
func DefaultExpr(slot blocks.ValueSlot) ir.Expr {
	switch v := slot.Default.(type) {
	case float64:
		return ir.Num{Value: v}
	case int:
		return ir.Num{Value: float64(v)}
	case bool:
		return ir.Bool{Value: v}
	case string:
		return ir.Str{Value: v}
	default:
		return ir.Str{}
	}
}

// field returns the field value or its declared default, rejecting values
// outside the declared options.
func field(in Input, name string) (string, error) {
	decl, ok := in.Shape.Field(name)
	if !ok {
		return "", fmt.Errorf("block %s: %s declares no field %s", in.Node.ID, in.Node.Kind, name)
	}
	v, set := in.Node.Field(name)
	if !set {
		return decl.Default, nil
	}
	if !decl.Allows(v) {
		return "", fmt.Errorf("block %s: %w: %s %q", in.Node.ID, ErrInvalidField, name, v)
	}
	return v, nil
}

// joinCount prefers the editor's itemCount and otherwise covers every
// connected ADDn slot. The result never exceeds blocks.MaxJoinItems.
func joinCount(n *workspace.Node) int {
	if raw, ok := n.Extra["itemCount"]; ok {
		if count, ok := blocks.ItemCount(raw); ok {
			return count
		}
	}
	count := 0
	for name := range n.Values {
		if i, ok := blocks.SlotIndex(blocks.JoinPrefix, name); ok && i < blocks.MaxJoinItems && i+1 > count {
			count = i + 1
		}
	}
	return count
}
