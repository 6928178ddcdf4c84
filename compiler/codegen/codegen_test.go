package codegen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/compiler/workspace"
)

var registry = blocks.Builtin()

// input wires a node to literal children: connected values come from vals,
// everything else falls back to the slot default.
func input(t *testing.T, n *workspace.Node, vals map[string]ir.Expr, nested map[string][]ir.Instr) Input {
	t.Helper()
	shape, err := registry.Lookup(n.Kind)
	if err != nil {
		shape = blocks.Shape{Kind: n.Kind}
	}
	return Input{
		Node:  n,
		Shape: shape,
		Value: func(slot string) (ir.Expr, error) {
			if e, ok := vals[slot]; ok {
				return e, nil
			}
			decl, _ := shape.Value(slot)
			return DefaultExpr(decl), nil
		},
		Statements: func(slot string) ([]ir.Instr, error) {
			return nested[slot], nil
		},
	}
}

func TestGenerate_GetDropsBody(t *testing.T) {
	n := &workspace.Node{ID: "r", Kind: blocks.KindHTTPRequest, Fields: map[string]string{blocks.FieldMethod: "GET"}}
	out, err := Generate(input(t, n, map[string]ir.Expr{blocks.SlotBody: ir.Str{Value: `{"x":1}`}}, nil))
	require.NoError(t, err)
	require.Len(t, out, 1)
	req := out[0].(*ir.Request)
	assert.Nil(t, req.Body)
	assert.Equal(t, ir.Str{Value: ""}, req.URL)
	assert.Equal(t, ir.Str{Value: "{}"}, req.Headers)
}

func TestGenerate_PostKeepsBodyAndAssertions(t *testing.T) {
	n := &workspace.Node{ID: "r", Kind: blocks.KindHTTPRequest, Fields: map[string]string{blocks.FieldMethod: "POST"}}
	nested := []ir.Instr{&ir.AssertStatus{BlockID: "s", Expected: 201}}
	out, err := Generate(input(t, n,
		map[string]ir.Expr{blocks.SlotBody: ir.Str{Value: `{"x":1}`}},
		map[string][]ir.Instr{blocks.SlotAssertions: nested}))
	require.NoError(t, err)
	req := out[0].(*ir.Request)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, ir.Str{Value: `{"x":1}`}, req.Body)
	assert.Equal(t, nested, req.Assertions)
}

func TestGenerate_MethodDefaultsToGet(t *testing.T) {
	n := &workspace.Node{ID: "r", Kind: blocks.KindHTTPRequest}
	out, err := Generate(input(t, n, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "GET", out[0].(*ir.Request).Method)
}

func TestGenerate_StatusField(t *testing.T) {
	n := &workspace.Node{ID: "s", Kind: blocks.KindAssertStatus, Fields: map[string]string{blocks.FieldStatus: "404"}}
	out, err := Generate(input(t, n, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, &ir.AssertStatus{BlockID: "s", Expected: 404}, out[0])

	n.Fields[blocks.FieldStatus] = "302"
	_, err = Generate(input(t, n, nil, nil))
	assert.True(t, errors.Is(err, ErrInvalidField))
}

func TestGenerate_Auth(t *testing.T) {
	n := &workspace.Node{ID: "a", Kind: blocks.KindAuthRequest, Fields: map[string]string{blocks.FieldAuthType: "BASIC"}}
	out, err := Generate(input(t, n, map[string]ir.Expr{blocks.SlotToken: ir.Str{Value: "u"}}, nil))
	require.NoError(t, err)
	assert.Equal(t, &ir.Auth{BlockID: "a", Scheme: "BASIC", Token: ir.Str{Value: "u"}, Secret: ir.Str{}}, out[0])
}

func TestGenerate_WaitDefault(t *testing.T) {
	n := &workspace.Node{ID: "w", Kind: blocks.KindWait}
	out, err := Generate(input(t, n, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, &ir.Wait{BlockID: "w", Seconds: ir.Num{Value: 1}}, out[0])
}

func TestGenerate_RejectsExpressionAndUnknown(t *testing.T) {
	_, err := Generate(input(t, &workspace.Node{ID: "t", Kind: blocks.KindText}, nil, nil))
	assert.True(t, errors.Is(err, ErrNotAStatement))

	_, err = Generate(input(t, &workspace.Node{ID: "x", Kind: "soap_call"}, nil, nil))
	assert.True(t, errors.Is(err, blocks.ErrUnknownBlockType))
}

func TestExpression_Literals(t *testing.T) {
	e, err := Expression(input(t, &workspace.Node{Kind: blocks.KindNumber, Fields: map[string]string{blocks.FieldNum: "2.5"}}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, ir.Num{Value: 2.5}, e)

	e, err = Expression(input(t, &workspace.Node{Kind: blocks.KindBoolean, Fields: map[string]string{blocks.FieldBool: "FALSE"}}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, ir.Bool{Value: false}, e)

	e, err = Expression(input(t, &workspace.Node{Kind: blocks.KindText}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, ir.Str{}, e)

	_, err = Expression(input(t, &workspace.Node{Kind: blocks.KindNumber, Fields: map[string]string{blocks.FieldNum: "x"}}, nil, nil))
	assert.True(t, errors.Is(err, ErrInvalidField))

	_, err = Expression(input(t, &workspace.Node{Kind: blocks.KindLog}, nil, nil))
	assert.True(t, errors.Is(err, ErrNotAnExpression))
}

func TestExpression_TextJoin(t *testing.T) {
	// itemCount wins over connected slots; gaps use the empty default.
	n := &workspace.Node{
		Kind:   blocks.KindTextJoin,
		Extra:  map[string]any{"itemCount": float64(3)},
		Values: map[string]*workspace.Node{"ADD0": {}, "ADD2": {}},
	}
	e, err := Expression(input(t, n, map[string]ir.Expr{"ADD0": ir.Str{Value: "a"}, "ADD2": ir.Num{Value: 7}}, nil))
	require.NoError(t, err)
	assert.Equal(t, ir.Concat{Parts: []ir.Expr{ir.Str{Value: "a"}, ir.Str{}, ir.Num{Value: 7}}}, e)
	assert.Equal(t, "a7", ir.EvalString(e))

	// Without itemCount the highest connected slot decides.
	n.Extra = nil
	e, err = Expression(input(t, n, map[string]ir.Expr{"ADD0": ir.Str{Value: "a"}, "ADD2": ir.Num{Value: 7}}, nil))
	require.NoError(t, err)
	assert.Len(t, e.(ir.Concat).Parts, 3)

	empty, err := Expression(input(t, &workspace.Node{Kind: blocks.KindTextJoin}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, ir.Str{}, empty)
}

func TestExpression_TextJoinIgnoresOutOfRangeCounts(t *testing.T) {
	t.Parallel()
	for _, raw := range []any{1e19, float64(1e9), float64(-1), 2.5, "3"} {
		n := &workspace.Node{
			Kind:   blocks.KindTextJoin,
			Extra:  map[string]any{"itemCount": raw},
			Values: map[string]*workspace.Node{"ADD1": {}, "ADD5000": {}},
		}
		e, err := Expression(input(t, n, map[string]ir.Expr{"ADD1": ir.Str{Value: "b"}}, nil))
		require.NoError(t, err)
		assert.Len(t, e.(ir.Concat).Parts, 2, "itemCount %v", raw)
	}
}
