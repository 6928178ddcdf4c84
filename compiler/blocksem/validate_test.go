package blocksem

import (
	"testing"

	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/workspace"
)

func text(id, s string) *workspace.Node {
	return &workspace.Node{ID: id, Kind: blocks.KindText, Fields: map[string]string{blocks.FieldText: s}}
}

func hasCode(issues []Issue, code, blockID string) bool {
	for _, it := range issues {
		if it.Code == code && it.BlockID == blockID {
			return true
		}
	}
	return false
}

func TestValidate_CleanProgram(t *testing.T) {
	t.Parallel()
	req := &workspace.Node{
		ID:     "req",
		Kind:   blocks.KindHTTPRequest,
		Fields: map[string]string{blocks.FieldMethod: "GET"},
		Values: map[string]*workspace.Node{blocks.SlotURL: text("u", "https://x")},
		Statements: map[string]*workspace.Node{
			blocks.SlotAssertions: {ID: "st", Kind: blocks.KindAssertStatus, Fields: map[string]string{blocks.FieldStatus: "200"}},
		},
	}
	if issues := Validate(nil, &workspace.Program{Roots: []*workspace.Node{req}}); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidate_UnknownBlockType(t *testing.T) {
	t.Parallel()
	p := &workspace.Program{Roots: []*workspace.Node{{ID: "x", Kind: "graphql_query"}}}
	issues := Validate(nil, p)
	if !hasCode(issues, CodeUnknownBlockType, "x") {
		t.Fatalf("expected UNKNOWN_BLOCK_TYPE, got %+v", issues)
	}
}

func TestValidate_InvalidEnumField(t *testing.T) {
	t.Parallel()
	p := &workspace.Program{Roots: []*workspace.Node{{
		ID:     "st",
		Kind:   blocks.KindAssertStatus,
		Fields: map[string]string{blocks.FieldStatus: "302"},
	}}}
	if !hasCode(Validate(nil, p), CodeInvalidField, "st") {
		t.Fatalf("expected INVALID_FIELD for STATUS 302")
	}
}

func TestValidate_BadNumber(t *testing.T) {
	t.Parallel()
	wait := &workspace.Node{
		ID:   "w",
		Kind: blocks.KindWait,
		Values: map[string]*workspace.Node{
			blocks.SlotDuration: {ID: "n", Kind: blocks.KindNumber, Fields: map[string]string{blocks.FieldNum: "soon"}},
		},
	}
	if !hasCode(Validate(nil, &workspace.Program{Roots: []*workspace.Node{wait}}), CodeInvalidField, "n") {
		t.Fatalf("expected INVALID_FIELD on math_number")
	}
}

func TestValidate_StatementInValueSlot(t *testing.T) {
	t.Parallel()
	log := &workspace.Node{
		ID:     "log",
		Kind:   blocks.KindLog,
		Values: map[string]*workspace.Node{blocks.SlotMessage: {ID: "inner", Kind: blocks.KindWait}},
	}
	if !hasCode(Validate(nil, &workspace.Program{Roots: []*workspace.Node{log}}), CodeNotAnExpression, "inner") {
		t.Fatalf("expected NOT_AN_EXPRESSION")
	}
}

func TestValidate_ExpressionInChain(t *testing.T) {
	t.Parallel()
	p := &workspace.Program{Roots: []*workspace.Node{text("t", "stray")}}
	if !hasCode(Validate(nil, p), CodeNotAStatement, "t") {
		t.Fatalf("expected NOT_A_STATEMENT")
	}
}

func TestValidate_UnknownSlots(t *testing.T) {
	t.Parallel()
	log := &workspace.Node{
		ID:         "log",
		Kind:       blocks.KindLog,
		Fields:     map[string]string{"COLOR": "red"},
		Values:     map[string]*workspace.Node{"URL": text("u", "x")},
		Statements: map[string]*workspace.Node{blocks.SlotAssertions: {ID: "st", Kind: blocks.KindAssertStatus}},
	}
	issues := Validate(nil, &workspace.Program{Roots: []*workspace.Node{log}})
	count := 0
	for _, it := range issues {
		if it.Code == CodeUnknownSlot {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 UNKNOWN_SLOT issues, got %+v", issues)
	}
}

func TestValidate_NestedAssertionsAndDisabled(t *testing.T) {
	t.Parallel()
	bad := &workspace.Node{ID: "bad", Kind: "nope"}
	skipped := &workspace.Node{ID: "off", Kind: "also_nope", Disabled: true}
	req := &workspace.Node{
		ID:         "req",
		Kind:       blocks.KindHTTPRequest,
		Statements: map[string]*workspace.Node{blocks.SlotAssertions: bad},
		Next:       skipped,
	}
	issues := Validate(nil, &workspace.Program{Roots: []*workspace.Node{req}})
	if len(issues) != 1 {
		t.Fatalf("expected exactly one issue, got %+v", issues)
	}
	if issues[0].BlockID != "bad" || issues[0].Path != "stack[0]/0.ASSERTIONS/0" {
		t.Fatalf("unexpected issue %+v", issues[0])
	}
}

func TestValidate_VariadicJoin(t *testing.T) {
	t.Parallel()
	join := &workspace.Node{
		ID:   "j",
		Kind: blocks.KindTextJoin,
		Values: map[string]*workspace.Node{
			"ADD0": text("a", "x"),
			"ADD7": {ID: "n", Kind: blocks.KindNumber, Fields: map[string]string{blocks.FieldNum: "3"}},
			"ADDX": text("b", "y"),
		},
	}
	log := &workspace.Node{ID: "log", Kind: blocks.KindLog, Values: map[string]*workspace.Node{blocks.SlotMessage: join}}
	issues := Validate(nil, &workspace.Program{Roots: []*workspace.Node{log}})
	if len(issues) != 1 || issues[0].Code != CodeUnknownSlot || issues[0].BlockID != "j" {
		t.Fatalf("expected one UNKNOWN_SLOT on ADDX, got %+v", issues)
	}
}

func TestValidate_JoinItemCountOutOfRange(t *testing.T) {
	t.Parallel()
	join := &workspace.Node{ID: "j", Kind: blocks.KindTextJoin, Extra: map[string]any{"itemCount": 1e19}}
	log := &workspace.Node{ID: "log", Kind: blocks.KindLog, Values: map[string]*workspace.Node{blocks.SlotMessage: join}}
	issues := Validate(nil, &workspace.Program{Roots: []*workspace.Node{log}})
	if len(issues) != 1 || issues[0].Code != CodeInvalidField || issues[0].BlockID != "j" {
		t.Fatalf("expected one INVALID_FIELD on j, got %+v", issues)
	}

	join.Extra = map[string]any{"itemCount": float64(2)}
	join.Values = map[string]*workspace.Node{"ADD100": text("far", "x")}
	issues = Validate(nil, &workspace.Program{Roots: []*workspace.Node{log}})
	if len(issues) != 1 || issues[0].Code != CodeInvalidField {
		t.Fatalf("expected one INVALID_FIELD for ADD100, got %+v", issues)
	}
}
