package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/apiblocks/compiler/blocks"
)

func TestLoad_EditorSerialization(t *testing.T) {
	t.Parallel()

	p, err := Load(filepath.Join("testdata", "editor.json"))
	require.NoError(t, err)
	assert.Equal(t, "editor", p.Name)
	require.Len(t, p.Roots, 2)

	// Stacks are ordered by position, not by document order.
	assert.Equal(t, "auth", p.Roots[0].ID)
	assert.Equal(t, "late", p.Roots[1].ID)

	chain := p.Roots[0].Chain()
	require.Len(t, chain, 4)
	assert.Equal(t, blocks.KindAuthRequest, chain[0].Kind)
	assert.Equal(t, blocks.KindHTTPRequest, chain[1].Kind)
	assert.True(t, chain[2].Disabled)
	assert.Equal(t, blocks.KindLog, chain[3].Kind)

	req := chain[1]
	require.Contains(t, req.Statements, blocks.SlotAssertions)
	assert.NotContains(t, req.Values, blocks.SlotAssertions)
	assertions := req.Statements[blocks.SlotAssertions].Chain()
	require.Len(t, assertions, 2)
	assert.Equal(t, "st", assertions[0].ID)
	assert.Equal(t, "jp", assertions[1].ID)

	assert.Equal(t, "2", chain[2].Values[blocks.SlotDuration].Fields[blocks.FieldNum])

	join := chain[3].Values[blocks.SlotMessage]
	assert.Equal(t, blocks.KindTextJoin, join.Kind)
	assert.Equal(t, float64(2), join.Extra["itemCount"])
	assert.Equal(t, "1.5", join.Values["ADD1"].Fields[blocks.FieldNum])

	// Shadow blocks stand in for missing real blocks.
	assert.Equal(t, "second stack", p.Roots[1].Values[blocks.SlotMessage].Fields[blocks.FieldText])
}

func TestLoad_YAMLScript(t *testing.T) {
	t.Parallel()

	p, err := Load(filepath.Join("testdata", "smoke.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "smoke", p.Name)
	require.Len(t, p.Roots, 1)

	chain := p.Roots[0].Chain()
	require.Len(t, chain, 4)
	assert.Equal(t, "b1", chain[0].ID)
	assert.Equal(t, "b2", chain[1].ID)

	req := chain[1]
	assert.Equal(t, "POST", req.Fields[blocks.FieldMethod])
	assert.Equal(t, blocks.KindText, req.Values[blocks.SlotURL].Kind)
	assert.Equal(t, "b2.URL", req.Values[blocks.SlotURL].ID)

	nested := req.Statements[blocks.SlotAssertions].Chain()
	require.Len(t, nested, 2)
	assert.Equal(t, "b2.ASSERTIONS.1", nested[0].ID)
	assert.Equal(t, "201", nested[0].Fields[blocks.FieldStatus])

	dur := chain[2].Values[blocks.SlotDuration]
	assert.Equal(t, blocks.KindNumber, dur.Kind)
	assert.Equal(t, "0.5", dur.Fields[blocks.FieldNum])
}

func TestLoad_CUEScript(t *testing.T) {
	t.Parallel()

	p, err := Load(filepath.Join("testdata", "smoke.cue"))
	require.NoError(t, err)
	assert.Equal(t, "smoke-cue", p.Name)

	chain := p.Roots[0].Chain()
	require.Len(t, chain, 2)
	assert.Equal(t, "https://api.example.com/health", chain[0].Values[blocks.SlotURL].Fields[blocks.FieldText])
	assert.Equal(t, "checked", chain[1].Values[blocks.SlotMessage].Fields[blocks.FieldText])
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "script.xml")
	require.NoError(t, os.WriteFile(path, []byte("<xml/>"), 0o644))

	_, err := Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseJSON_PlainNestedExpression(t *testing.T) {
	t.Parallel()

	src := `{"blocks":[{"type":"log_message","values":{"MESSAGE":{"type":"text_join","values":{"ADD0":"a","ADD1":2}}}}]}`
	p, err := NewDecoder(nil).ParseJSON([]byte(src))
	require.NoError(t, err)

	msg := p.Roots[0].Values[blocks.SlotMessage]
	assert.Equal(t, blocks.KindTextJoin, msg.Kind)
	assert.Equal(t, "b1.MESSAGE.ADD1", msg.Values["ADD1"].ID)
	assert.Equal(t, blocks.KindNumber, msg.Values["ADD1"].Kind)
}

func TestParseJSON_Empty(t *testing.T) {
	t.Parallel()

	p, err := NewDecoder(nil).ParseJSON([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, p.Roots)
	assert.Equal(t, 0, p.Count())
}

func TestParseJSON_MissingType(t *testing.T) {
	t.Parallel()

	_, err := NewDecoder(nil).ParseJSON([]byte(`{"blocks":[{"fields":{"METHOD":"GET"}}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type is required")
}
