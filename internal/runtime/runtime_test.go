package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/apiblocks/compiler/blocks"
)

func TestContext_EmptyBeforeAnyRequest(t *testing.T) {
	t.Parallel()
	c := NewContext()
	_, ok := c.LastResponse()
	assert.False(t, ok)
	_, ok = c.Body()
	assert.False(t, ok)
	_, ok = c.JSON()
	assert.False(t, ok)
	assert.Empty(t, c.Headers())
}

func TestContext_RecordParsesJSON(t *testing.T) {
	t.Parallel()
	c := NewContext()
	c.Record(Response{Method: "GET", Status: 200, Headers: http.Header{"X-A": {"1"}}}, []byte(`{"name":"Alice","age":30}`))

	resp, ok := c.LastResponse()
	require.True(t, ok)
	assert.Equal(t, 200, resp.Status)
	body, _ := c.Body()
	assert.Equal(t, `{"name":"Alice","age":30}`, body)
	js, ok := c.JSON()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Alice", "age": float64(30)}, js)
}

func TestContext_InvalidOrNullJSONIsAbsent(t *testing.T) {
	t.Parallel()
	c := NewContext()
	c.Record(Response{Status: 200}, []byte(`{"ok":true}`))
	c.Record(Response{Status: 500}, []byte(`<html>oops</html>`))
	_, ok := c.JSON()
	assert.False(t, ok, "a failed parse replaces the previous JSON")
	body, ok := c.Body()
	assert.True(t, ok)
	assert.Equal(t, "<html>oops</html>", body)

	c.Record(Response{Status: 200}, []byte(`null`))
	_, ok = c.JSON()
	assert.False(t, ok)
}

func TestContext_HeadersAccumulate(t *testing.T) {
	t.Parallel()
	c := NewContext()
	c.SetHeader("authorization", "Bearer a")
	c.SetHeader("X-Trace", "1")
	c.SetHeader("Authorization", "Bearer b")
	assert.Equal(t, map[string]string{"Authorization": "Bearer b", "X-Trace": "1"}, c.Headers())

	c.Record(Response{Status: 204}, nil)
	assert.Len(t, c.Headers(), 2, "requests never reset headers")
}

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{MissingContext("no response"), KindMissingContext},
		{fmt.Errorf("wrapped: %w", &AssertionError{Message: "x"}), KindAssertionFailure},
		{&RequestError{Method: "GET", URL: "u", Err: errors.New("dial tcp: refused")}, KindRequestFailure},
		{&RequestError{Method: "GET", URL: "u", Err: context.Canceled}, KindCanceled},
		{context.DeadlineExceeded, KindCanceled},
		{fmt.Errorf("b: %w", blocks.ErrUnknownBlockType), KindUnknownBlockType},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "%v", tc.err)
	}
}

func TestSinks(t *testing.T) {
	t.Parallel()
	var mem Lines
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	var seen int
	sink := Tee(&mem, nil, SinkFunc(func(Line) { seen++ }), LogSink(context.Background(), logger))

	sink.Observe(Line{Level: LevelMessage, Text: "hello", BlockID: "b1"})
	sink.Observe(Line{Level: LevelError, Text: "bad"})

	assert.Equal(t, []string{"hello", "bad"}, mem.Texts())
	assert.Equal(t, 2, seen)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"block_id":"b1"`)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
