package engine

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Call is one outgoing HTTP request. Body is nil for GET and DELETE.
type Call struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    *string
}

// Reply is what the transport got back. Any status is a reply, not an error.
type Reply struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Transport performs calls. An error means no response was received.
type Transport interface {
	Do(ctx context.Context, call Call) (*Reply, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, call Call) (*Reply, error)

func (f TransportFunc) Do(ctx context.Context, call Call) (*Reply, error) { return f(ctx, call) }

// Curl renders the call as a shell command, headers in sorted order.
func (c Call) Curl() string {
	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s", c.Method)
	names := make([]string, 0, len(c.Headers))
	for k := range c.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " -H %s", shellQuote(k+": "+c.Headers[k]))
	}
	if c.Body != nil {
		fmt.Fprintf(&b, " -d %s", shellQuote(*c.Body))
	}
	fmt.Fprintf(&b, " %s", shellQuote(c.URL))
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
