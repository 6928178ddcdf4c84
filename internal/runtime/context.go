// Package runtime holds the per-run state that executing statements share.
package runtime

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Response is the metadata of the most recent HTTP response.
type Response struct {
	Method  string
	URL     string
	Status  int
	Headers http.Header
}

// Context is created fresh for every run. All access goes through the mutex
// so a transport running its own goroutines cannot observe torn state.
type Context struct {
	mu       sync.Mutex
	response *Response
	body     string
	json     any
	hasJSON  bool
	headers  map[string]string
}

func NewContext() *Context {
	return &Context{headers: map[string]string{}}
}

// SetHeader adds or replaces an accumulated header. Headers persist for the
// rest of the run.
func (c *Context) SetHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[http.CanonicalHeaderKey(name)] = value
}

// Headers returns a copy of the accumulated headers.
func (c *Context) Headers() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = v
	}
	return out
}

// Record stores a response as the new last response. The body is parsed as
// JSON; a parse failure or a JSON null leaves the last JSON absent.
func (c *Context) Record(resp Response, body []byte) {
	var parsed any
	ok := json.Unmarshal(body, &parsed) == nil && parsed != nil
	if !ok {
		parsed = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	r := resp
	r.Headers = resp.Headers.Clone()
	c.response = &r
	c.body = string(body)
	c.json = parsed
	c.hasJSON = ok
}

// LastResponse returns the most recent response, if any request completed.
func (c *Context) LastResponse() (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.response == nil {
		return Response{}, false
	}
	return *c.response, true
}

// Body returns the raw text of the last response.
func (c *Context) Body() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body, c.response != nil
}

// JSON returns the parsed last body when it was valid, non-null JSON.
func (c *Context) JSON() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.json, c.hasJSON
}
