package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/internal/runtime"
)

func (r *run) step(ctx context.Context, in ir.Instr, depth int) error {
	switch x := in.(type) {
	case *ir.Request:
		return r.request(ctx, x, depth)
	case *ir.Auth:
		return r.auth(x)
	case *ir.AssertStatus:
		return r.assertStatus(x)
	case *ir.AssertContains:
		return r.assertContains(x)
	case *ir.AssertJSONKey:
		return r.assertJSONKey(x)
	case *ir.Wait:
		return r.wait(ctx, x)
	case *ir.Log:
		r.observe(runtime.LevelMessage, x.BlockID, ir.EvalString(x.Message))
		return nil
	default:
		return fmt.Errorf("unsupported instruction %T", in)
	}
}

func (r *run) request(ctx context.Context, x *ir.Request, depth int) error {
	call := Call{Method: x.Method, URL: ir.EvalString(x.URL)}
	headers, err := r.headers(x)
	if err != nil {
		return r.requestFailed(x, call, err)
	}
	call.Headers = headers
	if x.Body != nil {
		body := ir.EvalString(x.Body)
		call.Body = &body
	}
	if err := ctx.Err(); err != nil {
		return r.requestFailed(x, call, err)
	}

	log := r.engine.logger.With(slog.String("block_id", x.BlockID))
	log.DebugContext(ctx, "http call", "curl", call.Curl())

	started := r.engine.now()
	reply, err := r.engine.transport.Do(ctx, call)
	record := CallRecord{BlockID: x.BlockID, Call: call, Duration: r.engine.now().Sub(started)}
	if err == nil && reply == nil {
		err = fmt.Errorf("transport returned no reply")
	}
	if err != nil {
		record.Err = err
		r.result.Calls = append(r.result.Calls, record)
		return r.requestFailed(x, call, err)
	}
	record.Status = reply.Status
	r.result.Calls = append(r.result.Calls, record)

	r.rc.Record(runtime.Response{
		Method:  call.Method,
		URL:     call.URL,
		Status:  reply.Status,
		Headers: reply.Headers,
	}, reply.Body)
	r.observe(runtime.LevelInfo, x.BlockID, "Response Status: "+strconv.Itoa(reply.Status))
	r.observe(runtime.LevelInfo, x.BlockID, "Response Data: "+string(reply.Body))

	return r.exec(ctx, x.Assertions, depth+1)
}

func (r *run) requestFailed(x *ir.Request, call Call, err error) error {
	r.observe(runtime.LevelError, x.BlockID, "Erreur de requête: "+err.Error())
	return &runtime.RequestError{Method: call.Method, URL: call.URL, Err: err}
}

// headers merges, in increasing precedence: the JSON content type, the
// headers accumulated by earlier statements, and the block's HEADERS object.
func (r *run) headers(x *ir.Request) (map[string]string, error) {
	out := map[string]string{"Content-Type": "application/json"}
	for k, v := range r.rc.Headers() {
		out[k] = v
	}
	raw := strings.TrimSpace(ir.EvalString(x.Headers))
	if raw == "" {
		raw = "{}"
	}
	var explicit map[string]any
	if err := json.Unmarshal([]byte(raw), &explicit); err != nil {
		return nil, fmt.Errorf("en-têtes invalides %s: %w", strconv.Quote(raw), err)
	}
	names := make([]string, 0, len(explicit))
	for k := range explicit {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		out[http.CanonicalHeaderKey(k)] = headerValue(explicit[k])
	}
	return out, nil
}

func headerValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string, float64, bool:
		return ir.ToString(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func (r *run) auth(x *ir.Auth) error {
	token := ir.EvalString(x.Token)
	switch x.Scheme {
	case "BASIC":
		secret := ir.EvalString(x.Secret)
		r.rc.SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(token+":"+secret)))
	default:
		r.rc.SetHeader("Authorization", "Bearer "+token)
	}
	return nil
}

func (r *run) assertStatus(x *ir.AssertStatus) error {
	resp, ok := r.rc.LastResponse()
	if !ok {
		return runtime.MissingContext("Aucune réponse disponible pour vérifier le statut")
	}
	if resp.Status != x.Expected {
		return &runtime.AssertionError{
			Check:    string(ir.OpAssertStatus),
			Expected: x.Expected,
			Actual:   resp.Status,
			Message:  fmt.Sprintf("Status attendu: %d, reçu: %d", x.Expected, resp.Status),
		}
	}
	r.observe(runtime.LevelSuccess, x.BlockID, fmt.Sprintf("Status %d vérifié", x.Expected))
	return nil
}

func (r *run) assertContains(x *ir.AssertContains) error {
	body, ok := r.rc.Body()
	if !ok {
		return runtime.MissingContext("Aucune réponse disponible pour vérifier le contenu")
	}
	want := ir.EvalString(x.Content)
	if !strings.Contains(body, want) {
		return &runtime.AssertionError{
			Check:    string(ir.OpAssertContains),
			Expected: want,
			Actual:   body,
			Message:  "Contenu attendu non trouvé: " + want,
		}
	}
	r.observe(runtime.LevelSuccess, x.BlockID, "Contenu vérifié: "+want)
	return nil
}

func (r *run) assertJSONKey(x *ir.AssertJSONKey) error {
	doc, ok := r.rc.JSON()
	if !ok {
		return runtime.MissingContext("Réponse JSON invalide pour la vérification de path")
	}
	key := ir.EvalString(x.Key)
	want := ir.Eval(x.Value)
	got, found := topLevel(doc, key)
	if !found || !strictEqual(got, want) {
		actual := "undefined"
		if found {
			actual = display(got)
		}
		return &runtime.AssertionError{
			Check:    string(ir.OpAssertJSONKey),
			Expected: want,
			Actual:   got,
			Message:  fmt.Sprintf("Valeur attendue pour %s: %s, reçu: %s", key, ir.ToString(want), actual),
		}
	}
	r.observe(runtime.LevelSuccess, x.BlockID, fmt.Sprintf("JSON path vérifié: %s = %s", key, ir.ToString(want)))
	return nil
}

// topLevel reads one key of doc. Dotted paths are not traversed: "a.b" is
// the literal key "a.b". Arrays accept an index and "length".
func topLevel(doc any, key string) (any, bool) {
	switch d := doc.(type) {
	case map[string]any:
		v, ok := d[key]
		return v, ok
	case []any:
		if key == "length" {
			return float64(len(d)), true
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(d) || strconv.Itoa(i) != key {
			return nil, false
		}
		return d[i], true
	default:
		return nil, false
	}
}

// strictEqual is type-aware equality: the number 5 never equals the string
// "5", and objects or arrays never equal a literal.
func strictEqual(got, want any) bool {
	switch g := got.(type) {
	case string:
		w, ok := want.(string)
		return ok && g == w
	case float64:
		w, ok := want.(float64)
		return ok && g == w
	case bool:
		w, ok := want.(bool)
		return ok && g == w
	default:
		return false
	}
}

// display renders a JSON value for an assertion message.
func display(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "[object Object]"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = display(e)
			}
		}
		return strings.Join(parts, ",")
	default:
		return ir.ToString(x)
	}
}

func (r *run) wait(ctx context.Context, x *ir.Wait) error {
	raw := ir.Eval(x.Seconds)
	r.observe(runtime.LevelWait, x.BlockID, "Attente de "+ir.ToString(raw)+" secondes...")
	return r.engine.sleep(ctx, ir.WaitDuration(raw))
}
