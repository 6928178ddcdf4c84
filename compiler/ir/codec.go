package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type wireProgram struct {
	IRVersion    string      `json:"irVersion"`
	Name         string      `json:"name"`
	Instructions []wireInstr `json:"instructions"`
}

type wireInstr struct {
	Op         Op          `json:"op"`
	Block      string      `json:"block,omitempty"`
	Method     string      `json:"method,omitempty"`
	Scheme     string      `json:"scheme,omitempty"`
	Status     int         `json:"status,omitempty"`
	URL        *wireExpr   `json:"url,omitempty"`
	Headers    *wireExpr   `json:"headers,omitempty"`
	Body       *wireExpr   `json:"body,omitempty"`
	Token      *wireExpr   `json:"token,omitempty"`
	Secret     *wireExpr   `json:"secret,omitempty"`
	Content    *wireExpr   `json:"content,omitempty"`
	Key        *wireExpr   `json:"key,omitempty"`
	Value      *wireExpr   `json:"value,omitempty"`
	Seconds    *wireExpr   `json:"seconds,omitempty"`
	Message    *wireExpr   `json:"message,omitempty"`
	Assertions []wireInstr `json:"assertions,omitempty"`
}

type wireExpr struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
	Parts []wireExpr      `json:"parts,omitempty"`
}

// MarshalJSON writes the canonical encoding. Field order is fixed by the
// wire structs, so equal programs always encode to equal bytes.
func (p Program) MarshalJSON() ([]byte, error) {
	instrs, err := encodeInstrs(p.Instrs)
	if err != nil {
		return nil, err
	}
	if instrs == nil {
		instrs = []wireInstr{}
	}
	return json.Marshal(wireProgram{IRVersion: p.IRVersion, Name: p.Name, Instructions: instrs})
}

func (p *Program) UnmarshalJSON(data []byte) error {
	var w wireProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	instrs, err := decodeInstrs(w.Instructions, "instructions")
	if err != nil {
		return err
	}
	p.IRVersion = w.IRVersion
	p.Name = w.Name
	p.Instrs = instrs
	return nil
}

func encodeInstrs(list []Instr) ([]wireInstr, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]wireInstr, 0, len(list))
	for _, in := range list {
		w, err := encodeInstr(in)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func encodeInstr(in Instr) (wireInstr, error) {
	w := wireInstr{Op: in.Op(), Block: in.Block()}
	var err error
	switch x := in.(type) {
	case *Request:
		w.Method = x.Method
		if w.URL, err = encodeExpr(x.URL); err != nil {
			return w, err
		}
		if w.Headers, err = encodeExpr(x.Headers); err != nil {
			return w, err
		}
		if w.Body, err = encodeExpr(x.Body); err != nil {
			return w, err
		}
		if w.Assertions, err = encodeInstrs(x.Assertions); err != nil {
			return w, err
		}
	case *Auth:
		w.Scheme = x.Scheme
		if w.Token, err = encodeExpr(x.Token); err != nil {
			return w, err
		}
		if w.Secret, err = encodeExpr(x.Secret); err != nil {
			return w, err
		}
	case *AssertStatus:
		w.Status = x.Expected
	case *AssertContains:
		w.Content, err = encodeExpr(x.Content)
	case *AssertJSONKey:
		if w.Key, err = encodeExpr(x.Key); err != nil {
			return w, err
		}
		w.Value, err = encodeExpr(x.Value)
	case *Wait:
		w.Seconds, err = encodeExpr(x.Seconds)
	case *Log:
		w.Message, err = encodeExpr(x.Message)
	default:
		return w, fmt.Errorf("ir: cannot encode instruction %T", in)
	}
	return w, err
}

func encodeExpr(e Expr) (*wireExpr, error) {
	if e == nil {
		return nil, nil
	}
	w := &wireExpr{Kind: e.exprKind()}
	var raw []byte
	var err error
	switch x := e.(type) {
	case Str:
		raw, err = json.Marshal(x.Value)
	case Num:
		raw, err = json.Marshal(x.Value)
	case Bool:
		raw, err = json.Marshal(x.Value)
	case Concat:
		w.Parts = make([]wireExpr, 0, len(x.Parts))
		for _, p := range x.Parts {
			pw, perr := encodeExpr(p)
			if perr != nil {
				return nil, perr
			}
			if pw == nil {
				return nil, fmt.Errorf("ir: nil concat part")
			}
			w.Parts = append(w.Parts, *pw)
		}
	default:
		return nil, fmt.Errorf("ir: cannot encode expression %T", e)
	}
	if err != nil {
		return nil, err
	}
	w.Value = raw
	return w, nil
}

func decodeInstrs(list []wireInstr, path string) ([]Instr, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]Instr, 0, len(list))
	for i := range list {
		in, err := decodeInstr(list[i], path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func decodeInstr(w wireInstr, path string) (Instr, error) {
	var errs []error
	expr := func(we *wireExpr, field string) Expr {
		e, err := decodeExpr(we)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", path, field, err))
		}
		return e
	}
	var in Instr
	switch w.Op {
	case OpRequest:
		assertions, err := decodeInstrs(w.Assertions, path+".assertions")
		if err != nil {
			return nil, err
		}
		in = &Request{
			BlockID:    w.Block,
			Method:     w.Method,
			URL:        expr(w.URL, "url"),
			Headers:    expr(w.Headers, "headers"),
			Body:       expr(w.Body, "body"),
			Assertions: assertions,
		}
	case OpAuth:
		in = &Auth{BlockID: w.Block, Scheme: w.Scheme, Token: expr(w.Token, "token"), Secret: expr(w.Secret, "secret")}
	case OpAssertStatus:
		in = &AssertStatus{BlockID: w.Block, Expected: w.Status}
	case OpAssertContains:
		in = &AssertContains{BlockID: w.Block, Content: expr(w.Content, "content")}
	case OpAssertJSONKey:
		in = &AssertJSONKey{BlockID: w.Block, Key: expr(w.Key, "key"), Value: expr(w.Value, "value")}
	case OpWait:
		in = &Wait{BlockID: w.Block, Seconds: expr(w.Seconds, "seconds")}
	case OpLog:
		in = &Log{BlockID: w.Block, Message: expr(w.Message, "message")}
	default:
		return nil, fmt.Errorf("%s: unknown op %q", path, w.Op)
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return in, nil
}

func decodeExpr(w *wireExpr) (Expr, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "str":
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return nil, err
		}
		return Str{Value: s}, nil
	case "num":
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return nil, err
		}
		return Num{Value: f}, nil
	case "bool":
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return nil, err
		}
		return Bool{Value: b}, nil
	case "concat":
		parts := make([]Expr, 0, len(w.Parts))
		for i := range w.Parts {
			p, err := decodeExpr(&w.Parts[i])
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return Concat{Parts: parts}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", w.Kind)
	}
}
