package emitter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"text/template"

	"github.com/strogmv/apiblocks/compiler/ir"
)

const programTemplate = "program.go.tmpl"

// goStep is one instruction with every operand already rendered as a Go
// literal. Expressions are constant, so nothing is evaluated at run time
// except the header object, which is parsed the way the engine parses it.
type goStep struct {
	Kind       string
	BlockID    string
	Method     string
	URL        string
	Headers    string
	HasBody    bool
	Body       string
	Status     int
	Key        string
	Want       string
	Value      string
	Nanos      int64
	Assertions []goStep
}

type goProgram struct {
	Version string
	Name    string
	Hash    string
	Steps   []goStep
}

// GoSource renders p as a main package. hash is printed in the header only.
func (e *Emitter) GoSource(p *ir.Program, hash string) ([]byte, error) {
	steps, err := goSteps(p.Instrs)
	if err != nil {
		return nil, err
	}
	tmplContent, err := e.ReadTemplate(programTemplate)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	t, err := template.New(programTemplate).Parse(string(tmplContent))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	data := goProgram{Version: e.Version, Name: oneLine(p.Name), Hash: hash, Steps: steps}
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return formatGoStrict(buf.Bytes(), "main.go")
}

func goSteps(list []ir.Instr) ([]goStep, error) {
	out := make([]goStep, 0, len(list))
	for _, in := range list {
		s := goStep{Kind: string(in.Op()), BlockID: strconv.Quote(in.Block())}
		switch x := in.(type) {
		case *ir.Request:
			s.Method = strconv.Quote(x.Method)
			s.URL = strconv.Quote(ir.EvalString(x.URL))
			s.Headers = strconv.Quote(ir.EvalString(x.Headers))
			s.HasBody = x.Body != nil
			s.Body = strconv.Quote(ir.EvalString(x.Body))
			nested, err := goSteps(x.Assertions)
			if err != nil {
				return nil, err
			}
			s.Assertions = nested
		case *ir.Auth:
			s.Value = strconv.Quote(authorization(x))
		case *ir.AssertStatus:
			s.Status = x.Expected
		case *ir.AssertContains:
			s.Value = strconv.Quote(ir.EvalString(x.Content))
		case *ir.AssertJSONKey:
			want := ir.Eval(x.Value)
			lit, err := goLiteral(want)
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", in.Block(), err)
			}
			s.Key = strconv.Quote(ir.EvalString(x.Key))
			s.Want = lit
			s.Value = strconv.Quote(ir.ToString(want))
		case *ir.Wait:
			raw := ir.Eval(x.Seconds)
			s.Value = strconv.Quote("Attente de " + ir.ToString(raw) + " secondes...")
			s.Nanos = int64(ir.WaitDuration(raw))
		case *ir.Log:
			s.Value = strconv.Quote(ir.EvalString(x.Message))
		default:
			return nil, fmt.Errorf("unsupported instruction %T", in)
		}
		out = append(out, s)
	}
	return out, nil
}

func authorization(x *ir.Auth) string {
	token := ir.EvalString(x.Token)
	if x.Scheme == "BASIC" {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(token+":"+ir.EvalString(x.Secret)))
	}
	return "Bearer " + token
}

// goLiteral renders a JSON scalar so that it keeps its dynamic type when
// passed as any: numbers stay float64.
func goLiteral(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "nil", nil
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", fmt.Errorf("value %v has no Go literal", x)
		}
		return "float64(" + strconv.FormatFloat(x, 'g', -1, 64) + ")", nil
	default:
		return "", fmt.Errorf("unsupported value %T", v)
	}
}

// oneLine keeps a name on its header comment line.
func oneLine(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
