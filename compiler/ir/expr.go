package ir

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Expr is a constant value expression. Values are string, float64 or bool.
type Expr interface {
	exprKind() string
}

type Str struct{ Value string }

type Num struct{ Value float64 }

type Bool struct{ Value bool }

// Concat joins the string forms of its parts.
type Concat struct{ Parts []Expr }

func (Str) exprKind() string    { return "str" }
func (Num) exprKind() string    { return "num" }
func (Bool) exprKind() string   { return "bool" }
func (Concat) exprKind() string { return "concat" }

// Eval computes the value of e. A nil expression evaluates to nil.
func Eval(e Expr) any {
	switch x := e.(type) {
	case nil:
		return nil
	case Str:
		return x.Value
	case Num:
		return x.Value
	case Bool:
		return x.Value
	case Concat:
		var b strings.Builder
		for _, p := range x.Parts {
			b.WriteString(ToString(Eval(p)))
		}
		return b.String()
	default:
		return nil
	}
}

// EvalString is ToString(Eval(e)).
func EvalString(e Expr) string {
	return ToString(Eval(e))
}

// ToString renders a value the way a script author sees it: integral numbers
// without a fraction, booleans as true/false.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return FormatNumber(x)
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}

// FormatNumber prints f in the shortest form that round-trips.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToNumber converts v to a number. Blank strings count as zero; anything
// unparseable reports false.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, !math.IsNaN(x)
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// WaitDuration converts a wait value in seconds. Values that are not
// numbers or are negative wait zero; values beyond the range of a
// time.Duration wait the maximum duration.
func WaitDuration(v any) time.Duration {
	secs, ok := ToNumber(v)
	if !ok || secs <= 0 {
		return 0
	}
	nanos := math.Round(secs * float64(time.Second))
	if nanos >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(nanos)
}
