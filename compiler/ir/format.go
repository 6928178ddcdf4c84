package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders p as a numbered listing. Nested assertions are indented
// under their request and numbered in execution order.
func Format(p *Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# program %s (ir %s)\n", strconv.Quote(p.Name), p.IRVersion)
	n := 0
	formatInstrs(&b, p.Instrs, 0, &n)
	return b.String()
}

func formatInstrs(b *strings.Builder, list []Instr, depth int, n *int) {
	for _, in := range list {
		*n++
		fmt.Fprintf(b, "%04d %s%s", *n, strings.Repeat("  ", depth), FormatInstr(in))
		if id := in.Block(); id != "" {
			fmt.Fprintf(b, "  ; %s", id)
		}
		b.WriteByte('\n')
		if r, ok := in.(*Request); ok {
			formatInstrs(b, r.Assertions, depth+1, n)
		}
	}
}

// FormatInstr renders a single instruction without its nested list.
func FormatInstr(in Instr) string {
	switch x := in.(type) {
	case *Request:
		s := fmt.Sprintf("request %s %s headers=%s", x.Method, FormatExpr(x.URL), FormatExpr(x.Headers))
		if x.Body != nil {
			s += " body=" + FormatExpr(x.Body)
		}
		return s
	case *Auth:
		if x.Scheme == "BASIC" {
			return fmt.Sprintf("auth BASIC %s:%s", FormatExpr(x.Token), FormatExpr(x.Secret))
		}
		return fmt.Sprintf("auth %s %s", x.Scheme, FormatExpr(x.Token))
	case *AssertStatus:
		return fmt.Sprintf("assert_status %d", x.Expected)
	case *AssertContains:
		return "assert_contains " + FormatExpr(x.Content)
	case *AssertJSONKey:
		return fmt.Sprintf("assert_json_key %s == %s", FormatExpr(x.Key), FormatExpr(x.Value))
	case *Wait:
		return "wait " + FormatExpr(x.Seconds)
	case *Log:
		return "log " + FormatExpr(x.Message)
	default:
		return fmt.Sprintf("<%T>", in)
	}
}

// FormatExpr renders e as a literal or a + chain.
func FormatExpr(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<none>"
	case Str:
		return strconv.Quote(x.Value)
	case Num:
		return FormatNumber(x.Value)
	case Bool:
		return strconv.FormatBool(x.Value)
	case Concat:
		if len(x.Parts) == 0 {
			return `""`
		}
		parts := make([]string, len(x.Parts))
		for i, p := range x.Parts {
			parts[i] = FormatExpr(p)
		}
		return "(" + strings.Join(parts, " + ") + ")"
	default:
		return "<?>"
	}
}
