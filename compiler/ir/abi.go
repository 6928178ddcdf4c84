package ir

import (
	"fmt"
	"math"
)

// ValidateABI enforces the invariants every producer and consumer of a
// program relies on. It must be called on the boundaries between assembly,
// storage and execution.
func ValidateABI(p *Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}
	if p.IRVersion != IRVersion {
		return fmt.Errorf("ir_version=%q, expected %q", p.IRVersion, IRVersion)
	}
	return validateInstrs(p.Instrs, "instructions")
}

func validateInstrs(list []Instr, path string) error {
	for i, in := range list {
		at := fmt.Sprintf("%s[%d]", path, i)
		if in == nil {
			return fmt.Errorf("%s: nil instruction", at)
		}
		if err := validateInstr(in, at); err != nil {
			return err
		}
	}
	return nil
}

func validateInstr(in Instr, path string) error {
	switch x := in.(type) {
	case *Request:
		switch x.Method {
		case "GET", "DELETE":
			if x.Body != nil {
				return fmt.Errorf("%s: %s request must not carry a body", path, x.Method)
			}
		case "POST", "PUT":
			if err := requireExpr(x.Body, path+".body"); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: unsupported method %q", path, x.Method)
		}
		if err := requireExpr(x.URL, path+".url"); err != nil {
			return err
		}
		if err := requireExpr(x.Headers, path+".headers"); err != nil {
			return err
		}
		return validateInstrs(x.Assertions, path+".assertions")
	case *Auth:
		if x.Scheme != "BEARER" && x.Scheme != "BASIC" {
			return fmt.Errorf("%s: unsupported auth scheme %q", path, x.Scheme)
		}
		if err := requireExpr(x.Token, path+".token"); err != nil {
			return err
		}
		return requireExpr(x.Secret, path+".secret")
	case *AssertStatus:
		if x.Expected < 100 || x.Expected > 599 {
			return fmt.Errorf("%s: status %d out of range", path, x.Expected)
		}
		return nil
	case *AssertContains:
		return requireExpr(x.Content, path+".content")
	case *AssertJSONKey:
		if err := requireExpr(x.Key, path+".key"); err != nil {
			return err
		}
		return requireExpr(x.Value, path+".value")
	case *Wait:
		return requireExpr(x.Seconds, path+".seconds")
	case *Log:
		return requireExpr(x.Message, path+".message")
	default:
		return fmt.Errorf("%s: unsupported instruction %T", path, in)
	}
}

func requireExpr(e Expr, path string) error {
	if e == nil {
		return fmt.Errorf("%s: missing expression", path)
	}
	return validateExpr(e, path)
}

func validateExpr(e Expr, path string) error {
	switch x := e.(type) {
	case Str, Bool:
		return nil
	case Num:
		if math.IsNaN(x.Value) || math.IsInf(x.Value, 0) {
			return fmt.Errorf("%s: non-finite number", path)
		}
		return nil
	case Concat:
		for i, part := range x.Parts {
			if err := requireExpr(part, fmt.Sprintf("%s.parts[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: unsupported expression %T", path, e)
	}
}
