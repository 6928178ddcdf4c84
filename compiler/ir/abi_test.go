package ir

import (
	"math"
	"strings"
	"testing"
)

func TestValidateABI(t *testing.T) {
	cases := []struct {
		name    string
		instr   Instr
		wantErr string
	}{
		{
			name:  "valid get",
			instr: &Request{Method: "GET", URL: Str{}, Headers: Str{Value: "{}"}},
		},
		{
			name:    "get with body",
			instr:   &Request{Method: "GET", URL: Str{}, Headers: Str{Value: "{}"}, Body: Str{Value: "x"}},
			wantErr: "must not carry a body",
		},
		{
			name:    "post without body",
			instr:   &Request{Method: "POST", URL: Str{}, Headers: Str{Value: "{}"}},
			wantErr: "instructions[0].body: missing expression",
		},
		{
			name:    "unknown method",
			instr:   &Request{Method: "PATCH", URL: Str{}, Headers: Str{}},
			wantErr: "unsupported method",
		},
		{
			name: "nested assertion checked",
			instr: &Request{Method: "DELETE", URL: Str{}, Headers: Str{}, Assertions: []Instr{
				&AssertStatus{Expected: 42},
			}},
			wantErr: "instructions[0].assertions[0]: status 42 out of range",
		},
		{
			name:    "bad scheme",
			instr:   &Auth{Scheme: "DIGEST", Token: Str{}, Secret: Str{}},
			wantErr: "unsupported auth scheme",
		},
		{
			name:    "nan wait",
			instr:   &Wait{Seconds: Num{Value: math.NaN()}},
			wantErr: "non-finite number",
		},
		{
			name:    "nil concat part",
			instr:   &Log{Message: Concat{Parts: []Expr{Str{}, nil}}},
			wantErr: "parts[1]: missing expression",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateABI(&Program{IRVersion: IRVersion, Instrs: []Instr{tc.instr}})
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateABI_RequiresVersion(t *testing.T) {
	if err := ValidateABI(&Program{}); err == nil {
		t.Fatalf("expected version error")
	}
}
