package ir

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestEval_Concat(t *testing.T) {
	e := Concat{Parts: []Expr{Str{Value: "n="}, Num{Value: 3}, Str{Value: " ok="}, Bool{Value: true}, Num{Value: 0.25}}}
	if got := EvalString(e); got != "n=3 ok=true0.25" {
		t.Fatalf("unexpected concat %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:      "0",
		1:      "1",
		-2:     "-2",
		1.5:    "1.5",
		200:    "200",
		1e21:   "1e+21",
		123456: "123456",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"2", 2, true},
		{" 0.5 ", 0.5, true},
		{"", 0, true},
		{"soon", 0, false},
		{true, 1, true},
		{nil, 0, false},
		{float64(3), 3, true},
	}
	for _, tc := range cases {
		got, ok := ToNumber(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ToNumber(%#v) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFormat_Listing(t *testing.T) {
	p := fixtureProgram()
	p.IRVersion = IRVersion
	out := Format(p)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		`# program "fixture" (ir 1)`,
		`0001 auth BEARER "tok"  ; b1`,
		`0002 request GET "https://api.example.com/users/1" headers="{}"  ; b2`,
		`0003   assert_status 200  ; b3`,
		`0004   assert_json_key "name" == "Alice"  ; b4`,
		`0005 wait 1.5  ; b5`,
		`0006 log ("done " + 2)  ; b6`,
	}
	if len(lines) != len(want) {
		t.Fatalf("listing has %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWaitDuration(t *testing.T) {
	cases := []struct {
		in   any
		want time.Duration
	}{
		{1.5, 1500 * time.Millisecond},
		{"2", 2 * time.Second},
		{-3.0, 0},
		{"soon", 0},
		{nil, 0},
		{1e12, time.Duration(math.MaxInt64)},
		{math.Inf(1), time.Duration(math.MaxInt64)},
		{float64(math.MaxInt64) / 1e9, time.Duration(math.MaxInt64)},
	}
	for _, c := range cases {
		if got := WaitDuration(c.in); got != c.want {
			t.Fatalf("WaitDuration(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
