package ir

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func fixtureProgram() *Program {
	return &Program{
		Name: "fixture",
		Instrs: []Instr{
			&Auth{BlockID: "b1", Scheme: "BEARER", Token: Str{Value: "tok"}, Secret: Str{}},
			&Request{
				BlockID: "b2",
				Method:  "GET",
				URL:     Str{Value: "https://api.example.com/users/1"},
				Headers: Str{Value: "{}"},
				Assertions: []Instr{
					&AssertStatus{BlockID: "b3", Expected: 200},
					&AssertJSONKey{BlockID: "b4", Key: Str{Value: "name"}, Value: Str{Value: "Alice"}},
				},
			},
			&Wait{BlockID: "b5", Seconds: Num{Value: 1.5}},
			&Log{BlockID: "b6", Message: Concat{Parts: []Expr{Str{Value: "done "}, Num{Value: 2}}}},
		},
	}
}

func TestMigrateToCurrent_RejectsUnknownVersion(t *testing.T) {
	if err := MigrateToCurrent(&Program{IRVersion: "99"}); err == nil {
		t.Fatalf("expected error for unknown version")
	}
}

func TestToCanonicalJSON_Fixture(t *testing.T) {
	got, err := ToCanonicalJSON(fixtureProgram())
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "program_expected.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), got) {
		t.Fatalf("canonical json mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestFromCanonicalJSON_RestoresProgram(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "program_expected.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	got, err := FromCanonicalJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := fixtureProgram()
	want.IRVersion = IRVersion
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("decoded program mismatch\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestFromCanonicalJSON_LegacyVersion(t *testing.T) {
	p, err := FromCanonicalJSON([]byte(`{"name":"old","instructions":[{"op":"log","message":{"kind":"str","value":"hi"}}]}`))
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if p.IRVersion != IRVersion {
		t.Fatalf("expected migration to %s, got %q", IRVersion, p.IRVersion)
	}
}

func TestFromCanonicalJSON_UnknownOp(t *testing.T) {
	_, err := FromCanonicalJSON([]byte(`{"irVersion":"1","instructions":[{"op":"loop"}]}`))
	if err == nil || !strings.Contains(err.Error(), `unknown op "loop"`) {
		t.Fatalf("expected unknown op error, got %v", err)
	}
}

func TestHash_StableAndSensitive(t *testing.T) {
	a, err := Hash(fixtureProgram())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash(fixtureProgram())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a != b || len(a) != 64 {
		t.Fatalf("expected stable 64-char hash, got %q and %q", a, b)
	}

	changed := fixtureProgram()
	changed.Instrs[2].(*Wait).Seconds = Num{Value: 2}
	c, err := Hash(changed)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if c == a {
		t.Fatalf("hash did not change with the program")
	}
}

func TestProgramLen_CountsNested(t *testing.T) {
	if got := fixtureProgram().Len(); got != 6 {
		t.Fatalf("expected 6 instructions, got %d", got)
	}
}
