// Package blocks is the static catalogue of block kinds and their slot shapes.
//
// Statement kinds form the test script itself. Expression kinds only ever sit
// in a value slot and produce the value the owning statement consumes.
package blocks

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrUnknownBlockType is returned when a kind is absent from the registry.
var ErrUnknownBlockType = errors.New("unknown block type")

// Kind identifies a block type as serialized by the editor.
type Kind string

const (
	KindHTTPRequest    Kind = "http_request"
	KindAssertStatus   Kind = "assert_status"
	KindAssertContains Kind = "assert_contains"
	KindAssertJSONPath Kind = "assert_json_path"
	KindWait           Kind = "wait"
	KindLog            Kind = "log_message"
	KindAuthRequest    Kind = "auth_request"

	KindText     Kind = "text"
	KindNumber   Kind = "math_number"
	KindBoolean  Kind = "logic_boolean"
	KindTextJoin Kind = "text_join"
)

// Role tells whether a block chains as a statement or plugs into a value slot.
type Role string

const (
	RoleStatement  Role = "statement"
	RoleExpression Role = "expression"
)

// ValueSlot is an input that must resolve to an expression.
// Default is used when nothing is connected: string, float64 or bool.
type ValueSlot struct {
	Name    string `json:"name"`
	Check   string `json:"check,omitempty"`
	Default any    `json:"default"`
}

// FieldSlot is an inline constant. An empty Options list accepts free text.
type FieldSlot struct {
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
	Default string   `json:"default"`
}

// Allows reports whether v is an accepted value for the field.
func (f FieldSlot) Allows(v string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, o := range f.Options {
		if o == v {
			return true
		}
	}
	return false
}

// Shape is the declared slot layout of one kind.
type Shape struct {
	Kind       Kind        `json:"kind"`
	Role       Role        `json:"role"`
	Label      string      `json:"label"`
	Tooltip    string      `json:"tooltip,omitempty"`
	Values     []ValueSlot `json:"values,omitempty"`
	Fields     []FieldSlot `json:"fields,omitempty"`
	Statements []string    `json:"statements,omitempty"`
	// VariadicPrefix accepts numbered value slots (ADD0, ADD1, ...).
	VariadicPrefix string `json:"variadicPrefix,omitempty"`
}

// Value returns the value slot declared under name.
func (s Shape) Value(name string) (ValueSlot, bool) {
	for _, v := range s.Values {
		if v.Name == name {
			return v, true
		}
	}
	if s.VariadicPrefix != "" && isVariadicSlot(s.VariadicPrefix, name) {
		return ValueSlot{Name: name, Check: "String", Default: ""}, true
	}
	return ValueSlot{}, false
}

// Field returns the field slot declared under name.
func (s Shape) Field(name string) (FieldSlot, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSlot{}, false
}

// HasStatement reports whether name is a statement slot of this shape.
func (s Shape) HasStatement(name string) bool {
	for _, st := range s.Statements {
		if st == name {
			return true
		}
	}
	return false
}

// ItemCount reads an editor itemCount. It reports false unless raw is a
// whole number between 0 and MaxJoinItems.
func ItemCount(raw any) (int, bool) {
	var f float64
	switch x := raw.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < 0 || f > MaxJoinItems {
		return 0, false
	}
	return int(f), true
}

// SlotIndex returns n for a variadic slot named prefix+n. Indexes too large
// for an int report math.MaxInt.
func SlotIndex(prefix, name string) (int, bool) {
	if !isVariadicSlot(prefix, name) {
		return 0, false
	}
	i, err := strconv.Atoi(name[len(prefix):])
	if err != nil {
		return math.MaxInt, true
	}
	return i, true
}

func isVariadicSlot(prefix, name string) bool {
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return false
	}
	for _, r := range name[len(prefix):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Registry maps kinds to shapes. Registration happens once at startup;
// lookups afterwards are read-only.
type Registry struct {
	shapes map[Kind]Shape
	order  []Kind
}

func NewRegistry() *Registry {
	return &Registry{shapes: make(map[Kind]Shape)}
}

// Register records the shape of kind. Registering a kind twice panics.
func (r *Registry) Register(kind Kind, shape Shape) {
	if _, ok := r.shapes[kind]; ok {
		panic(fmt.Sprintf("blocks: kind %q registered twice", kind))
	}
	shape.Kind = kind
	if shape.Role == "" {
		shape.Role = RoleStatement
	}
	r.shapes[kind] = shape
	r.order = append(r.order, kind)
}

// Lookup returns the shape of kind or ErrUnknownBlockType.
func (r *Registry) Lookup(kind Kind) (Shape, error) {
	shape, ok := r.shapes[kind]
	if !ok {
		return Shape{}, fmt.Errorf("%w: %q", ErrUnknownBlockType, string(kind))
	}
	return shape, nil
}

// Kinds lists registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

// Shapes lists registered shapes in registration order.
func (r *Registry) Shapes() []Shape {
	out := make([]Shape, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.shapes[k])
	}
	return out
}
