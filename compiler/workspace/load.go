package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/strogmv/apiblocks/compiler/blocks"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported workspace format")

// Decoder turns serialized workspaces into programs. The registry decides
// which inputs of a block are statement slots.
type Decoder struct {
	Registry *blocks.Registry
}

// NewDecoder returns a Decoder bound to reg, or to the builtin registry if nil.
func NewDecoder(reg *blocks.Registry) *Decoder {
	if reg == nil {
		reg = blocks.Builtin()
	}
	return &Decoder{Registry: reg}
}

// Load reads path and decodes it by extension (.json, .yaml, .yml, .cue).
func Load(path string) (*Program, error) {
	return NewDecoder(nil).Load(path)
}

// Load reads path and decodes it by extension (.json, .yaml, .yml, .cue).
func (d *Decoder) Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workspace %s: %w", path, err)
	}
	p, err := d.Parse(data, FormatOf(path), path)
	if err != nil {
		return nil, fmt.Errorf("parsing workspace %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// FormatOf returns the format name implied by the extension of path.
func FormatOf(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "yml" {
		return "yaml"
	}
	return ext
}

// Parse decodes data in the named format: json, yaml or cue. The filename
// only appears in CUE error positions.
func (d *Decoder) Parse(data []byte, format, filename string) (*Program, error) {
	switch strings.ToLower(format) {
	case "json":
		return d.ParseJSON(data)
	case "yaml", "yml":
		return d.ParseYAML(data)
	case "cue":
		return d.ParseCUE(data, filename)
	default:
		return nil, fmt.Errorf("%w %q (expected json, yaml or cue)", ErrUnsupportedFormat, format)
	}
}

// ParseJSON accepts both the editor serialization ({"blocks":{"blocks":[...]}})
// and the plain script form ({"blocks":[...]}).
func (d *Decoder) ParseJSON(data []byte) (*Program, error) {
	var envelope struct {
		Blocks json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(envelope.Blocks)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return &Program{}, nil
	case raw[0] == '[':
		var s plainScript
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return d.fromPlain(s)
	case raw[0] == '{':
		var ws blocklyWorkspace
		if err := json.Unmarshal(data, &ws); err != nil {
			return nil, err
		}
		return d.fromBlockly(ws)
	default:
		return nil, fmt.Errorf("%w: \"blocks\" must be an object or an array", ErrUnsupportedFormat)
	}
}

// ParseYAML decodes the plain script form from YAML.
func (d *Decoder) ParseYAML(data []byte) (*Program, error) {
	var s plainScript
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return d.fromPlain(s)
}

// ParseCUE evaluates a CUE document and decodes its JSON projection.
func (d *Decoder) ParseCUE(data []byte, filename string) (*Program, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}
	js, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return d.ParseJSON(js)
}

// fieldString renders a serialized field value the way the editor shows it.
func fieldString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func (d *Decoder) isStatementSlot(kind blocks.Kind, slot string) bool {
	shape, err := d.Registry.Lookup(kind)
	if err != nil {
		return false
	}
	return shape.HasStatement(slot)
}
