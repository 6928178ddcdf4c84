package workspace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/strogmv/apiblocks/compiler/blocks"
)

// plainScript is the hand-written form: lists instead of next links and bare
// scalars instead of text/number blocks.
//
//	name: smoke
//	blocks:
//	  - type: http_request
//	    fields: {METHOD: GET}
//	    values: {URL: https://api.example.com/users/1}
//	    statements:
//	      ASSERTIONS:
//	        - type: assert_status
//	          fields: {STATUS: "200"}
type plainScript struct {
	Name   string       `json:"name" yaml:"name"`
	Blocks []plainBlock `json:"blocks" yaml:"blocks"`
}

type plainBlock struct {
	Type       string                  `json:"type" yaml:"type"`
	ID         string                  `json:"id,omitempty" yaml:"id,omitempty"`
	Disabled   bool                    `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Fields     map[string]any          `json:"fields,omitempty" yaml:"fields,omitempty"`
	Values     map[string]any          `json:"values,omitempty" yaml:"values,omitempty"`
	Statements map[string][]plainBlock `json:"statements,omitempty" yaml:"statements,omitempty"`
}

func (d *Decoder) fromPlain(s plainScript) (*Program, error) {
	p := &Program{Name: s.Name}
	head, err := d.plainChain(s.Blocks, "b")
	if err != nil {
		return nil, err
	}
	if head != nil {
		p.Roots = []*Node{head}
	}
	return p, nil
}

// plainChain links a list into a Next chain. Missing ids derive from the
// position so that decoding is deterministic.
func (d *Decoder) plainChain(list []plainBlock, idPrefix string) (*Node, error) {
	var head, prev *Node
	for i := range list {
		id := list[i].ID
		if id == "" {
			id = idPrefix + strconv.Itoa(i+1)
		}
		n, err := d.plainNode(list[i], id)
		if err != nil {
			return nil, err
		}
		if prev == nil {
			head = n
		} else {
			prev.Next = n
		}
		prev = n
	}
	return head, nil
}

func (d *Decoder) plainNode(b plainBlock, id string) (*Node, error) {
	if b.Type == "" {
		return nil, fmt.Errorf("block %s: type is required", id)
	}
	n := &Node{ID: id, Kind: blocks.Kind(b.Type), Disabled: b.Disabled}
	if len(b.Fields) > 0 {
		n.Fields = make(map[string]string, len(b.Fields))
		for k, v := range b.Fields {
			n.Fields[k] = fieldString(v)
		}
	}

	names := make([]string, 0, len(b.Values))
	for k := range b.Values {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		child, err := d.plainValue(b.Values[name], id+"."+name)
		if err != nil {
			return nil, fmt.Errorf("block %s value %s: %w", id, name, err)
		}
		if child == nil {
			continue
		}
		if n.Values == nil {
			n.Values = map[string]*Node{}
		}
		n.Values[name] = child
	}

	for name, list := range b.Statements {
		head, err := d.plainChain(list, id+"."+name+".")
		if err != nil {
			return nil, err
		}
		if head == nil {
			continue
		}
		if !d.isStatementSlot(n.Kind, name) {
			// Keep it so validation can report the misplaced slot.
			if n.Values == nil {
				n.Values = map[string]*Node{}
			}
			n.Values[name] = head
			continue
		}
		if n.Statements == nil {
			n.Statements = map[string]*Node{}
		}
		n.Statements[name] = head
	}
	return n, nil
}

// plainValue maps a bare scalar onto the matching expression block.
func (d *Decoder) plainValue(v any, id string) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &Node{ID: id, Kind: blocks.KindText, Fields: map[string]string{blocks.FieldText: x}}, nil
	case bool:
		return &Node{ID: id, Kind: blocks.KindBoolean, Fields: map[string]string{blocks.FieldBool: fieldString(x)}}, nil
	case int, int64, uint64, float64:
		return &Node{ID: id, Kind: blocks.KindNumber, Fields: map[string]string{blocks.FieldNum: fieldString(x)}}, nil
	case map[string]any:
		raw, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		var nested plainBlock
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, err
		}
		if nested.ID != "" {
			id = nested.ID
		}
		return d.plainNode(nested, id)
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}
