package workspace

import (
	"encoding/json"
	"sort"

	"github.com/strogmv/apiblocks/compiler/blocks"
)

type blocklyWorkspace struct {
	Blocks struct {
		LanguageVersion int            `json:"languageVersion"`
		Blocks          []blocklyBlock `json:"blocks"`
	} `json:"blocks"`
}

type blocklyBlock struct {
	Type       string                  `json:"type"`
	ID         string                  `json:"id"`
	X          float64                 `json:"x"`
	Y          float64                 `json:"y"`
	Enabled    *bool                   `json:"enabled,omitempty"`
	Disabled   bool                    `json:"disabled,omitempty"`
	Fields     map[string]any          `json:"fields,omitempty"`
	Inputs     map[string]blocklyInput `json:"inputs,omitempty"`
	Next       *blocklyInput           `json:"next,omitempty"`
	ExtraState json.RawMessage         `json:"extraState,omitempty"`
}

// blocklyInput is a connection: a real block, a shadow, or both.
type blocklyInput struct {
	Block  *blocklyBlock `json:"block,omitempty"`
	Shadow *blocklyBlock `json:"shadow,omitempty"`
}

func (in blocklyInput) target() *blocklyBlock {
	if in.Block != nil {
		return in.Block
	}
	return in.Shadow
}

func (d *Decoder) fromBlockly(ws blocklyWorkspace) (*Program, error) {
	tops := make([]blocklyBlock, len(ws.Blocks.Blocks))
	copy(tops, ws.Blocks.Blocks)
	// Top stacks run top to bottom, then left to right.
	sort.SliceStable(tops, func(i, j int) bool {
		if tops[i].Y != tops[j].Y {
			return tops[i].Y < tops[j].Y
		}
		return tops[i].X < tops[j].X
	})

	p := &Program{}
	for i := range tops {
		p.Roots = append(p.Roots, d.blocklyNode(&tops[i]))
	}
	return p, nil
}

func (d *Decoder) blocklyNode(b *blocklyBlock) *Node {
	n := &Node{
		ID:       b.ID,
		Kind:     blocks.Kind(b.Type),
		Disabled: b.Disabled || (b.Enabled != nil && !*b.Enabled),
	}
	if len(b.Fields) > 0 {
		n.Fields = make(map[string]string, len(b.Fields))
		for k, v := range b.Fields {
			n.Fields[k] = fieldString(v)
		}
	}
	for name, in := range b.Inputs {
		target := in.target()
		if target == nil {
			continue
		}
		child := d.blocklyNode(target)
		if d.isStatementSlot(n.Kind, name) {
			if n.Statements == nil {
				n.Statements = map[string]*Node{}
			}
			n.Statements[name] = child
			continue
		}
		if n.Values == nil {
			n.Values = map[string]*Node{}
		}
		n.Values[name] = child
	}
	if b.Next != nil {
		if next := b.Next.target(); next != nil {
			n.Next = d.blocklyNode(next)
		}
	}
	if len(b.ExtraState) > 0 && b.ExtraState[0] == '{' {
		var extra map[string]any
		if err := json.Unmarshal(b.ExtraState, &extra); err == nil {
			n.Extra = extra
		}
	}
	return n
}
