// Package workspace holds the block tree handed over by the editor and the
// loaders that decode it from the supported serializations.
package workspace

import "github.com/strogmv/apiblocks/compiler/blocks"

// Node is one block instance.
type Node struct {
	ID         string
	Kind       blocks.Kind
	Fields     map[string]string
	Values     map[string]*Node
	Statements map[string]*Node
	Next       *Node
	Disabled   bool
	// Extra carries editor mutation state (text_join itemCount).
	Extra map[string]any
}

// Chain returns n followed by every block linked through Next.
func (n *Node) Chain() []*Node {
	var out []*Node
	for cur := n; cur != nil; cur = cur.Next {
		out = append(out, cur)
	}
	return out
}

// Field returns the field value and whether it was set.
func (n *Node) Field(name string) (string, bool) {
	if n == nil || n.Fields == nil {
		return "", false
	}
	v, ok := n.Fields[name]
	return v, ok
}

// Program is the ordered list of top-level chains.
type Program struct {
	Name  string
	Roots []*Node
}

// Count returns the number of blocks in p, expression blocks included.
func (p *Program) Count() int {
	total := 0
	var visit func(n *Node)
	visit = func(n *Node) {
		for _, cur := range n.Chain() {
			total++
			for _, v := range cur.Values {
				visit(v)
			}
			for _, s := range cur.Statements {
				visit(s)
			}
		}
	}
	for _, r := range p.Roots {
		visit(r)
	}
	return total
}
