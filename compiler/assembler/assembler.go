// Package assembler linearizes a workspace into an IR program.
package assembler

import (
	"fmt"

	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/codegen"
	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/compiler/workspace"
)

// Assembler walks top-level chains in order and recurses into statement
// slots. Disabled blocks are left out but the chain continues past them.
type Assembler struct {
	reg *blocks.Registry
}

func New(reg *blocks.Registry) *Assembler {
	if reg == nil {
		reg = blocks.Builtin()
	}
	return &Assembler{reg: reg}
}

// Assemble is New(reg).Assemble(p).
func Assemble(p *workspace.Program, reg *blocks.Registry) (*ir.Program, error) {
	return New(reg).Assemble(p)
}

func (a *Assembler) Assemble(p *workspace.Program) (*ir.Program, error) {
	out := &ir.Program{IRVersion: ir.IRVersion, Name: p.Name}
	for _, root := range p.Roots {
		instrs, err := a.chain(root)
		if err != nil {
			return nil, err
		}
		out.Instrs = append(out.Instrs, instrs...)
	}
	return out, nil
}

func (a *Assembler) chain(head *workspace.Node) ([]ir.Instr, error) {
	var out []ir.Instr
	for _, n := range head.Chain() {
		if n.Disabled {
			continue
		}
		instrs, err := a.statement(n)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	return out, nil
}

func (a *Assembler) statement(n *workspace.Node) ([]ir.Instr, error) {
	shape, err := a.reg.Lookup(n.Kind)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", n.ID, err)
	}
	return codegen.Generate(a.input(n, shape))
}

func (a *Assembler) expression(n *workspace.Node) (ir.Expr, error) {
	shape, err := a.reg.Lookup(n.Kind)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", n.ID, err)
	}
	return codegen.Expression(a.input(n, shape))
}

func (a *Assembler) input(n *workspace.Node, shape blocks.Shape) codegen.Input {
	return codegen.Input{
		Node:  n,
		Shape: shape,
		Value: func(slot string) (ir.Expr, error) {
			decl, ok := shape.Value(slot)
			if !ok {
				return nil, fmt.Errorf("block %s: %s has no value slot %s", n.ID, n.Kind, slot)
			}
			child := n.Values[slot]
			if child == nil || child.Disabled {
				return codegen.DefaultExpr(decl), nil
			}
			return a.expression(child)
		},
		Statements: func(slot string) ([]ir.Instr, error) {
			if !shape.HasStatement(slot) {
				return nil, fmt.Errorf("block %s: %s has no statement slot %s", n.ID, n.Kind, slot)
			}
			head := n.Statements[slot]
			if head == nil {
				return nil, nil
			}
			return a.chain(head)
		},
	}
}
