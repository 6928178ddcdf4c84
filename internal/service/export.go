package service

import (
	"context"

	"github.com/strogmv/apiblocks/compiler"
	"github.com/strogmv/apiblocks/compiler/emitter"
)

// ExportGo renders a stored program as a standalone Go main package.
func (s *Runner) ExportGo(ctx context.Context, hash string) ([]byte, error) {
	p, err := s.Program(ctx, hash)
	if err != nil {
		return nil, err
	}
	src, err := emitter.New("", compiler.Version).GoSource(p, hash)
	if err != nil {
		return nil, compiler.WrapContractError(compiler.StageEmit, compiler.ErrCodeEmitGoSource, "render go source", err)
	}
	return src, nil
}
