package port

import "context"

// ProgramStore keeps canonical program JSON addressed by its hash.
type ProgramStore interface {
	Put(ctx context.Context, hash string, canonical []byte) error
	Get(ctx context.Context, hash string) ([]byte, error)
}
