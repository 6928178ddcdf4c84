package port

import (
	"context"

	"github.com/strogmv/apiblocks/internal/domain"
)

type Publisher interface {
	PublishRunStarted(ctx context.Context, event domain.RunStarted) error
	PublishRunObserved(ctx context.Context, event domain.RunObserved) error
	PublishRunFinished(ctx context.Context, event domain.RunFinished) error
}
