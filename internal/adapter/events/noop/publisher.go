// Package noop discards run events when no broker is configured.
package noop

import (
	"context"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/port"
)

type Publisher struct{}

var _ port.Publisher = Publisher{}

func (Publisher) PublishRunStarted(context.Context, domain.RunStarted) error   { return nil }
func (Publisher) PublishRunObserved(context.Context, domain.RunObserved) error { return nil }
func (Publisher) PublishRunFinished(context.Context, domain.RunFinished) error { return nil }
