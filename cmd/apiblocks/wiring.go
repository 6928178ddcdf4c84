package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/strogmv/apiblocks/internal/adapter/cache/memory"
	"github.com/strogmv/apiblocks/internal/adapter/cache/redis"
	"github.com/strogmv/apiblocks/internal/adapter/events/nats"
	"github.com/strogmv/apiblocks/internal/adapter/events/noop"
	runmemory "github.com/strogmv/apiblocks/internal/adapter/repository/memory"
	"github.com/strogmv/apiblocks/internal/adapter/repository/postgres"
	storemem "github.com/strogmv/apiblocks/internal/adapter/storage/memory"
	"github.com/strogmv/apiblocks/internal/adapter/storage/s3"
	"github.com/strogmv/apiblocks/internal/config"
	"github.com/strogmv/apiblocks/internal/pkg/circuitbreaker"
	"github.com/strogmv/apiblocks/internal/pkg/report"
	"github.com/strogmv/apiblocks/internal/port"
	"github.com/strogmv/apiblocks/internal/service"
	"github.com/strogmv/apiblocks/internal/transport/httpclient"
)

// stack is a runner with the adapters cfg selects. Every external adapter
// is optional; without its setting the in-memory or no-op one is used.
type stack struct {
	runner    *service.Runner
	transport *httpclient.Client
	closers   []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildStack(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stack, error) {
	st := &stack{}
	deps := service.Deps{Logger: log}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		deps.Runs = postgres.NewRunRepository(pool)
		log.Info("run repository", "backend", "postgres")
	} else {
		deps.Runs = runmemory.NewRunRepository()
		log.Info("run repository", "backend", "memory")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(cfg.RedisAddr)
		store := redis.NewProgramStore(client, cfg.ProgramTTL)
		if err := store.Ping(ctx); err != nil {
			st.Close()
			_ = client.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		deps.Programs = store
		log.Info("program store", "backend", "redis")
	} else {
		deps.Programs = memory.NewProgramStore()
		log.Info("program store", "backend", "memory")
	}

	var publisher port.Publisher = noop.Publisher{}
	if cfg.NATSURL != "" {
		nc, err := nats.NewClient(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("nats: %w", err)
		}
		st.closers = append(st.closers, nc.Close)
		publisher = nc
		log.Info("run events", "backend", "nats", "subject", cfg.NATSSubject)
	}
	deps.Publisher = publisher

	if cfg.S3Bucket != "" {
		store, err := s3.New(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Endpoint)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("s3: %w", err)
		}
		deps.Storage = store
		log.Info("report storage", "backend", "s3", "bucket", cfg.S3Bucket)
	} else {
		// Served back by the API under /api/files.
		deps.Storage = storemem.New("/api/files")
		log.Info("report storage", "backend", "memory")
	}

	st.transport = httpclient.New(httpclient.Options{
		Timeout: cfg.RequestTimeout,
		Breaker: circuitbreaker.Settings{
			Threshold: cfg.BreakerThreshold,
			Cooldown:  cfg.BreakerCooldown,
		},
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	deps.Transport = st.transport
	deps.Reports = report.NewGenerator(nil)

	st.runner = service.NewRunner(deps)
	return st, nil
}
