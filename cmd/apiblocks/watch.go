package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/strogmv/apiblocks/internal/adapter/events/nats"
	"github.com/strogmv/apiblocks/internal/config"
	"github.com/strogmv/apiblocks/internal/domain"
)

func runWatch(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML or JSON config file")
	url := fs.String("url", "", "NATS URL (overrides NATS_URL)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *url != "" {
		cfg.NATSURL = *url
	}
	if cfg.NATSURL == "" {
		return fmt.Errorf("watch needs NATS_URL or -url")
	}

	client, err := nats.NewClient(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return err
	}
	defer client.Close()

	var mu sync.Mutex
	sub, err := client.Subscribe(func(subject string, data []byte) error {
		line, err := formatEvent(subject, data)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		_, err = fmt.Fprintln(stdout, line)
		return err
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(os.Stderr, "watching %s.> on %s\n", cfg.NATSSubject, cfg.NATSURL)
	<-ctx.Done()
	return nil
}

// formatEvent renders one published run event as a terminal line.
func formatEvent(subject string, data []byte) (string, error) {
	kind := subject[strings.LastIndexByte(subject, '.')+1:]
	switch kind {
	case "started":
		var ev domain.RunStarted
		if err := json.Unmarshal(data, &ev); err != nil {
			return "", err
		}
		return fmt.Sprintf("▶ %s %s (%s)", ev.RunID, ev.ProgramName, shortHash(ev.ProgramHash)), nil
	case "observed":
		var ev domain.RunObserved
		if err := json.Unmarshal(data, &ev); err != nil {
			return "", err
		}
		return fmt.Sprintf("  %s %s [%s] %s", ev.RunID, levelMarks[ev.Line.Level], ev.Line.BlockID, ev.Line.Text), nil
	case "finished":
		var ev domain.RunFinished
		if err := json.Unmarshal(data, &ev); err != nil {
			return "", err
		}
		out := fmt.Sprintf("■ %s %s in %dms", ev.RunID, ev.Status, ev.DurationMS)
		if ev.FailureKind != "" {
			out += " (" + string(ev.FailureKind) + ")"
		}
		return out, nil
	default:
		return fmt.Sprintf("? %s %s", subject, data), nil
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
