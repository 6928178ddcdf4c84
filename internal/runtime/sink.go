package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Level tags an observation for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWait    Level = "wait"
	LevelMessage Level = "message"
	LevelError   Level = "error"
)

// Line is one observation emitted while a program runs.
type Line struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	BlockID string    `json:"blockId,omitempty"`
	Text    string    `json:"text"`
}

// Sink receives observations in emission order.
type Sink interface {
	Observe(Line)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Line)

func (f SinkFunc) Observe(l Line) { f(l) }

// Lines collects observations in memory.
type Lines struct {
	mu    sync.Mutex
	lines []Line
}

func (s *Lines) Observe(l Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, l)
}

// All returns a copy of everything observed so far.
func (s *Lines) All() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Texts returns just the text of each observation.
func (s *Lines) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.Text
	}
	return out
}

// Tee fans every observation out to all sinks, skipping nil ones.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(l Line) {
		for _, s := range sinks {
			if s != nil {
				s.Observe(l)
			}
		}
	})
}

// LogSink writes observations to a structured logger.
func LogSink(ctx context.Context, logger *slog.Logger) Sink {
	return SinkFunc(func(l Line) {
		level := slog.LevelInfo
		if l.Level == LevelError {
			level = slog.LevelError
		}
		logger.Log(ctx, level, l.Text,
			slog.String("block_id", l.BlockID),
			slog.String("kind", string(l.Level)),
		)
	})
}
