package domain

import (
	"testing"
	"time"

	"github.com/strogmv/apiblocks/internal/runtime"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()
	cases := map[runtime.Kind]RunStatus{
		runtime.KindNone:             RunPassed,
		runtime.KindAssertionFailure: RunFailed,
		runtime.KindMissingContext:   RunErrored,
		runtime.KindRequestFailure:   RunErrored,
		runtime.KindCanceled:         RunCanceled,
		runtime.KindInternal:         RunErrored,
	}
	for kind, want := range cases {
		if got := StatusFor(kind); got != want {
			t.Fatalf("StatusFor(%q) = %q, want %q", kind, got, want)
		}
	}
}

func TestRunDuration(t *testing.T) {
	t.Parallel()
	start := time.Unix(100, 0)
	r := &Run{StartedAt: start}
	if r.Duration() != 0 {
		t.Fatalf("unfinished run must report zero duration")
	}
	r.FinishedAt = start.Add(1500 * time.Millisecond)
	if r.Duration() != 1500*time.Millisecond {
		t.Fatalf("got %s", r.Duration())
	}
}
