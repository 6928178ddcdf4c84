package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/strogmv/apiblocks/internal/port"
)

func TestStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New("/api/files")
	if _, err := s.Upload(ctx, "runs/r1.pdf", strings.NewReader("pdf"), "application/pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	url, err := s.PresignGet(ctx, "runs/r1.pdf", time.Minute)
	if err != nil || url != "/api/files/runs/r1.pdf" {
		t.Fatalf("presign = %q, %v", url, err)
	}
	rc, err := s.Download(ctx, "runs/r1.pdf")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "pdf" {
		t.Fatalf("got %q", data)
	}
	_ = s.Delete(ctx, "runs/r1.pdf")
	if _, err := s.Download(ctx, "runs/r1.pdf"); !errors.Is(err, port.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
