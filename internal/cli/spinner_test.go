package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/amrraster/pkg/observability"
)

func TestSpinnerBasic(t *testing.T) {
	s := newSpinner("Testing...")
	var buf bytes.Buffer
	s.out = &buf
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Testing...") {
		t.Errorf("spinner output = %q, want message", buf.String())
	}
	// Stop cancels the spinner context.
	if !s.Cancelled() {
		t.Error("Cancelled() = false after Stop")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.out = &bytes.Buffer{}
	s.Start()

	// Cancel the context
	cancel()

	// Give goroutine time to notice cancellation
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Testing idempotent stop...")
	s.out = &bytes.Buffer{}
	s.Start()

	// Stop multiple times should not panic
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerSetMessage(t *testing.T) {
	s := newSpinner("Scanning frames 0-9...")
	var buf bytes.Buffer
	s.out = &buf
	s.Start()
	s.SetMessage("Rasterized frame 1 (1/10)")
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if got := s.Message(); got != "Rasterized frame 1 (1/10)" {
		t.Errorf("Message() = %q", got)
	}
	if !strings.Contains(buf.String(), "Rasterized frame 1 (1/10)") {
		t.Errorf("spinner output = %q, want updated message", buf.String())
	}
}

func TestWatchPipeline(t *testing.T) {
	s := newSpinner("Starting...")
	s.out = &bytes.Buffer{}
	unwatch := watchPipeline(s, 3)

	ctx := context.Background()
	observability.Pipeline().OnScanStart(ctx, 0, 3, 0)
	if got := s.Message(); got != "Scanning frames 0-2..." {
		t.Errorf("after scan start: %q", got)
	}
	observability.Pipeline().OnScanComplete(ctx, 3, 6, time.Millisecond, nil)
	if got := s.Message(); got != "Rasterizing 3 frames (6 patches scanned)..." {
		t.Errorf("after scan: %q", got)
	}
	observability.Pipeline().OnFrameComplete(ctx, 0, false, time.Millisecond, nil)
	observability.Pipeline().OnFrameComplete(ctx, 1, true, 0, nil)
	if got := s.Message(); got != "Skipped frame 1 (2/3)" {
		t.Errorf("after two frames: %q", got)
	}

	unwatch()
	if _, ok := observability.Pipeline().(observability.NoopPipelineHooks); !ok {
		t.Error("unwatch should restore the no-op hooks")
	}
}
