package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/amrraster/pkg/observability"
)

// Spinner provides a simple progress indicator with context cancellation support.
// The message can be updated while the spinner runs.
type Spinner struct {
	message string
	width   int // widest message shown, for clearing the line
	out     io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	mu      sync.Mutex
	once    sync.Once
}

// newSpinner creates a new spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		width:   len(message),
		out:     os.Stderr,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				frame := s.frames[i%len(s.frames)]
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// SetMessage replaces the spinner message.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(message) < len(s.message) {
		fmt.Fprintf(s.out, "\r%s", strings.Repeat(" ", s.width+4))
	}
	s.message = message
	s.width = max(s.width, len(message))
}

// Message returns the current spinner message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop stops the spinner and clears the line. It is safe to call more than
// once, and on a spinner that was never started.
func (s *Spinner) Stop() {
	s.cancel()
	s.once.Do(func() { close(s.done) })
	select {
	case <-s.stopped:
	case <-time.After(time.Second):
	}
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width+4))
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled returns true if the spinner was stopped due to context cancellation.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Pipeline Progress
// =============================================================================

// frameProgress shows pipeline events on a spinner.
type frameProgress struct {
	observability.NoopPipelineHooks
	spinner *Spinner
	total   int

	mu   sync.Mutex
	done int
}

// watchPipeline registers a frameProgress for total frames and returns a
// function that unregisters it.
func watchPipeline(s *Spinner, total int) func() {
	observability.SetPipelineHooks(&frameProgress{spinner: s, total: total})
	return observability.Reset
}

func (p *frameProgress) OnScanStart(_ context.Context, bg, ed, _ int) {
	p.spinner.SetMessage(fmt.Sprintf("Scanning frames %d-%d...", bg, ed-1))
}

func (p *frameProgress) OnFrameComplete(_ context.Context, frame int, skipped bool, _ time.Duration, err error) {
	if err != nil {
		return
	}
	p.mu.Lock()
	p.done++
	done := p.done
	p.mu.Unlock()

	verb := "Rasterized"
	if skipped {
		verb = "Skipped"
	}
	p.spinner.SetMessage(fmt.Sprintf("%s frame %d (%d/%d)", verb, frame, done, p.total))
}

func (p *frameProgress) OnScanComplete(_ context.Context, frames, patches int, _ time.Duration, err error) {
	if err != nil {
		return
	}
	p.spinner.SetMessage(fmt.Sprintf("Rasterizing %d frames (%d patches scanned)...", frames, patches))
}
