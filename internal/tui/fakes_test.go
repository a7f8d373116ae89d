package tui_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alkime/captions/internal/bridge"
	"github.com/alkime/captions/internal/content"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type outputChecker struct {
	intervl, timeout time.Duration
}

func defaultChecker() outputChecker {
	return outputChecker{
		intervl: 50 * time.Millisecond,
		timeout: 3 * time.Second,
	}
}

func (o outputChecker) check(t *testing.T, tm *teatest.TestModel, checkFunc func(buf []byte) bool) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), checkFunc,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

func (o outputChecker) checkString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	o.check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	})
}

// checkStrings waits for one stretch of output holding every substring;
// output read by one check is gone for the next.
func (o outputChecker) checkStrings(t *testing.T, tm *teatest.TestModel, substrs ...string) {
	t.Helper()
	o.check(t, tm, func(buf []byte) bool {
		for _, s := range substrs {
			if !bytes.Contains(buf, []byte(s)) {
				return false
			}
		}
		return true
	})
}

type fakeBridge struct {
	mu             sync.Mutex
	startError     string
	transcriptions []string
	starts         int
	stops          int
	cancels        int
}

func (b *fakeBridge) StartRecording(context.Context) bridge.Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.starts++
	if b.startError != "" {
		return bridge.Result{Error: b.startError}
	}

	return bridge.Result{Success: true}
}

func (b *fakeBridge) StopRecording(context.Context) bridge.Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stops++
	text := ""
	if len(b.transcriptions) > 0 {
		text, b.transcriptions = b.transcriptions[0], b.transcriptions[1:]
	}

	return bridge.Result{Success: true, Transcription: text}
}

func (b *fakeBridge) CancelRecording(context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancels++
}

func (b *fakeBridge) stopCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.stops
}

type fakeCaptioner struct {
	mu       sync.Mutex
	captions []*content.Caption
	requests []string
	// gate, when set, holds every request until it is closed or cancelled.
	gate chan struct{}
}

func (f *fakeCaptioner) GenerateCaption(ctx context.Context, text string) (*content.Caption, error) {
	f.mu.Lock()
	f.requests = append(f.requests, text)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.captions) == 0 {
		return &content.Caption{}, nil
	}

	c := f.captions[0]
	if len(f.captions) > 1 {
		f.captions = f.captions[1:]
	}

	return c, nil
}

func (f *fakeCaptioner) lastRequest() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.requests) == 0 {
		return ""
	}

	return f.requests[len(f.requests)-1]
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text

	return nil
}

func (c *fakeClipboard) copied() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.text
}

type fakeDial struct {
	num, limit int64
}

func (d fakeDial) Read() int64 { return d.num }

func (d fakeDial) Cap() (int64, int64) { return d.num, d.limit }
