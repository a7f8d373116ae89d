package wizard_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alkime/captions/internal/bridge"
	"github.com/alkime/captions/internal/content"
	"github.com/alkime/captions/internal/history"
	"github.com/alkime/captions/internal/wizard"
)

// fakeView keeps the latest value of everything the controller showed and a
// log of calls.
type fakeView struct {
	mu sync.Mutex

	calls         []string
	step          wizard.Step
	status        map[wizard.Target]wizard.RecordingStatus
	loading       string
	toasts        []string
	preview       string
	full          string
	caption       string
	missing       []string
	missingShown  bool
	reminder      []string
	details       string
	updateEnabled bool
	resets        int
}

func newFakeView() *fakeView {
	return &fakeView{status: map[wizard.Target]wizard.RecordingStatus{}}
}

func (v *fakeView) log(format string, args ...any) {
	v.calls = append(v.calls, fmt.Sprintf(format, args...))
}

func (v *fakeView) ShowStep(step wizard.Step) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("step %s", step)
	v.step = step
}

func (v *fakeView) SetRecordingStatus(target wizard.Target, status wizard.RecordingStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("status %s %q", target, status)
	v.status[target] = status
}

func (v *fakeView) ShowLoading(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("loading %s", message)
	v.loading = message
}

func (v *fakeView) HideLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("hide loading")
	v.loading = ""
}

func (v *fakeView) ShowToast(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("toast %s", message)
	v.toasts = append(v.toasts, message)
}

func (v *fakeView) ShowTranscriptionPreview(preview, full string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("preview")
	v.preview, v.full = preview, full
}

func (v *fakeView) ShowCaption(caption string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("caption")
	v.caption = caption
}

func (v *fakeView) ShowMissingInfo(items []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("missing %d", len(items))
	v.missing = items
	v.missingShown = len(items) > 0
}

func (v *fakeView) ShowMissingInfoReminder(items []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reminder = items
}

func (v *fakeView) SetAdditionalDetails(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.details = text
}

func (v *fakeView) SetUpdateEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updateEnabled = enabled
}

func (v *fakeView) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log("reset")
	v.resets++
	v.status = map[wizard.Target]wizard.RecordingStatus{}
	v.loading, v.preview, v.full, v.caption, v.details = "", "", "", "", ""
	v.missing, v.reminder, v.missingShown, v.updateEnabled = nil, nil, false, false
}

func (v *fakeView) lastToast() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.toasts) == 0 {
		return ""
	}
	return v.toasts[len(v.toasts)-1]
}

func (v *fakeView) callLog() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return strings.Join(v.calls, "\n")
}

// fakeBridge answers with queued results. When gate is set, StopRecording
// waits on it (or on ctx) before answering.
type fakeBridge struct {
	mu          sync.Mutex
	startResult bridge.Result
	stopResults []bridge.Result
	gate        chan struct{}
	entered     chan struct{}
	starts      int
	stops       int
	cancels     int
}

func newFakeBridge(transcriptions ...string) *fakeBridge {
	b := &fakeBridge{startResult: bridge.Result{Success: true}}
	for _, text := range transcriptions {
		b.stopResults = append(b.stopResults, bridge.Result{Success: true, Transcription: text})
	}
	return b
}

func (b *fakeBridge) StartRecording(context.Context) bridge.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts++
	return b.startResult
}

func (b *fakeBridge) StopRecording(ctx context.Context) bridge.Result {
	b.mu.Lock()
	b.stops++
	gate, entered := b.gate, b.entered
	b.mu.Unlock()

	if entered != nil {
		close(entered)
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return bridge.Result{Error: ctx.Err().Error()}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.stopResults) == 0 {
		return bridge.Result{Error: bridge.MsgNoAudio}
	}
	res := b.stopResults[0]
	b.stopResults = b.stopResults[1:]
	return res
}

func (b *fakeBridge) CancelRecording(context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancels++
}

// fakeCaptioner records every request and answers with caption or err.
type fakeCaptioner struct {
	mu       sync.Mutex
	requests []string
	caption  *content.Caption
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeCaptioner) GenerateCaption(ctx context.Context, text string) (*content.Caption, error) {
	f.mu.Lock()
	f.requests = append(f.requests, text)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	c := *f.caption
	return &c, nil
}

func (f *fakeCaptioner) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

type fakeArchive struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (a *fakeArchive) Save(_ context.Context, e history.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) Copy(text string) error {
	c.text = text
	return c.err
}
