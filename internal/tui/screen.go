package tui

import (
	"sync"

	"github.com/alkime/captions/internal/wizard"
	"github.com/alkime/captions/pkg/channels"
	"github.com/alkime/captions/pkg/collections"
)

// Snapshot is everything the wizard has asked the screen to show.
type Snapshot struct {
	Step           wizard.Step
	Status         map[wizard.Target]wizard.RecordingStatus
	Loading        string
	LoadingVisible bool
	Toast          string
	// ToastID changes every time a toast is shown, even with the same text.
	ToastID           uint64
	Preview           string
	FullTranscription string
	Caption           string
	MissingInfo       []string
	Reminder          []string
	Details           string
	// DetailsRev changes when the wizard replaces the details text.
	DetailsRev    uint64
	UpdateEnabled bool
}

// StatusOf returns the recording status shown for target.
func (s Snapshot) StatusOf(target wizard.Target) wizard.RecordingStatus {
	return s.Status[target]
}

// Screen implements wizard.View by recording state into a snapshot and
// signalling the bubbletea model. It never blocks the caller.
type Screen struct {
	mu      sync.Mutex
	snap    Snapshot
	changed chan struct{}
}

var _ wizard.View = (*Screen)(nil)

// NewScreen returns a screen on the Record step.
func NewScreen() *Screen {
	s := &Screen{changed: make(chan struct{}, 1)}
	s.snap = emptySnapshot()

	return s
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Step:   wizard.StepRecord,
		Status: map[wizard.Target]wizard.RecordingStatus{},
	}
}

// Changes fires at least once after any number of updates.
func (s *Screen) Changes() <-chan struct{} {
	return s.changed
}

// Snapshot returns a copy of the current state.
func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap
	snap.Status = make(map[wizard.Target]wizard.RecordingStatus, len(s.snap.Status))
	for k, v := range s.snap.Status {
		snap.Status[k] = v
	}
	snap.MissingInfo = collections.Clone(s.snap.MissingInfo)
	snap.Reminder = collections.Clone(s.snap.Reminder)

	return snap
}

func (s *Screen) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.mu.Unlock()

	// A full channel already holds a pending notification.
	_ = channels.SendNonBlock(s.changed, struct{}{})
}

// DismissToast clears the toast if it is still the one with id.
func (s *Screen) DismissToast(id uint64) {
	s.update(func(snap *Snapshot) {
		if snap.ToastID == id {
			snap.Toast = ""
		}
	})
}

func (s *Screen) ShowStep(step wizard.Step) {
	s.update(func(snap *Snapshot) { snap.Step = step })
}

func (s *Screen) SetRecordingStatus(target wizard.Target, status wizard.RecordingStatus) {
	s.update(func(snap *Snapshot) { snap.Status[target] = status })
}

func (s *Screen) ShowLoading(message string) {
	s.update(func(snap *Snapshot) {
		snap.Loading = message
		snap.LoadingVisible = true
	})
}

func (s *Screen) HideLoading() {
	s.update(func(snap *Snapshot) { snap.LoadingVisible = false })
}

func (s *Screen) ShowToast(message string) {
	s.update(func(snap *Snapshot) {
		snap.Toast = message
		snap.ToastID++
	})
}

func (s *Screen) ShowTranscriptionPreview(preview, full string) {
	s.update(func(snap *Snapshot) {
		snap.Preview = preview
		snap.FullTranscription = full
	})
}

func (s *Screen) ShowCaption(caption string) {
	s.update(func(snap *Snapshot) { snap.Caption = caption })
}

func (s *Screen) ShowMissingInfo(items []string) {
	s.update(func(snap *Snapshot) { snap.MissingInfo = collections.Clone(items) })
}

func (s *Screen) ShowMissingInfoReminder(items []string) {
	s.update(func(snap *Snapshot) { snap.Reminder = collections.Clone(items) })
}

func (s *Screen) SetAdditionalDetails(text string) {
	s.update(func(snap *Snapshot) {
		snap.Details = text
		snap.DetailsRev++
	})
}

func (s *Screen) SetUpdateEnabled(enabled bool) {
	s.update(func(snap *Snapshot) { snap.UpdateEnabled = enabled })
}

// Reset clears everything but the toast, which expires on its own.
func (s *Screen) Reset() {
	s.update(func(snap *Snapshot) {
		fresh := emptySnapshot()
		fresh.Toast = snap.Toast
		fresh.ToastID = snap.ToastID
		fresh.DetailsRev = snap.DetailsRev + 1
		*snap = fresh
	})
}
