// Package wizard sequences recording, transcription and captioning of a
// photo description. The Controller owns the session and drives a View;
// every failure ends up as a toast and the user can retry.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alkime/captions/internal/bridge"
	"github.com/alkime/captions/internal/history"
	"github.com/alkime/captions/pkg/collections"
)

var (
	// ErrBusy is returned when a request is already in flight.
	ErrBusy = errors.New("another request is in progress")
	// ErrStale is returned when StartOver ran while the request was in flight;
	// its result was discarded.
	ErrStale              = errors.New("request superseded by start over")
	ErrEmptyTranscription = errors.New("no transcription provided")
	ErrNoDetails          = errors.New("no additional details provided")
	ErrNotRecording       = errors.New(bridge.MsgNotRecording)
	ErrAlreadyRecording   = errors.New(bridge.MsgAlreadyRecording)
	ErrInvalidStep        = errors.New("action not available on this step")
)

// Toast texts.
const (
	toastNoDetails = "⚠️ Please add some details first"
	toastCopied    = "✓ Copied to clipboard!"
)

const (
	loadingTranscribing = "Transcribing..."
	loadingGenerating   = "Generating caption..."
)

// Config holds optional collaborators and behaviour switches.
type Config struct {
	Flow      Flow
	Archive   Archive
	Clipboard Clipboard
	Logger    *slog.Logger
}

type recording struct {
	target Target
}

// Controller is the wizard state machine. It is safe for concurrent use;
// only one bridge or caption request runs at a time.
type Controller struct {
	bridge    Bridge
	captioner Captioner
	view      View
	archive   Archive
	clipboard Clipboard
	flow      Flow
	logger    *slog.Logger

	mu        sync.Mutex
	session   Session
	step      Step
	recording *recording
	busy      bool
	epoch     uint64
	cancel    context.CancelFunc
}

// New creates a controller on the Record step.
func New(cfg Config, br Bridge, captioner Captioner, view View) *Controller {
	if cfg.Flow == "" {
		cfg.Flow = FlowPreview
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Controller{
		bridge:    br,
		captioner: captioner,
		view:      view,
		archive:   cfg.Archive,
		clipboard: cfg.Clipboard,
		flow:      cfg.Flow,
		logger:    cfg.Logger.With("component", "wizard"),
		session:   newSession(),
		step:      StepRecord,
	}
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session.clone()
}

// Step returns the active step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.step
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.busy
}

// Recording returns the target of the active recording, if any.
func (c *Controller) Recording() (Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording == nil {
		return TargetPrimary, false
	}

	return c.recording.target, true
}

// beginLocked marks a request in flight and derives its context.
func (c *Controller) beginLocked(ctx context.Context) (context.Context, uint64, error) {
	if c.busy {
		return nil, 0, ErrBusy
	}

	reqCtx, cancel := context.WithCancel(ctx)
	c.busy = true
	c.cancel = cancel

	return reqCtx, c.epoch, nil
}

// finishLocked ends the request started at epoch. A request that
// StartOver already abandoned leaves the state alone.
func (c *Controller) finishLocked(epoch uint64) {
	if epoch != c.epoch {
		return
	}

	c.busy = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) showStepLocked(step Step) {
	c.step = step
	c.view.ShowStep(step)
}

// StartRecording asks the bridge to start recording for target.
func (c *Controller) StartRecording(ctx context.Context, target Target) error {
	c.mu.Lock()
	if c.recording != nil {
		c.view.ShowToast("⚠️ " + bridge.MsgAlreadyRecording)
		c.mu.Unlock()
		return ErrAlreadyRecording
	}

	reqCtx, epoch, err := c.beginLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	res := c.bridge.StartRecording(reqCtx)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		if res.Success {
			c.cancelBridgeRecording(ctx)
		}
		return ErrStale
	}
	defer c.mu.Unlock()
	c.finishLocked(epoch)

	if !res.Success {
		msg := orDefault(res.Error, defaultStartError)
		c.logger.Warn("failed to start recording", "target", target, "error", msg)
		c.view.ShowToast("⚠️ " + msg)
		return fmt.Errorf("failed to start recording: %w", errors.New(msg))
	}

	c.recording = &recording{target: target}
	c.view.SetRecordingStatus(target, StatusRecording)
	c.logger.Info("recording started", "target", target, "session", c.session.ID)

	return nil
}

// StopRecording stops the recording for target and applies its transcription.
func (c *Controller) StopRecording(ctx context.Context, target Target) error {
	c.mu.Lock()
	if c.recording == nil || c.recording.target != target {
		c.view.ShowToast("⚠️ Error: " + bridge.MsgNotRecording)
		c.mu.Unlock()
		return ErrNotRecording
	}

	reqCtx, epoch, err := c.beginLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.view.SetRecordingStatus(target, StatusProcessing)
	c.view.ShowLoading(loadingTranscribing)
	c.mu.Unlock()

	res := c.bridge.StopRecording(reqCtx)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return ErrStale
	}

	c.recording = nil
	c.view.HideLoading()
	c.view.SetRecordingStatus(target, StatusIdle)

	if !res.Success {
		msg := orDefault(res.Error, defaultStopError)
		c.view.ShowToast("⚠️ Error: " + msg)
		c.finishLocked(epoch)
		c.mu.Unlock()

		c.logger.Warn("failed to stop recording", "target", target, "error", msg)

		return fmt.Errorf("failed to process recording: %w", errors.New(msg))
	}

	if target == TargetAdditional {
		c.session.AdditionalDetails = mergeRecording(c.session.AdditionalDetails, res.Transcription)
		c.view.SetAdditionalDetails(c.session.AdditionalDetails)
		c.view.SetUpdateEnabled(true)
		c.finishLocked(epoch)
		c.mu.Unlock()

		return nil
	}

	c.session.Transcription = res.Transcription
	c.logger.Info("recording transcribed", "session", c.session.ID, "chars", len(res.Transcription))

	if c.flow == FlowAuto {
		c.mu.Unlock()
		return c.generate(reqCtx, epoch)
	}

	c.view.ShowTranscriptionPreview(PreviewText(res.Transcription), res.Transcription)
	c.showStepLocked(StepGenerate)
	c.finishLocked(epoch)
	c.mu.Unlock()

	return nil
}

// GenerateCaption requests a caption for the current transcription plus
// any pending details.
func (c *Controller) GenerateCaption(ctx context.Context) error {
	c.mu.Lock()
	reqCtx, epoch, err := c.beginLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.generate(reqCtx, epoch)
}

// generate runs the caption request for an already-begun request.
func (c *Controller) generate(ctx context.Context, epoch uint64) error {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return ErrStale
	}

	if strings.TrimSpace(c.session.Transcription) == "" {
		c.finishLocked(epoch)
		c.view.ShowToast("⚠️ Error: No transcription provided")
		c.mu.Unlock()
		return ErrEmptyTranscription
	}

	request := WithDetails(c.session.Transcription, c.session.AdditionalDetails)
	c.view.ShowLoading(loadingGenerating)
	c.mu.Unlock()

	caption, err := c.captioner.GenerateCaption(ctx, request)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return ErrStale
	}

	c.view.HideLoading()
	c.finishLocked(epoch)

	if err != nil {
		c.view.ShowToast("⚠️ Error: " + err.Error())
		c.mu.Unlock()
		c.logger.Error("failed to generate caption", "error", err)
		return fmt.Errorf("failed to generate caption: %w", err)
	}

	c.session.Caption = orDefault(caption.FormattedCaption, fallbackCaption)
	c.session.MissingInformation = collections.Clone(caption.MissingInformation)
	c.session.FollowUpQuestions = collections.Clone(caption.FollowUpQuestions)

	c.view.ShowCaption(c.session.Caption)
	c.view.ShowMissingInfo(collections.Clone(c.session.MissingInformation))
	c.showStepLocked(StepResult)

	entry := history.Entry{
		ID:                 c.session.ID,
		Transcription:      c.session.Transcription,
		Caption:            c.session.Caption,
		MissingInformation: collections.Clone(c.session.MissingInformation),
		FollowUpQuestions:  collections.Clone(c.session.FollowUpQuestions),
	}
	c.mu.Unlock()

	c.logger.Info("caption generated",
		"session", entry.ID,
		"missing", len(entry.MissingInformation),
		"followUps", len(entry.FollowUpQuestions))

	if c.archive != nil {
		if err := c.archive.Save(context.WithoutCancel(ctx), entry); err != nil {
			c.logger.Warn("failed to archive caption", "session", entry.ID, "error", err)
		}
	}

	return nil
}

// UpdateCaption folds the pending details into the transcription and
// regenerates the caption.
func (c *Controller) UpdateCaption(ctx context.Context) error {
	c.mu.Lock()
	details := strings.TrimSpace(c.session.AdditionalDetails)
	if details == "" {
		c.view.ShowToast(toastNoDetails)
		c.mu.Unlock()
		return ErrNoDetails
	}

	reqCtx, epoch, err := c.beginLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.session.Transcription = WithDetails(c.session.Transcription, details)
	c.session.AdditionalDetails = ""
	c.view.SetAdditionalDetails("")
	c.mu.Unlock()

	return c.generate(reqCtx, epoch)
}

// StartOver abandons any in-flight request and recording and returns to
// the Record step with a fresh session.
func (c *Controller) StartOver(ctx context.Context) {
	c.mu.Lock()
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.busy = false

	wasRecording := c.recording != nil
	c.recording = nil
	c.session = newSession()

	c.view.Reset()
	c.showStepLocked(StepRecord)
	c.mu.Unlock()

	if wasRecording {
		c.cancelBridgeRecording(ctx)
	}

	c.logger.Info("wizard reset")
}

func (c *Controller) cancelBridgeRecording(ctx context.Context) {
	if canceler, ok := c.bridge.(Canceler); ok {
		canceler.CancelRecording(ctx)
	}
}

// OpenAddDetails moves from the result to the add-details step with an
// empty details input.
func (c *Controller) OpenAddDetails() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepResult {
		return ErrInvalidStep
	}

	c.view.ShowMissingInfoReminder(collections.Clone(c.session.MissingInformation))
	c.session.AdditionalDetails = ""
	c.view.SetAdditionalDetails("")
	c.view.SetUpdateEnabled(false)
	c.showStepLocked(StepAddDetails)

	return nil
}

// CancelAddDetails returns to the result step, dropping an unfinished
// details recording.
func (c *Controller) CancelAddDetails(ctx context.Context) error {
	c.mu.Lock()
	if c.step != StepAddDetails {
		c.mu.Unlock()
		return ErrInvalidStep
	}

	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}

	wasRecording := c.recording != nil
	if wasRecording {
		c.view.SetRecordingStatus(c.recording.target, StatusIdle)
		c.recording = nil
	}
	c.showStepLocked(StepResult)
	c.mu.Unlock()

	if wasRecording {
		c.cancelBridgeRecording(ctx)
	}

	return nil
}

// SetAdditionalDetails records what the user typed into the details input.
func (c *Controller) SetAdditionalDetails(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.AdditionalDetails = text
	c.view.SetUpdateEnabled(strings.TrimSpace(text) != "")
}

// CopyCaption puts the caption on the clipboard.
func (c *Controller) CopyCaption() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clipboard == nil {
		c.view.ShowToast("⚠️ Clipboard unavailable")
		return errors.New("no clipboard configured")
	}

	if err := c.clipboard.Copy(c.session.Caption); err != nil {
		c.view.ShowToast("⚠️ Error: " + err.Error())
		return fmt.Errorf("failed to copy caption: %w", err)
	}

	c.view.ShowToast(toastCopied)

	return nil
}
