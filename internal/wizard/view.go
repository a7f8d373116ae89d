package wizard

import (
	"context"

	"github.com/alkime/captions/internal/bridge"
	"github.com/alkime/captions/internal/content"
	"github.com/alkime/captions/internal/history"
)

// View renders the wizard. Calls arrive while the controller holds its lock,
// so implementations must not call back into the controller synchronously.
type View interface {
	ShowStep(step Step)
	SetRecordingStatus(target Target, status RecordingStatus)
	ShowLoading(message string)
	HideLoading()
	ShowToast(message string)
	// ShowTranscriptionPreview gets the quoted, truncated preview and the full text.
	ShowTranscriptionPreview(preview, full string)
	ShowCaption(caption string)
	// ShowMissingInfo with no items hides the alert and the add-details action.
	ShowMissingInfo(items []string)
	ShowMissingInfoReminder(items []string)
	SetAdditionalDetails(text string)
	SetUpdateEnabled(enabled bool)
	Reset()
}

// Bridge starts and stops recordings on the host.
type Bridge interface {
	StartRecording(ctx context.Context) bridge.Result
	StopRecording(ctx context.Context) bridge.Result
}

// Canceler is implemented by bridges that can drop a recording.
type Canceler interface {
	CancelRecording(ctx context.Context)
}

// Captioner turns a description into a caption.
type Captioner interface {
	GenerateCaption(ctx context.Context, transcription string) (*content.Caption, error)
}

// Archive keeps generated captions.
type Archive interface {
	Save(ctx context.Context, entry history.Entry) error
}

// Clipboard receives copied captions.
type Clipboard interface {
	Copy(text string) error
}
