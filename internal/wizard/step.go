package wizard

import "fmt"

// Step is one screen of the wizard.
type Step int

const (
	StepRecord Step = iota
	StepGenerate
	StepResult
	StepAddDetails
)

func (s Step) String() string {
	switch s {
	case StepRecord:
		return "record"
	case StepGenerate:
		return "generate"
	case StepResult:
		return "result"
	case StepAddDetails:
		return "add-details"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Target says what a recording is for.
type Target int

const (
	// TargetPrimary is the photo description itself.
	TargetPrimary Target = iota
	// TargetAdditional adds details to an existing caption.
	TargetAdditional
)

func (t Target) String() string {
	if t == TargetAdditional {
		return "additional"
	}

	return "primary"
}

// RecordingStatus is what the recording controls show for a target.
type RecordingStatus int

const (
	StatusIdle RecordingStatus = iota
	StatusRecording
	StatusProcessing
)

func (s RecordingStatus) String() string {
	switch s {
	case StatusRecording:
		return "Recording..."
	case StatusProcessing:
		return "Processing..."
	default:
		return ""
	}
}

// Flow decides what happens once the primary recording is transcribed.
type Flow string

const (
	// FlowPreview shows the transcription and waits for the user to ask for a caption.
	FlowPreview Flow = "preview"
	// FlowAuto requests the caption straight away.
	FlowAuto Flow = "auto"
)

// ParseFlow accepts "preview", "auto" or "" (preview).
func ParseFlow(s string) (Flow, error) {
	switch Flow(s) {
	case "", FlowPreview:
		return FlowPreview, nil
	case FlowAuto:
		return FlowAuto, nil
	default:
		return "", fmt.Errorf("unknown flow %q (want preview or auto)", s)
	}
}
