package wizard

import "strings"

const (
	previewLimit      = 150
	detailsSeparator  = "\n\nAdditional details: "
	recordingJoiner   = "\n\n"
	fallbackCaption   = "Could not generate caption."
	defaultStartError = "Failed to start recording"
	defaultStopError  = "Failed to process recording"
)

// PreviewText quotes text for the preview step, cutting it to 150 characters
// and marking the cut with an ellipsis.
func PreviewText(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return `"` + text + `"`
	}

	return `"` + string(runes[:previewLimit]) + `..."`
}

// WithDetails appends trimmed details to text, or returns text unchanged
// when there are none.
func WithDetails(text, details string) string {
	details = strings.TrimSpace(details)
	if details == "" {
		return text
	}

	return text + detailsSeparator + details
}

// mergeRecording adds a newly transcribed recording to existing details.
func mergeRecording(existing, recorded string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return recorded
	}

	return existing + recordingJoiner + recorded
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}

	return s
}
