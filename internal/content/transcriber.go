package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	apiKey string
	model  openai.AudioModel
	opts   []option.RequestOption
}

// NewTranscriber creates a new transcription client.
func NewTranscriber(apiKey string, opts ...option.RequestOption) *Transcriber {
	return &Transcriber{
		apiKey: apiKey,
		model:  openai.AudioModelWhisper1,
		opts:   opts,
	}
}

// WithModel overrides the transcription model (e.g. gpt-4o-mini-transcribe).
func (t *Transcriber) WithModel(model string) *Transcriber {
	if model != "" {
		t.model = openai.AudioModel(model)
	}

	return t
}

// TranscribeFile transcribes an audio file using Whisper API. The filename's
// extension tells the API which container format it is receiving.
func (t *Transcriber) TranscribeFile(ctx context.Context, audioFile io.Reader, filename string) (string, error) {
	// Validate API key
	if t.apiKey == "" {
		return "", errors.New("API key required: set OPENAI_API_KEY or run 'captions config set-key openai'")
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(t.apiKey)}, t.opts...)...)

	//nolint:exhaustruct // Only File and Model required
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(audioFile, filename, contentTypeFor(filename)),
		Model: t.model,
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(extension(filename)) {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	case "m4a":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	case "webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}

// extension returns the part after the last dot, or "" when there is none.
func extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}

	return filename[idx+1:]
}

// AllowedAudioExtensions lists the upload formats the transcription endpoint accepts.
var AllowedAudioExtensions = []string{"wav", "mp3", "ogg", "m4a", "flac"}

// IsAllowedAudioFile reports whether filename carries one of AllowedAudioExtensions.
func IsAllowedAudioFile(filename string) bool {
	ext := strings.ToLower(extension(filename))
	for _, allowed := range AllowedAudioExtensions {
		if ext == allowed {
			return true
		}
	}

	return false
}
