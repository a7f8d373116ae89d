// Package bridge is the host side of the recording flow: it owns the
// microphone and turns a stopped recording into text.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/alkime/captions/internal/audio"
)

// Messages reported to the wizard. They are shown to the user verbatim.
const (
	MsgAlreadyRecording = "Already recording"
	MsgNotRecording     = "Not currently recording"
	MsgNoAudio          = "No audio data recorded"
)

// RecordingFilename is the name the encoded audio is uploaded under.
const RecordingFilename = "recording.mp3"

// Result is the reply to a start or stop request.
type Result struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription,omitempty"`
	Error         string `json:"error,omitempty"`
}

func failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Capturer records audio and hands it back encoded.
type Capturer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) ([]byte, error)
	Cancel(ctx context.Context)
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	TranscribeFile(ctx context.Context, audioFile io.Reader, filename string) (string, error)
}

// Host pairs a Capturer with a Transcriber. Audio never outlives a stop
// request.
type Host struct {
	capturer    Capturer
	transcriber Transcriber
	logger      *slog.Logger

	mu        sync.Mutex
	recording bool
}

func NewHost(capturer Capturer, transcriber Transcriber, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}

	return &Host{capturer: capturer, transcriber: transcriber, logger: logger}
}

// StartRecording begins a new capture.
func (h *Host) StartRecording(ctx context.Context) Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.recording {
		return failure(MsgAlreadyRecording)
	}

	if err := h.capturer.Start(ctx); err != nil {
		if errors.Is(err, audio.ErrAlreadyRecording) {
			return failure(MsgAlreadyRecording)
		}
		h.logger.Error("failed to start recording", "error", err)
		return failure(err.Error())
	}

	h.recording = true

	return Result{Success: true}
}

// StopRecording stops the capture and transcribes what was recorded.
func (h *Host) StopRecording(ctx context.Context) Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.recording {
		return failure(MsgNotRecording)
	}
	h.recording = false

	mp3, err := h.capturer.Stop(ctx)
	switch {
	case errors.Is(err, audio.ErrNoAudio), err == nil && len(mp3) == 0:
		return failure(MsgNoAudio)
	case errors.Is(err, audio.ErrNotRecording):
		return failure(MsgNotRecording)
	case err != nil:
		h.logger.Error("failed to stop recording", "error", err)
		return failure(err.Error())
	}

	h.logger.Debug("transcribing recording", "bytes", len(mp3))

	text, err := h.transcriber.TranscribeFile(ctx, bytes.NewReader(mp3), RecordingFilename)
	if err != nil {
		h.logger.Error("failed to transcribe recording", "error", err)
		return failure(err.Error())
	}

	return Result{Success: true, Transcription: text}
}

// CancelRecording drops an in-progress capture without transcribing it.
func (h *Host) CancelRecording(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.recording {
		return
	}
	h.recording = false
	h.capturer.Cancel(ctx)
}

// IsRecording reports whether a capture is in progress.
func (h *Host) IsRecording() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.recording
}
