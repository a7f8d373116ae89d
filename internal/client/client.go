// Package client talks to the captions backend over HTTP.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/alkime/captions/internal/content"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 2 * time.Minute

	pathHealth          = "/api/health"
	pathGenerateCaption = "/api/generate-caption"
	pathUploadAudio     = "/api/upload-audio"

	// UploadField is the multipart field the upload endpoint reads.
	UploadField = "audio_blob"
)

// ServerError is a non-2xx answer from the backend.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Server error: %d", e.Status)
	}

	return fmt.Sprintf("Server error: %d (%s)", e.Status, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

type transcriptionBody struct {
	Transcription string `json:"transcription"`
}

// Client is a captions backend client. It satisfies the wizard's caption
// service and the bridge's transcriber.
type Client struct {
	rc *resty.Client
}

// New creates a client for the backend at baseURL. A nil logger uses slog.Default.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{logger: logger})

	return &Client{rc: rc}
}

// GenerateCaption asks the backend for a Reuters caption.
func (c *Client) GenerateCaption(ctx context.Context, transcription string) (*content.Caption, error) {
	var caption content.Caption

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(transcriptionBody{Transcription: transcription}).
		SetResult(&caption).
		SetError(&errorBody{}).
		Post(pathGenerateCaption)
	if err != nil {
		return nil, fmt.Errorf("failed to request caption: %w", err)
	}

	if err := asServerError(resp); err != nil {
		return nil, err
	}

	return &caption, nil
}

// TranscribeFile uploads audio and returns its transcription.
func (c *Client) TranscribeFile(ctx context.Context, audioFile io.Reader, filename string) (string, error) {
	var body transcriptionBody

	resp, err := c.rc.R().
		SetContext(ctx).
		SetFileReader(UploadField, filename, audioFile).
		SetResult(&body).
		SetError(&errorBody{}).
		Post(pathUploadAudio)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}

	if err := asServerError(resp); err != nil {
		return "", err
	}

	return body.Transcription, nil
}

// Health checks that the backend is up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		Get(pathHealth)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}

	return asServerError(resp)
}

func asServerError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}

	serverErr := &ServerError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok {
		serverErr.Message = body.Error
	}

	return serverErr
}

// restyLogger routes resty's printf-style logging into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "http-client")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "http-client")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "http-client")
}
