package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alkime/captions/internal/client"
	"github.com/alkime/captions/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GenerateCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate-caption", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a dog on a beach", body["transcription"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"formatted_caption":"A dog runs.","missing_information":["Location"],"follow_up_questions":[]}`))
	}))
	defer srv.Close()

	caption, err := client.New(srv.URL+"/", time.Second, nil).GenerateCaption(context.Background(), "a dog on a beach")
	require.NoError(t, err)

	assert.Equal(t, &content.Caption{
		FormattedCaption:   "A dog runs.",
		MissingInformation: []string{"Location"},
		FollowUpQuestions:  []string{},
	}, caption)
}

func TestClient_GenerateCaption_ServerError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "with message", status: http.StatusBadRequest, body: `{"error":"No transcription provided"}`, expected: "Server error: 400 (No transcription provided)"},
		{name: "without message", status: http.StatusBadGateway, body: `oops`, expected: "Server error: 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := client.New(srv.URL, time.Second, nil).GenerateCaption(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())

			var serverErr *client.ServerError
			require.True(t, errors.As(err, &serverErr))
			assert.Equal(t, tt.status, serverErr.Status)
		})
	}
}

func TestClient_TranscribeFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload-audio", r.URL.Path)

		file, header, err := r.FormFile(client.UploadField)
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		assert.Equal(t, "fake mp3", string(data))
		assert.Equal(t, "recording.mp3", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcription":"hello world"}`))
	}))
	defer srv.Close()

	text, err := client.New(srv.URL, time.Second, nil).
		TranscribeFile(context.Background(), strings.NewReader("fake mp3"), "recording.mp3")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestClient_Health(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, time.Second, nil)
	require.NoError(t, c.Health(context.Background()))

	healthy.Store(false)
	assert.EqualError(t, c.Health(context.Background()), "Server error: 503")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := client.New(url, time.Second, nil).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach server")
}
