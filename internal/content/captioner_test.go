package content

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toolUseResponse = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "stop_reason": "tool_use",
  "usage": {"input_tokens": 10, "output_tokens": 20},
  "content": [{
    "type": "tool_use",
    "id": "toolu_01",
    "name": "save_caption",
    "input": {
      "formatted_caption": " Players compete during a rugby match in London, Britain. ",
      "missing_information": ["Names of players", " "],
      "follow_up_questions": ["Which teams are playing?"]
    }
  }]
}`

const textResponse = `{
  "id": "msg_02",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 20},
  "content": [{
    "type": "text",
    "text": "1. REUTERS FORMATTED CAPTION\nA dog runs on a beach.\n\n2. MISSING INFORMATION NEEDED\n- Location\n- Date\n\n3. FOLLOW-UP QUESTIONS\n1. Where was this taken?"
  }]
}`

func fakeAnthropic(t *testing.T, body string, captured *map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		if captured != nil {
			raw, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.NoError(t, json.Unmarshal(raw, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestCaptioner_GenerateCaption_ToolUse(t *testing.T) {
	var request map[string]any
	srv := fakeAnthropic(t, toolUseResponse, &request)

	captioner := NewCaptioner("test-key", srv.URL, option.WithMaxRetries(0))

	caption, err := captioner.GenerateCaption(context.Background(), "rugby match in london")
	require.NoError(t, err)

	assert.Equal(t, "Players compete during a rugby match in London, Britain.", caption.FormattedCaption)
	assert.Equal(t, []string{"Names of players"}, caption.MissingInformation)
	assert.Equal(t, []string{"Which teams are playing?"}, caption.FollowUpQuestions)

	assert.Equal(t, "claude-sonnet-4-5", request["model"])
	assert.InDelta(t, 1000, request["max_tokens"], 0)
	assert.InDelta(t, 0.1, request["temperature"], 0.0001)
	assert.Contains(t, request, "tools")
}

func TestCaptioner_GenerateCaption_TextFallback(t *testing.T) {
	srv := fakeAnthropic(t, textResponse, nil)

	captioner := NewCaptioner("test-key", srv.URL, option.WithMaxRetries(0))

	caption, err := captioner.GenerateCaption(context.Background(), "dog on beach")
	require.NoError(t, err)

	assert.Equal(t, "A dog runs on a beach.", caption.FormattedCaption)
	assert.Equal(t, []string{"Location", "Date"}, caption.MissingInformation)
	assert.Equal(t, []string{"Where was this taken?"}, caption.FollowUpQuestions)
}

func TestCaptioner_GenerateCaption_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	_, err := NewCaptioner("test-key", srv.URL, option.WithMaxRetries(0)).
		GenerateCaption(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate caption")
}

func TestCaptioner_GenerateCaption_Validation(t *testing.T) {
	_, err := NewCaptioner("", "").GenerateCaption(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")

	_, err = NewCaptioner("key", "").GenerateCaption(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transcription")
}

func TestCaptioner_WithModel(t *testing.T) {
	captioner := NewCaptioner("key", "").WithModel("claude-opus-4-1")
	assert.Equal(t, "claude-opus-4-1", string(captioner.model))

	assert.Equal(t, "claude-opus-4-1", string(captioner.WithModel("").model))
}
