package bridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/alkime/captions/internal/audio"
	"github.com/alkime/captions/internal/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapturer struct {
	startErr  error
	mp3       []byte
	stopErr   error
	started   int
	cancelled int
}

func (f *fakeCapturer) Start(context.Context) error {
	f.started++
	return f.startErr
}

func (f *fakeCapturer) Stop(context.Context) ([]byte, error) { return f.mp3, f.stopErr }

func (f *fakeCapturer) Cancel(context.Context) { f.cancelled++ }

type fakeTranscriber struct {
	text     string
	err      error
	got      []byte
	filename string
}

func (f *fakeTranscriber) TranscribeFile(_ context.Context, r io.Reader, filename string) (string, error) {
	f.got, _ = io.ReadAll(r)
	f.filename = filename
	return f.text, f.err
}

func TestHost_RecordAndTranscribe(t *testing.T) {
	ctx := context.Background()
	capturer := &fakeCapturer{mp3: []byte("ID3 fake mp3")}
	transcriber := &fakeTranscriber{text: "a photographer speaks"}
	host := bridge.NewHost(capturer, transcriber, nil)

	require.Equal(t, bridge.Result{Success: true}, host.StartRecording(ctx))
	assert.True(t, host.IsRecording())

	result := host.StopRecording(ctx)
	assert.Equal(t, bridge.Result{Success: true, Transcription: "a photographer speaks"}, result)
	assert.Equal(t, []byte("ID3 fake mp3"), transcriber.got)
	assert.Equal(t, bridge.RecordingFilename, transcriber.filename)
	assert.False(t, host.IsRecording())
}

func TestHost_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		capturer    *fakeCapturer
		transcriber *fakeTranscriber
		start       bool
		expected    string
	}{
		{name: "stop without start", capturer: &fakeCapturer{}, transcriber: &fakeTranscriber{}, expected: bridge.MsgNotRecording},
		{name: "no audio", capturer: &fakeCapturer{stopErr: audio.ErrNoAudio}, transcriber: &fakeTranscriber{}, start: true, expected: bridge.MsgNoAudio},
		{name: "empty audio", capturer: &fakeCapturer{}, transcriber: &fakeTranscriber{}, start: true, expected: bridge.MsgNoAudio},
		{name: "transcription failure", capturer: &fakeCapturer{mp3: []byte{1}}, transcriber: &fakeTranscriber{err: errors.New("quota exceeded")}, start: true, expected: "quota exceeded"},
		{name: "encode failure", capturer: &fakeCapturer{stopErr: errors.New("encoder broke")}, transcriber: &fakeTranscriber{}, start: true, expected: "encoder broke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := bridge.NewHost(tt.capturer, tt.transcriber, nil)
			if tt.start {
				require.True(t, host.StartRecording(ctx).Success)
			}

			result := host.StopRecording(ctx)
			assert.False(t, result.Success)
			assert.Equal(t, tt.expected, result.Error)
			assert.False(t, host.IsRecording())
		})
	}
}

func TestHost_StartTwice(t *testing.T) {
	ctx := context.Background()
	capturer := &fakeCapturer{}
	host := bridge.NewHost(capturer, &fakeTranscriber{}, nil)

	require.True(t, host.StartRecording(ctx).Success)
	assert.Equal(t, bridge.Result{Error: bridge.MsgAlreadyRecording}, host.StartRecording(ctx))
	assert.Equal(t, 1, capturer.started)
}

func TestHost_StartFailure(t *testing.T) {
	host := bridge.NewHost(&fakeCapturer{startErr: errors.New("no input device")}, &fakeTranscriber{}, nil)

	result := host.StartRecording(context.Background())
	assert.Equal(t, bridge.Result{Error: "no input device"}, result)
	assert.False(t, host.IsRecording())
}

func TestHost_Cancel(t *testing.T) {
	ctx := context.Background()
	capturer := &fakeCapturer{}
	host := bridge.NewHost(capturer, &fakeTranscriber{}, nil)

	host.CancelRecording(ctx)
	assert.Zero(t, capturer.cancelled)

	require.True(t, host.StartRecording(ctx).Success)
	host.CancelRecording(ctx)
	assert.Equal(t, 1, capturer.cancelled)
	assert.False(t, host.IsRecording())
}

func TestResult_JSON(t *testing.T) {
	raw, err := json.Marshal(bridge.Result{Success: false, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(raw))

	raw, err = json.Marshal(bridge.Result{Success: true, Transcription: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"transcription":"hi"}`, string(raw))
}
