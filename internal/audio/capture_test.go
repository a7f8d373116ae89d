package audio_test

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/alkime/captions/internal/audio"
	"github.com/alkime/captions/pkg/channels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice stands in for a microphone; tests push packets with emit.
type fakeDevice struct {
	mu       sync.Mutex
	dataC    chan<- audio.DataPacket
	started  bool
	deallocs int
	startErr error
	dropped  int64
}

func (f *fakeDevice) EnumerateDevices(context.Context) ([]audio.Info, error) {
	return []audio.Info{{Name: "fake", IsDefault: true}}, nil
}

func (f *fakeDevice) CaptureInto(_ context.Context, dataC chan<- audio.DataPacket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataC = dataC
	return nil
}

func (f *fakeDevice) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeDevice) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
	return nil
}

func (f *fakeDevice) IsStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeDevice) Dropped() int64 { return f.dropped }

func (f *fakeDevice) Dealloc(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deallocs++
}

func (f *fakeDevice) emit(t *testing.T, packet audio.DataPacket) {
	t.Helper()
	f.mu.Lock()
	dataC := f.dataC
	f.mu.Unlock()
	require.NoError(t, channels.SendNonBlock(dataC, packet))
}

func pcm(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func newTestCapture(dev *fakeDevice, maxBytes int64) *audio.Capture {
	return audio.NewCapture(
		audio.CaptureConfig{
			Encoder:  audio.EncoderConfig{BufferThreshold: 256},
			MaxBytes: maxBytes,
		},
		func(audio.DeviceConfig) audio.Device { return dev },
		nil,
	)
}

func TestCapture_StartStopProducesMP3(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dev := &fakeDevice{}
	capture := newTestCapture(dev, 0)

	require.NoError(t, capture.Start(ctx))
	assert.True(t, capture.IsRecording())
	assert.True(t, dev.IsStarted())

	packet := pcm(make([]int16, 512)...)
	for range 4 {
		dev.emit(t, packet)
	}

	mp3, err := capture.Stop(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, mp3)
	assert.Equal(t, int64(4*len(packet)), capture.BytesWritten())
	assert.False(t, capture.IsRecording())
	assert.False(t, dev.IsStarted())
	assert.Equal(t, 1, dev.deallocs)
}

func TestCapture_StartTwice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	capture := newTestCapture(&fakeDevice{}, 0)

	require.NoError(t, capture.Start(ctx))
	defer capture.Cancel(ctx)

	assert.ErrorIs(t, capture.Start(ctx), audio.ErrAlreadyRecording)
}

func TestCapture_StopWithoutStart(t *testing.T) {
	t.Parallel()

	_, err := newTestCapture(&fakeDevice{}, 0).Stop(context.Background())
	assert.ErrorIs(t, err, audio.ErrNotRecording)
}

func TestCapture_StopWithoutAudio(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	capture := newTestCapture(&fakeDevice{}, 0)

	require.NoError(t, capture.Start(ctx))

	_, err := capture.Stop(ctx)
	assert.ErrorIs(t, err, audio.ErrNoAudio)
}

func TestCapture_Cancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dev := &fakeDevice{}
	capture := newTestCapture(dev, 0)

	require.NoError(t, capture.Start(ctx))
	dev.emit(t, pcm(1, 2, 3, 4))

	capture.Cancel(ctx)
	assert.False(t, capture.IsRecording())
	assert.Equal(t, 1, dev.deallocs)

	// cancelling again is a no-op and a new recording can begin
	capture.Cancel(ctx)
	require.NoError(t, capture.Start(ctx))
	capture.Cancel(ctx)
}

func TestCapture_StartDeviceError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dev := &fakeDevice{startErr: errors.New("no microphone")}
	capture := newTestCapture(dev, 0)

	err := capture.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no microphone")
	assert.False(t, capture.IsRecording())
	assert.Equal(t, 1, dev.deallocs)
}

func TestCapture_MaxBytes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dev := &fakeDevice{}
	capture := newTestCapture(dev, 1000)

	require.NoError(t, capture.Start(ctx))

	packet := pcm(make([]int16, 200)...) // 400 bytes
	for range 4 {
		dev.emit(t, packet)
	}

	_, err := capture.Stop(ctx)
	require.NoError(t, err)

	num, limit := capture.Cap()
	assert.Equal(t, int64(800), num)
	assert.Equal(t, int64(1000), limit)
	assert.Equal(t, int64(800), capture.Read())
}

func TestCapture_MeterAndSamples(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dev := &fakeDevice{}
	capture := newTestCapture(dev, 0)

	require.NoError(t, capture.Start(ctx))
	dev.emit(t, pcm(100, -100, 200, -200))

	_, err := capture.Stop(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int16{200, -200}, capture.ReadSamples(2))

	levels := capture.Meter(8).Read()
	require.Len(t, levels, 8)
	assert.Greater(t, levels[7], 0.0)
	assert.Zero(t, levels[0])
}
