package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/alkime/captions/pkg/channels"
	"github.com/alkime/captions/pkg/uictl"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not currently recording")
	ErrNoAudio          = errors.New("no audio data recorded")
)

// DeviceFactory builds a fresh Device for each recording.
type DeviceFactory func(DeviceConfig) Device

// Capture records one MP3 at a time from a capture device. The PCM stream is
// teed into a ring buffer so the UI can draw a level meter while recording.
type Capture struct {
	conf      CaptureConfig
	newDevice DeviceFactory
	logger    *slog.Logger
	ring      *SampleRingBuffer
	written   atomic.Int64

	mu     sync.Mutex
	active *session
}

type session struct {
	device   Device
	rawC     chan DataPacket
	pcmC     chan []byte
	out      *bytes.Buffer
	encoder  *StreamingEncoder
	cancel   context.CancelFunc
	pumpDone chan struct{}
	capped   atomic.Bool
}

var _ uictl.CappedDial[int64] = (*Capture)(nil)

// NewCapture creates a Capture. A nil factory uses the malgo device.
func NewCapture(conf CaptureConfig, newDevice DeviceFactory, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}

	if newDevice == nil {
		newDevice = func(dc DeviceConfig) Device { return NewDevice(dc, logger) }
	}

	conf = conf.WithDefaults()

	return &Capture{
		conf:      conf,
		newDevice: newDevice,
		logger:    logger,
		ring:      NewSampleRingBuffer(conf.MeterSamples),
	}
}

// Start allocates a device and begins recording.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return ErrAlreadyRecording
	}

	c.written.Store(0)
	c.ring.Reset()

	dev := c.newDevice(c.conf.Device)
	rawC := make(chan DataPacket, c.conf.Device.PacketBuffer)
	if err := dev.CaptureInto(ctx, rawC); err != nil {
		return fmt.Errorf("failed to allocate capture device: %w", err)
	}

	// the recording outlives the request that started it
	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s := &session{
		device:   dev,
		rawC:     rawC,
		pcmC:     make(chan []byte, c.conf.Device.PacketBuffer),
		out:      &bytes.Buffer{},
		cancel:   cancel,
		pumpDone: make(chan struct{}),
	}

	enc, err := NewStreamingEncoder(c.conf.Encoder, s.pcmC, s.out, c.logger)
	if err == nil {
		err = enc.Start(sessCtx)
	}
	if err != nil {
		cancel()
		dev.Dealloc(ctx)
		return fmt.Errorf("failed to start MP3 encoder: %w", err)
	}
	s.encoder = enc

	go c.pump(sessCtx, s)

	if err := dev.Start(ctx); err != nil {
		c.teardown(ctx, s)
		cancel()
		_ = enc.Wait()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	c.active = s
	c.logger.Info("recording started", "sampleRate", c.conf.Device.SampleRate, "maxBytes", c.conf.MaxBytes)

	return nil
}

// pump forwards device packets to the encoder, metering and counting them on
// the way. Packets past MaxBytes are discarded.
func (c *Capture) pump(ctx context.Context, s *session) {
	defer close(s.pumpDone)
	defer close(s.pcmC)

	for {
		select {
		case packet, ok := <-s.rawC:
			if !ok {
				return
			}

			size := int64(len(packet))
			if c.conf.MaxBytes > 0 && c.written.Load()+size > c.conf.MaxBytes {
				if !s.capped.Swap(true) {
					c.logger.Warn("recording reached size cap, dropping further audio", "maxBytes", c.conf.MaxBytes)
				}
				continue
			}

			c.written.Add(size)
			c.ring.Write(BytesToInt16(packet))

			select {
			case s.pcmC <- packet:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// teardown stops the device and waits for the pump to drain.
func (c *Capture) teardown(ctx context.Context, s *session) {
	if err := s.device.Stop(ctx); err != nil {
		c.logger.Warn("failed to stop capture device", "error", err)
	}
	s.device.Dealloc(ctx)

	if dropped := s.device.Dropped(); dropped > 0 {
		c.logger.Warn("capture dropped packets", "count", dropped)
	}

	close(s.rawC)
	<-s.pumpDone
}

// Stop ends the recording and returns the encoded MP3.
func (c *Capture) Stop(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.active
	if s == nil {
		return nil, ErrNotRecording
	}
	c.active = nil

	c.teardown(ctx, s)
	err := s.encoder.Wait()
	s.cancel()

	if err != nil {
		return nil, fmt.Errorf("failed to encode recording: %w", err)
	}

	if c.written.Load() == 0 || s.out.Len() == 0 {
		return nil, ErrNoAudio
	}

	c.logger.Info("recording stopped", "pcmBytes", c.written.Load(), "mp3Bytes", s.out.Len())

	return s.out.Bytes(), nil
}

// Cancel discards the active recording, if any.
func (c *Capture) Cancel(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.active
	if s == nil {
		return
	}
	c.active = nil

	s.cancel()
	c.teardown(ctx, s)
	_ = s.encoder.Wait()

	// The pump quits on cancel, so packets may still sit in the closed channel.
	c.logger.Info("recording cancelled", "discardedPackets", channels.Drain(s.rawC))
}

func (c *Capture) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active != nil
}

// BytesWritten is the PCM byte count accepted for the current recording.
func (c *Capture) BytesWritten() int64 {
	return c.written.Load()
}

// Read implements uictl.Dial.
func (c *Capture) Read() int64 {
	return c.BytesWritten()
}

// Cap implements uictl.CappedDial.
func (c *Capture) Cap() (num, limit int64) {
	return c.written.Load(), c.conf.MaxBytes
}

// ReadSamples returns the n most recent samples.
func (c *Capture) ReadSamples(n int) []int16 {
	return c.ring.ReadSamples(n)
}

// Meter returns a level gauge with the given number of bars.
func (c *Capture) Meter(bars int) uictl.Levels[float64] {
	return meter{ring: c.ring, bars: bars}
}

type meter struct {
	ring *SampleRingBuffer
	bars int
}

func (m meter) Read() []float64 {
	return m.ring.Levels(m.bars)
}
