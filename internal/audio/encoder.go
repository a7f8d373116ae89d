package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// StreamingEncoder reads raw PCM bytes from a channel, buffers to a threshold,
// then batch-encodes to MP3 and writes to an io.Writer.
//
// The encoder runs in its own goroutine until the input channel is closed or
// the context is cancelled.
type StreamingEncoder struct {
	config EncoderConfig
	input  <-chan []byte
	output io.Writer
	logger *slog.Logger

	encoder *mp3encoder.Encoder
	buffer  []byte
	batches int

	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewStreamingEncoder creates a new streaming MP3 encoder over S16LE input.
func NewStreamingEncoder(
	config EncoderConfig,
	input <-chan []byte,
	output io.Writer,
	logger *slog.Logger,
) (*StreamingEncoder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	if output == nil {
		return nil, errors.New("output writer cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StreamingEncoder{ //nolint:exhaustruct // wg, errOnce, err initialized on Start()
		config: config,
		input:  input,
		output: output,
		logger: logger,
		buffer: make([]byte, 0, config.BufferThreshold),
	}, nil
}

// Start begins the encoding goroutine. Returns error if already started.
func (e *StreamingEncoder) Start(ctx context.Context) error {
	if e.encoder != nil {
		return errors.New("encoder already started")
	}

	// Create shine-mp3 encoder as STEREO (workaround for mono bug)
	e.encoder = mp3encoder.NewEncoder(e.config.SampleRate, 2)

	e.logger.Debug("starting MP3 encoder",
		"sampleRate", e.config.SampleRate,
		"bufferThreshold", e.config.BufferThreshold)

	e.wg.Go(func() {
		defer func() {
			if err := e.flush(); err != nil {
				e.setError(fmt.Errorf("failed to flush encoder on shutdown: %w", err))
			}
		}()

		for {
			select {
			case data, ok := <-e.input:
				if !ok {
					return
				}

				e.buffer = append(e.buffer, data...)

				if len(e.buffer) >= e.config.BufferThreshold {
					if err := e.encodeBatch(); err != nil {
						e.setError(err)
						return
					}
				}

			case <-ctx.Done():
				e.setError(fmt.Errorf("encoder context cancelled: %w", ctx.Err()))
				return
			}
		}
	})

	return nil
}

// encodeBatch converts buffered PCM data to MP3 and writes to output.
func (e *StreamingEncoder) encodeBatch() error {
	// An odd trailing byte stays in the buffer for the next batch.
	numSamples := len(e.buffer) / 2
	if numSamples == 0 {
		return nil
	}

	// WORKAROUND: shine-mp3 Write() has a bug for mono (always increments by samples_per_pass * 2)
	// so every mono sample is written to both channels.
	stereoSamples := make([]int16, numSamples*2)
	for i := range numSamples {
		sample := int16(binary.LittleEndian.Uint16(e.buffer[i*2:]))
		stereoSamples[i*2] = sample
		stereoSamples[i*2+1] = sample
	}

	if err := e.encoder.Write(e.output, stereoSamples); err != nil {
		return fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	e.batches++
	rest := copy(e.buffer, e.buffer[numSamples*2:])
	e.buffer = e.buffer[:rest]

	return nil
}

func (e *StreamingEncoder) flush() error {
	if err := e.encodeBatch(); err != nil {
		return fmt.Errorf("failed to flush MP3 encoder: %w", err)
	}

	return nil
}

// Wait blocks until encoding completes and returns any error that occurred.
func (e *StreamingEncoder) Wait() error {
	e.wg.Wait()

	e.logger.Debug("MP3 encoder finished", "batches", e.batches)

	return e.err
}

// setError records the first error that occurs.
func (e *StreamingEncoder) setError(err error) {
	e.errOnce.Do(func() {
		e.err = err
	})
}
