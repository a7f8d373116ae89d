package audio

import (
	"github.com/gen2brain/malgo"
)

// DeviceConfig selects the capture format requested from the OS.
type DeviceConfig struct {
	Format          malgo.FormatType
	CaptureChannels int
	SampleRate      int
	// PacketBuffer is how many callback packets may queue before the
	// device starts dropping audio.
	PacketBuffer int
}

// DefaultDeviceConfig matches what Whisper wants: 16kHz mono S16LE.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Format:          malgo.FormatS16,
		CaptureChannels: DefaultChannels,
		SampleRate:      DefaultSampleRate,
		PacketBuffer:    64,
	}
}

// CaptureConfig configures a Capture.
type CaptureConfig struct {
	Device  DeviceConfig
	Encoder EncoderConfig
	// MaxBytes caps the PCM bytes accepted per recording; zero is unlimited.
	MaxBytes int64
	// MeterSamples sizes the ring buffer used for level metering.
	MeterSamples int
}

// WithDefaults fills zero fields.
func (c CaptureConfig) WithDefaults() CaptureConfig {
	def := DefaultDeviceConfig()
	if c.Device.SampleRate == 0 {
		c.Device.SampleRate = def.SampleRate
	}
	if c.Device.CaptureChannels == 0 {
		c.Device.CaptureChannels = def.CaptureChannels
	}
	if c.Device.Format == malgo.FormatUnknown {
		c.Device.Format = def.Format
	}
	if c.Device.PacketBuffer == 0 {
		c.Device.PacketBuffer = def.PacketBuffer
	}

	c.Encoder = c.Encoder.WithDefaults()
	c.Encoder.SampleRate = c.Device.SampleRate

	if c.MeterSamples == 0 {
		c.MeterSamples = c.Device.SampleRate / 2
	}

	return c
}
