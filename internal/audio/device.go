package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/alkime/captions/pkg/channels"
	"github.com/alkime/captions/pkg/collections"
	"github.com/gen2brain/malgo"
)

// ErrDeviceNotAllocated is returned when Start is called before CaptureInto.
var ErrDeviceNotAllocated = errors.New("device not allocated, call CaptureInto first")

// Device is a capture device that writes raw sample packets into a channel.
type Device interface {
	// EnumerateDevices lists available capture devices.
	// It ignores any device configuration passed in.
	EnumerateDevices(ctx context.Context) ([]Info, error)

	// CaptureInto allocates the underlying device. Once started, packets of
	// sampled bytes are written into dataC. The audio callback never blocks:
	// packets are dropped when dataC is full.
	CaptureInto(ctx context.Context, dataC chan<- DataPacket) error

	Start(ctx context.Context) error
	// Stop stops the device. It is a no-op once the device is deallocated.
	Stop(ctx context.Context) error
	IsStarted() bool

	// Dropped reports how many packets were discarded because the consumer
	// fell behind.
	Dropped() int64

	// Dealloc frees the underlying device and context.
	Dealloc(ctx context.Context)
}

type device struct {
	conf   DeviceConfig
	logger *slog.Logger

	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
	dropped  atomic.Int64
}

// NewDevice returns a malgo-backed Device.
func NewDevice(conf DeviceConfig, logger *slog.Logger) Device {
	if logger == nil {
		logger = slog.Default()
	}

	return &device{conf: conf, logger: logger}
}

func (d *device) EnumerateDevices(_ context.Context) ([]Info, error) {
	// An empty context is enough to enumerate devices.
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer d.uninitializeContext(devCtx)

	captureDevices, err := devCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, malgoDeviceInfoToDeviceInfo), nil
}

func (d *device) CaptureInto(_ context.Context, dataC chan<- DataPacket) error {
	if dataC == nil {
		return errors.New("data channel is nil, unable to allocate device")
	}

	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = d.conf.Format
	devCnf.Capture.Channels = uint32(d.conf.CaptureChannels)
	devCnf.SampleRate = uint32(d.conf.SampleRate)

	callBacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			// malgo reuses the sample buffer after the callback returns
			packet := append(DataPacket(nil), samples...)
			if err := channels.SendNonBlock(dataC, packet); err != nil {
				d.dropped.Add(1)
			}
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callBacks)
	if err != nil {
		d.uninitializeContext(mgCtx)
		return fmt.Errorf("failed to initialize malgo device: %w", err)
	}

	d.mgCtx, d.mgDevice = mgCtx, mgDevice

	return nil
}

func (d *device) Start(_ context.Context) error {
	if d.mgDevice == nil {
		return ErrDeviceNotAllocated
	}

	if d.mgDevice.IsStarted() {
		return nil
	}

	if err := d.mgDevice.Start(); err != nil {
		return fmt.Errorf("failed to start malgo device: %w", err)
	}

	return nil
}

func (d *device) Stop(_ context.Context) error {
	if d.mgDevice == nil {
		return nil
	}

	if err := d.mgDevice.Stop(); err != nil {
		return fmt.Errorf("failed to stop malgo device: %w", err)
	}

	return nil
}

func (d *device) IsStarted() bool {
	if d.mgDevice == nil {
		return false
	}

	return d.mgDevice.IsStarted()
}

func (d *device) Dropped() int64 {
	return d.dropped.Load()
}

func (d *device) Dealloc(_ context.Context) {
	if d.mgDevice == nil {
		return
	}

	d.mgDevice.Uninit()
	d.uninitializeContext(d.mgCtx)
	d.mgDevice = nil
	d.mgCtx = nil
}

func (d *device) uninitializeContext(deviceCtx *malgo.AllocatedContext) {
	if deviceCtx == nil {
		return
	}

	if err := deviceCtx.Uninit(); err != nil {
		d.logger.Error("failed to uninitialize malgo context", "error", err)
	}
	deviceCtx.Free()
}

// Info describes a capture device.
type Info struct {
	Name      string
	IsDefault bool
	Formats   []string
}

func malgoDeviceInfoToDeviceInfo(mdi malgo.DeviceInfo) Info {
	formats := make([]string, 0, len(mdi.Formats))
	for _, mf := range mdi.Formats {
		formats = append(formats, fmt.Sprintf("%d-bit, %d ch, %d Hz",
			malgo.SampleSizeInBytes(mf.Format)*8,
			mf.Channels, mf.SampleRate))
	}

	return Info{
		Name:      mdi.Name(),
		IsDefault: mdi.IsDefault != 0,
		Formats:   formats,
	}
}

// DataPacket is one callback's worth of raw sample bytes.
type DataPacket = []byte
