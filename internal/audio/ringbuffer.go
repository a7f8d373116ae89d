package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

// SampleRingBuffer keeps the most recent samples of a recording for the level
// meter. One goroutine writes; any number may read.
type SampleRingBuffer struct {
	mu      sync.RWMutex
	samples []int16
	head    int // next write position
	count   int
}

func NewSampleRingBuffer(capacity int) *SampleRingBuffer {
	return &SampleRingBuffer{samples: make([]int16, max(capacity, 1))}
}

// Write appends samples, overwriting the oldest when full.
func (b *SampleRingBuffer) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.samples)
	for _, sample := range samples {
		b.samples[b.head] = sample
		b.head = (b.head + 1) % capacity
	}
	b.count = min(b.count+len(samples), capacity)
}

// ReadSamples returns up to n most recent samples, oldest first.
func (b *SampleRingBuffer) ReadSamples(n int) []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 || n <= 0 {
		return nil
	}

	n = min(n, b.count)
	capacity := len(b.samples)
	start := (b.head - n + capacity) % capacity

	result := make([]int16, n)
	for i := range n {
		result[i] = b.samples[(start+i)%capacity]
	}

	return result
}

// Count returns the number of valid samples in the buffer.
func (b *SampleRingBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.count
}

// Reset forgets every sample.
func (b *SampleRingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head, b.count = 0, 0
}

// Levels splits the buffered samples into buckets and returns each bucket's
// RMS level normalised to [0, 1], oldest first. Buckets with no audio yet
// read as zero so the meter keeps a fixed width.
func (b *SampleRingBuffer) Levels(buckets int) []float64 {
	if buckets <= 0 {
		return nil
	}

	levels := make([]float64, buckets)
	samples := b.ReadSamples(b.Count())
	if len(samples) == 0 {
		return levels
	}

	per := max(len(samples)/buckets, 1)
	// right-align so the newest audio is always at the end
	filled := min(buckets, len(samples)/per)
	offset := buckets - filled
	base := len(samples) - filled*per
	for i := range filled {
		levels[offset+i] = rms(samples[base+i*per : base+(i+1)*per])
	}

	return levels
}

func rms(samples []int16) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s) / math.MaxInt16
		sum += v * v
	}

	return min(math.Sqrt(sum/float64(len(samples))), 1)
}

// BytesToInt16 converts S16LE bytes to int16 samples. A trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	numSamples := len(data) / 2
	if numSamples == 0 {
		return nil
	}

	samples := make([]int16, numSamples)
	for i := range numSamples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	return samples
}
