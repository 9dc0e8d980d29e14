// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"
	"time"
)

// SlidingWindow accumulates fixed-size audio chunks from the producer into
// a rolling window long enough to satisfy the FFT size plus playback-offset
// compensation. The producer (audio callback) appends chunks; the consumer
// (refresh tick) copies out a time-aligned frame. All shared state is
// guarded by an internal mutex so the two actors never race on the
// hand-off.
type SlidingWindow struct {
	mu sync.Mutex

	chunks       [][]float64
	total        int
	lastChunkLen int

	fftSize    int
	sampleRate float64

	// flat is the materialized window: length fftSize+lastChunkLen, newest
	// samples right-aligned, zeros on the left when history is short.
	flat   []float64
	filled int

	lastUpdate time.Time
	now        func() time.Time
}

// NewSlidingWindow creates a window manager for the given FFT size and
// sample rate. The FFT size is assumed to be pre-validated by the caller.
func NewSlidingWindow(fftSize int, sampleRate float64) *SlidingWindow {
	w := &SlidingWindow{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		now:        time.Now,
	}
	w.materializeLocked()
	return w
}

// SetFFTSize changes the window requirement and re-materializes the flat
// buffer. Retained chunks are kept; only the flat view is rebuilt.
func (w *SlidingWindow) SetFFTSize(size int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if size == w.fftSize {
		return
	}
	w.fftSize = size
	w.materializeLocked()
}

// SetSampleRate updates the rate used for offset estimation.
func (w *SlidingWindow) SetSampleRate(rate float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rate > 0 {
		w.sampleRate = rate
	}
}

// Push clones chunk and appends it to the history, evicting the oldest
// chunks once enough samples are retained. At least one chunk is always
// kept, even if it alone exceeds the requirement.
func (w *SlidingWindow) Push(chunk []float64) error {
	if len(chunk) == 0 {
		return fmt.Errorf("chunk cannot be empty")
	}

	owned := make([]float64, len(chunk))
	copy(owned, chunk)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.chunks = append(w.chunks, owned)
	w.total += len(owned)
	w.lastChunkLen = len(owned)

	required := w.fftSize + w.lastChunkLen
	for w.total > required && len(w.chunks) > 1 {
		w.total -= len(w.chunks[0])
		w.chunks[0] = nil
		w.chunks = w.chunks[1:]
	}

	w.materializeLocked()
	w.lastUpdate = w.now()
	return nil
}

// materializeLocked rebuilds the flat window from the chunk list: chunks
// are copied newest-to-oldest from the right edge, and whatever remains on
// the left is zeroed. Must be called with w.mu held.
func (w *SlidingWindow) materializeLocked() {
	required := w.fftSize + w.lastChunkLen
	if len(w.flat) != required {
		w.flat = make([]float64, required)
	}

	pos := required
	for i := len(w.chunks) - 1; i >= 0 && pos > 0; i-- {
		c := w.chunks[i]
		n := len(c)
		if n > pos {
			n = pos
		}
		copy(w.flat[pos-n:pos], c[len(c)-n:])
		pos -= n
	}
	for i := 0; i < pos; i++ {
		w.flat[i] = 0
	}
	w.filled = required - pos
}

// Required returns the current window requirement in samples.
func (w *SlidingWindow) Required() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fftSize + w.lastChunkLen
}

// Filled returns how many real (non-padding) samples the materialized
// window holds: min(total history, requirement).
func (w *SlidingWindow) Filled() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filled
}

// Offset estimates how many samples have elapsed since the last chunk
// arrived, based on wall-clock time and the nominal sample rate. It lets
// the consumer read a time-accurate slice even though the refresh tick and
// the audio callback run at independent rates. The result is clamped to
// [0, windowLen-fftSize].
func (w *SlidingWindow) Offset() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offsetLocked()
}

func (w *SlidingWindow) offsetLocked() int {
	if len(w.flat) <= w.fftSize || w.lastUpdate.IsZero() {
		return 0
	}
	elapsed := w.now().Sub(w.lastUpdate)
	offset := int(elapsed.Seconds() * w.sampleRate)
	if offset < 0 {
		offset = 0
	}
	if max := len(w.flat) - w.fftSize; offset > max {
		offset = max
	}
	return offset
}

// ReadFrame copies the offset-adjusted fftSize-sample slice of the window
// into dst. dst must have length fftSize. With no history yet the frame is
// all zeros, which downstream stages render as silence.
func (w *SlidingWindow) ReadFrame(dst []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(dst) != w.fftSize {
		return fmt.Errorf("destination length %d does not match fft size %d", len(dst), w.fftSize)
	}
	offset := w.offsetLocked()
	copy(dst, w.flat[offset:offset+w.fftSize])
	return nil
}
