// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlidingWindowFilledInvariant(t *testing.T) {
	const fftSize = 1024
	const chunkLen = 256

	w := NewSlidingWindow(fftSize, 44100)

	total := 0
	for i := 0; i < 12; i++ {
		chunk := make([]float64, chunkLen)
		for j := range chunk {
			chunk[j] = float64(i + 1)
		}
		require.NoError(t, w.Push(chunk))
		total += chunkLen

		required := fftSize + chunkLen
		require.Equal(t, required, w.Required())

		want := total
		if want > required {
			want = required
		}
		require.Equal(t, want, w.Filled(), "after %d chunks", i+1)
	}
}

func TestSlidingWindowEviction(t *testing.T) {
	const fftSize = 256
	const chunkLen = 128

	w := NewSlidingWindow(fftSize, 44100)

	// Push far more history than the window needs; the total retained must
	// settle just above the requirement, never unbounded.
	for i := 0; i < 100; i++ {
		require.NoError(t, w.Push(make([]float64, chunkLen)))
	}

	required := fftSize + chunkLen
	w.mu.Lock()
	total := w.total
	nchunks := len(w.chunks)
	w.mu.Unlock()

	require.LessOrEqual(t, total, required+chunkLen)
	require.GreaterOrEqual(t, total, required)
	require.LessOrEqual(t, nchunks, required/chunkLen+1)
}

func TestSlidingWindowOversizeChunkKept(t *testing.T) {
	// A single chunk larger than the whole requirement must survive.
	w := NewSlidingWindow(64, 44100)
	big := make([]float64, 4096)
	for i := range big {
		big[i] = 1.0
	}
	require.NoError(t, w.Push(big))

	require.Equal(t, 64+4096, w.Required())
	require.Equal(t, w.Required(), w.Filled())
}

func TestSlidingWindowRejectsEmptyChunk(t *testing.T) {
	w := NewSlidingWindow(64, 44100)
	require.Error(t, w.Push(nil))
	require.Error(t, w.Push([]float64{}))
}

func TestSlidingWindowRightAlignment(t *testing.T) {
	const fftSize = 8
	w := NewSlidingWindow(fftSize, 44100)

	chunk := []float64{1, 2, 3, 4}
	require.NoError(t, w.Push(chunk))

	// Requirement is 8+4=12, history is 4 samples: the flat window must be
	// eight zeros followed by the chunk.
	w.mu.Lock()
	flat := append([]float64(nil), w.flat...)
	w.mu.Unlock()

	require.Len(t, flat, 12)
	require.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4}, flat)
}

func TestSlidingWindowOffset(t *testing.T) {
	const fftSize = 64
	now := time.Unix(1000, 0)
	w := NewSlidingWindow(fftSize, 1000) // 1 kHz keeps the math readable
	w.now = func() time.Time { return now }

	// No history yet: offset is pinned to zero.
	require.Equal(t, 0, w.Offset())

	require.NoError(t, w.Push(make([]float64, 128)))

	// 50 ms at 1 kHz is 50 samples, within the 128-sample slack.
	now = now.Add(50 * time.Millisecond)
	require.Equal(t, 50, w.Offset())

	// A full second would be 1000 samples; clamp to windowLen-fftSize.
	now = now.Add(time.Second)
	require.Equal(t, 128, w.Offset())
}

func TestSlidingWindowReadFrame(t *testing.T) {
	const fftSize = 64
	now := time.Unix(1000, 0)
	w := NewSlidingWindow(fftSize, 1000)
	w.now = func() time.Time { return now }

	dst := make([]float64, fftSize)

	// Before any push the frame reads as silence.
	require.NoError(t, w.ReadFrame(dst))
	for _, v := range dst {
		require.Zero(t, v)
	}

	require.Error(t, w.ReadFrame(make([]float64, fftSize-1)))

	chunk := make([]float64, 32)
	for i := range chunk {
		chunk[i] = 0.5
	}
	require.NoError(t, w.Push(chunk))

	// Immediately after the push the offset is zero and the frame is the
	// left, zero-padded region of the 96-sample window.
	require.NoError(t, w.ReadFrame(dst))
	for _, v := range dst {
		require.Zero(t, v)
	}

	// Advance past the clamp point: offset pins at 32 and the frame ends
	// with the pushed chunk.
	now = now.Add(time.Second)
	require.NoError(t, w.ReadFrame(dst))
	require.Zero(t, dst[0])
	require.Equal(t, 0.5, dst[fftSize-1])
}

func TestSlidingWindowSetFFTSize(t *testing.T) {
	w := NewSlidingWindow(64, 44100)
	require.NoError(t, w.Push(make([]float64, 32)))

	w.SetFFTSize(256)
	require.Equal(t, 256+32, w.Required())

	dst := make([]float64, 256)
	require.NoError(t, w.ReadFrame(dst))
}

func TestSlidingWindowReadFrameAllocs(t *testing.T) {
	w := NewSlidingWindow(1024, 44100)
	require.NoError(t, w.Push(make([]float64, 512)))

	dst := make([]float64, 1024)
	allocs := testing.AllocsPerRun(100, func() {
		_ = w.ReadFrame(dst)
	})
	require.Zero(t, allocs, "ReadFrame must not allocate")
}

func BenchmarkSlidingWindowPush(b *testing.B) {
	w := NewSlidingWindow(2048, 44100)
	chunk := make([]float64, 512)

	b.ReportAllocs()
	b.ResetTimer()

	for bi := 0; bi < b.N; bi++ {
		_ = w.Push(chunk)
	}
}
