// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTransformRejectsInvalidSizes(t *testing.T) {
	for _, size := range []int{0, -1024, 63, 100, 1000, 32768} {
		if _, err := NewTransform(size); err == nil {
			t.Errorf("NewTransform(%d) expected error, got nil", size)
		}
	}
	for _, size := range []int{64, 512, 1024, 16384} {
		if _, err := NewTransform(size); err != nil {
			t.Errorf("NewTransform(%d) unexpected error: %v", size, err)
		}
	}
}

func TestMagnitudesZeroSignal(t *testing.T) {
	tr, err := NewTransform(256)
	require.NoError(t, err)

	frame := make([]float64, 256)
	mags := make([]float64, tr.Bins())
	require.NoError(t, tr.Magnitudes(mags, frame))

	for i, m := range mags {
		if m > 1e-12 {
			t.Fatalf("bin %d: zero input produced magnitude %g", i, m)
		}
	}
}

func TestMagnitudesAllFinite(t *testing.T) {
	for _, size := range []int{64, 1024, 16384} {
		tr, err := NewTransform(size)
		require.NoError(t, err)

		frame := make([]float64, size)
		for i := range frame {
			frame[i] = math.Sin(0.013*float64(i)) * math.Cos(0.0041*float64(i))
		}
		mags := make([]float64, tr.Bins())
		require.NoError(t, tr.Magnitudes(mags, frame))
		require.Len(t, mags, size/2)

		for i, m := range mags {
			if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
				t.Fatalf("size %d bin %d: magnitude %g not finite and non-negative", size, i, m)
			}
		}
	}
}

// A sine at an exact bin frequency should concentrate its energy in that
// bin, with only windowing leakage in the neighbors.
func TestSinePeakBin(t *testing.T) {
	const size = 1024
	const peakBin = 64

	tr, err := NewTransform(size)
	require.NoError(t, err)

	frame := make([]float64, size)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * float64(peakBin) * float64(i) / float64(size))
	}

	coeffs := make([]float64, size)
	Hann.Coefficients(coeffs)
	for i := range frame {
		frame[i] *= coeffs[i]
	}

	mags := make([]float64, tr.Bins())
	require.NoError(t, tr.Magnitudes(mags, frame))

	best := 0
	for i, m := range mags {
		if m > mags[best] {
			best = i
		}
	}
	require.Equal(t, peakBin, best, "dominant bin")

	// Leakage check: bins more than 2 away from the peak carry a tiny
	// fraction of the peak energy under a Hann window.
	for i, m := range mags {
		if i >= peakBin-2 && i <= peakBin+2 {
			continue
		}
		if m > mags[peakBin]*0.01 {
			t.Errorf("bin %d: leakage %g exceeds 1%% of peak %g", i, m, mags[peakBin])
		}
	}
}

func TestMagnitudesErrors(t *testing.T) {
	tr, err := NewTransform(128)
	require.NoError(t, err)

	mags := make([]float64, tr.Bins())
	require.Error(t, tr.Magnitudes(mags, nil), "empty frame")
	require.Error(t, tr.Magnitudes(mags, make([]float64, 64)), "short frame")
	require.Error(t, tr.Magnitudes(make([]float64, 10), make([]float64, 128)), "short destination")
}

func TestBinFrequency(t *testing.T) {
	tr, err := NewTransform(1024)
	require.NoError(t, err)

	if got := tr.BinFrequency(0, 44100); got != 0 {
		t.Errorf("DC bin frequency = %g, expected 0", got)
	}
	if got := tr.BinFrequency(512, 44100); got != 22050 {
		t.Errorf("Nyquist bin frequency = %g, expected 22050", got)
	}
	if got := tr.BinFrequency(-1, 44100); got != 0 {
		t.Errorf("negative bin frequency = %g, expected 0", got)
	}
	if got := tr.BinFrequency(513, 44100); got != 0 {
		t.Errorf("out-of-range bin frequency = %g, expected 0", got)
	}
}

func TestMagnitudesHotPath(t *testing.T) {
	tr, err := NewTransform(1024)
	require.NoError(t, err)

	frame := make([]float64, 1024)
	for i := range frame {
		frame[i] = math.Sin(0.02 * float64(i))
	}
	mags := make([]float64, tr.Bins())

	// Warm-up call before counting allocations.
	_ = tr.Magnitudes(mags, frame)
	allocs := testing.AllocsPerRun(100, func() {
		_ = tr.Magnitudes(mags, frame)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Magnitudes hot path, got %.1f", allocs)
	}
}

func BenchmarkMagnitudes(b *testing.B) {
	tr, _ := NewTransform(2048)
	frame := make([]float64, 2048)
	for i := range frame {
		frame[i] = math.Sin(0.02 * float64(i))
	}
	mags := make([]float64, tr.Bins())

	b.ReportAllocs()
	for bi := 0; bi < b.N; bi++ {
		_ = tr.Magnitudes(mags, frame)
	}
}
