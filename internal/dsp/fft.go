// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"specviz/pkg/bitint"
)

// FFT window size bounds. Sizes outside this range, or sizes that are not
// powers of two, are clamped through bitint.ClampPowerOfTwo before use.
const (
	MinFFTSize = 64
	MaxFFTSize = 16384
)

// Transform performs real-input FFTs of a fixed size with a reusable plan.
// The coefficient buffer is owned by the Transform and overwritten on every
// call; it must not be retained across calls.
type Transform struct {
	size   int
	plan   *fourier.FFT
	coeffs []complex128
}

// NewTransform creates a transform for frames of the given size.
// The size must be a power of two in [MinFFTSize, MaxFFTSize].
func NewTransform(size int) (*Transform, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}
	if size < MinFFTSize || size > MaxFFTSize {
		return nil, fmt.Errorf("fft size %d outside [%d, %d]", size, MinFFTSize, MaxFFTSize)
	}
	return &Transform{
		size:   size,
		plan:   fourier.NewFFT(size),
		coeffs: make([]complex128, size/2+1),
	}, nil
}

// Size returns the frame length the transform was planned for.
func (t *Transform) Size() int { return t.size }

// Bins returns the number of usable magnitude bins (size/2).
func (t *Transform) Bins() int { return t.size / 2 }

// Coefficients computes the FFT of frame and returns the complex
// coefficients. frame must have length Size(); the returned slice has
// size/2+1 entries and is valid until the next call.
func (t *Transform) Coefficients(frame []float64) ([]complex128, error) {
	if len(frame) != t.size {
		return nil, fmt.Errorf("frame length %d does not match fft size %d", len(frame), t.size)
	}
	return t.plan.Coefficients(t.coeffs, frame), nil
}

// Magnitudes computes the FFT of frame and writes the magnitude of the
// first Bins() coefficients into dst. The Nyquist coefficient is dropped,
// matching the half-spectrum the mapper consumes. dst must have length
// Bins().
func (t *Transform) Magnitudes(dst, frame []float64) error {
	if len(frame) == 0 {
		return fmt.Errorf("frame cannot be empty")
	}
	if len(dst) != t.size/2 {
		return fmt.Errorf("destination length %d does not match bin count %d", len(dst), t.size/2)
	}
	coeffs, err := t.Coefficients(frame)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = cmplx.Abs(coeffs[i])
	}
	return nil
}

// BinFrequency returns the center frequency in Hz of bin i for the given
// sample rate, or 0 for out-of-range bins.
func (t *Transform) BinFrequency(i int, sampleRate float64) float64 {
	if i < 0 || i > t.size/2 {
		return 0
	}
	return float64(i) * sampleRate / float64(t.size)
}

// Clamp constrains value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, value))
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
