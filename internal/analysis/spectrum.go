// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"specviz/internal/dsp"
)

// Clamp ranges for the extractor's runtime-tunable parameters.
const (
	minAmplitudeExponent = 0.25
	maxAmplitudeExponent = 10.0

	// Headroom applied above the frame peak so the loudest bin does not
	// pin the display at full scale.
	normalizerHeadroom = 1.25
)

// Extractor converts a time-domain frame into a normalized magnitude
// spectrum: gain, analysis window, FFT, log-amplitude compression and
// adaptive normalization. The normalizer is the only state carried across
// frames; it rises instantly to track the current peak and falls only via
// the configured decay speed, giving an AGC-like visual response.
type Extractor struct {
	transform *dsp.Transform
	window    dsp.Window

	gain          float64
	exponent      float64
	minNormalizer float64

	normalizer float64
	decaySpeed float64

	// Workspaces, reallocated only when the FFT size changes.
	coeffs []float64
	frame  []float64
}

// NewExtractor creates an extractor for power-of-two frames of fftSize
// samples.
func NewExtractor(fftSize int, window dsp.Window) (*Extractor, error) {
	e := &Extractor{
		window:        window,
		gain:          1.0,
		exponent:      2.0,
		minNormalizer: 1.0,
	}
	if err := e.Resize(fftSize); err != nil {
		return nil, err
	}
	e.normalizer = e.minNormalizerRoot()
	return e, nil
}

// Resize replaces the FFT plan and workspaces for a new frame size.
// Normalizer state survives a resize so the display does not flash.
func (e *Extractor) Resize(fftSize int) error {
	transform, err := dsp.NewTransform(fftSize)
	if err != nil {
		return err
	}
	e.transform = transform
	e.coeffs = make([]float64, fftSize)
	e.frame = make([]float64, fftSize)
	e.window.Coefficients(e.coeffs)
	return nil
}

// Size returns the frame length the extractor expects.
func (e *Extractor) Size() int { return e.transform.Size() }

// Bins returns the spectrum length produced by Extract.
func (e *Extractor) Bins() int { return e.transform.Bins() }

// SetWindow switches the analysis window and rebuilds the coefficient
// table in place.
func (e *Extractor) SetWindow(w dsp.Window) {
	e.window = w
	e.window.Coefficients(e.coeffs)
}

// Window returns the current analysis window.
func (e *Extractor) Window() dsp.Window { return e.window }

// SetGain sets the pre-FFT gain. Negative values clamp to zero.
func (e *Extractor) SetGain(gain float64) {
	e.gain = math.Max(0, gain)
}

// SetAmplitudeExponent sets the log-compression contrast exponent,
// clamped to [0.25, 10]. Higher values emphasize peaks.
func (e *Extractor) SetAmplitudeExponent(exp float64) {
	e.exponent = dsp.Clamp(exp, minAmplitudeExponent, maxAmplitudeExponent)
}

// SetMinNormalizer sets the normalizer floor, clamped to [0, 1]. The floor
// keeps near-silent input from being stretched to full scale.
func (e *Extractor) SetMinNormalizer(v float64) {
	e.minNormalizer = dsp.Clamp(v, 0, 1)
}

// SetNormalizerDecaySpeed sets the per-frame normalizer release rate,
// clamped to [0, 1]. The extractor zeroes it whenever the normalizer snaps
// up to a new peak, so decay is re-armed per release.
func (e *Extractor) SetNormalizerDecaySpeed(speed float64) {
	e.decaySpeed = dsp.Clamp(speed, 0, 1)
}

// Normalizer returns the current adaptive reference amplitude.
func (e *Extractor) Normalizer() float64 { return e.normalizer }

func (e *Extractor) minNormalizerRoot() float64 {
	return math.Pow(e.minNormalizer, 1/e.exponent)
}

// Extract computes the normalized magnitude spectrum of src into dst.
// src must have length Size(); dst must have length Bins(). All output
// values are in [0, 1].
func (e *Extractor) Extract(dst, src []float64) error {
	if len(src) == 0 {
		return fmt.Errorf("input frame cannot be empty")
	}
	if len(src) != len(e.frame) {
		return fmt.Errorf("input length %d does not match fft size %d", len(src), len(e.frame))
	}
	if len(dst) != e.transform.Bins() {
		return fmt.Errorf("destination length %d does not match bin count %d", len(dst), e.transform.Bins())
	}

	for i, s := range src {
		e.frame[i] = s * e.gain * e.coeffs[i]
	}
	if err := e.transform.Magnitudes(dst, e.frame); err != nil {
		return err
	}

	maxAmplitude := 0.0
	for i, m := range dst {
		c := math.Log1p(math.Pow(m, e.exponent))
		dst[i] = c
		if c > maxAmplitude {
			maxAmplitude = c
		}
	}

	// Instant attack, gradual release: the normalizer only falls by the
	// decay speed and snaps up whenever the frame peak (plus headroom)
	// exceeds it.
	e.normalizer -= e.decaySpeed
	target := math.Max(e.minNormalizerRoot(), maxAmplitude) * normalizerHeadroom
	if e.normalizer < target {
		e.normalizer = target
		e.decaySpeed = 0
	}

	for i := range dst {
		dst[i] = dsp.Clamp(dst[i]/e.normalizer, 0, 1)
	}
	return nil
}
