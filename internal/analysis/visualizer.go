// SPDX-License-Identifier: MIT
/*
Package analysis implements the real-time spectral visualization pipeline:
sliding-window audio buffering, windowed FFT spectrum extraction with
adaptive normalization, logarithmic frequency-to-pixel mapping with
selectable interpolation, and temporal decay with spatial smoothing.

Two actors touch a Visualizer: the audio producer pushes sample chunks at
the engine's buffer rate, and a display consumer pulls rendered frames on
its own tick. The hand-off is mutex-guarded; every DSP buffer is owned by
the consumer and reused across ticks, reallocated only when a shape
change (FFT size, output width) invalidates it.
*/
package analysis

import (
	"fmt"
	"math"
	"sync"

	"specviz/internal/dsp"
	"specviz/pkg/bitint"
)

// MixAllChannels selects an average of every input channel instead of a
// single one.
const MixAllChannels = -1

// Visualizer owns the full pipeline state for one spectrum view.
type Visualizer struct {
	sliding *SlidingWindow

	mu sync.Mutex

	fftSize        int
	channel        int
	frequencyScale float64
	decayFactor    float64
	decayMode      DecayMode
	smoothness     float64
	level          float64

	extractor *Extractor
	mapper    Mapper

	// Consumer-owned workspaces, grown on demand and reused.
	frame     []float64
	spectrum  []float64
	mapped    []float64
	displayed []float64
	mix       []float64
}

// NewVisualizer creates a visualizer with the given FFT window size
// (clamped to a power of two in [64, 16384]) and nominal sample rate.
func NewVisualizer(fftSize int, sampleRate float64) (*Visualizer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	size := bitint.ClampPowerOfTwo(fftSize, dsp.MinFFTSize, dsp.MaxFFTSize)
	extractor, err := NewExtractor(size, dsp.Hann)
	if err != nil {
		return nil, err
	}
	return &Visualizer{
		sliding:        NewSlidingWindow(size, sampleRate),
		fftSize:        size,
		channel:        0,
		frequencyScale: 1.0,
		decayFactor:    0.86,
		decayMode:      DecayMultiply,
		smoothness:     0,
		extractor:      extractor,
		mapper:         NewMapper(),
	}, nil
}

// Push delivers one render block from the audio producer. samples is
// indexed [channel][frame]; the visualizer clones what it retains, so the
// caller may reuse the buffers immediately.
func (v *Visualizer) Push(samples [][]float64, sampleRate float64) error {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return fmt.Errorf("samples cannot be empty")
	}

	v.mu.Lock()
	chunk := v.selectChannelLocked(samples)
	peak := 0.0
	for _, s := range chunk {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	v.level = peak
	if sampleRate > 0 {
		v.sliding.SetSampleRate(sampleRate)
	}
	err := v.sliding.Push(chunk)
	v.mu.Unlock()
	return err
}

// selectChannelLocked picks the configured channel out of samples, or
// averages all channels into the mix workspace when MixAllChannels is set.
// Out-of-range channel selections fall back to the last channel present.
func (v *Visualizer) selectChannelLocked(samples [][]float64) []float64 {
	if v.channel != MixAllChannels {
		ch := v.channel
		if ch >= len(samples) {
			ch = len(samples) - 1
		}
		return samples[ch]
	}

	n := len(samples[0])
	if len(v.mix) != n {
		v.mix = make([]float64, n)
	}
	scale := 1 / float64(len(samples))
	for i := 0; i < n; i++ {
		sum := 0.0
		for ch := range samples {
			if i < len(samples[ch]) {
				sum += samples[ch][i]
			}
		}
		v.mix[i] = sum * scale
	}
	return v.mix
}

// Frame runs one refresh tick: read the time-aligned window slice, extract
// the normalized spectrum, map it onto width pixels, and blend it into the
// displayed frame with decay and smoothing. The returned slice is owned by
// the visualizer and valid until the next call; callers that retain it
// must copy. On error the previous displayed frame is returned unchanged,
// favoring visual continuity.
func (v *Visualizer) Frame(width int) ([]float64, error) {
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.extractor.Size() != v.fftSize {
		if err := v.extractor.Resize(v.fftSize); err != nil {
			return v.displayed, err
		}
	}
	if len(v.frame) != v.fftSize {
		v.frame = make([]float64, v.fftSize)
	}
	if len(v.spectrum) != v.extractor.Bins() {
		v.spectrum = make([]float64, v.extractor.Bins())
	}
	if len(v.mapped) != width {
		v.mapped = make([]float64, width)
	}
	if len(v.displayed) != width {
		// Output width changed: previous frame contents are meaningless
		// at the new shape, start from zero.
		v.displayed = make([]float64, width)
	}

	if err := v.sliding.ReadFrame(v.frame); err != nil {
		return v.displayed, err
	}
	if err := v.extractor.Extract(v.spectrum, v.frame); err != nil {
		return v.displayed, err
	}
	if err := v.mapper.Map(v.mapped, v.spectrum, v.frequencyScale); err != nil {
		return v.displayed, err
	}

	ApplyDecay(v.displayed, v.mapped, v.decayFactor, v.decayMode)
	SmoothBidirectional(v.displayed, v.smoothness)
	return v.displayed, nil
}

// Level returns the peak absolute sample value of the most recent chunk,
// for non-spectral consumers (volume meters).
func (v *Visualizer) Level() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.level
}

// SetFFTWindowSize changes the analysis window size, clamped to the
// nearest power of two in [64, 16384]. Workspaces are rebuilt on the next
// Frame call.
func (v *Visualizer) SetFFTWindowSize(size int) {
	clamped := bitint.ClampPowerOfTwo(size, dsp.MinFFTSize, dsp.MaxFFTSize)
	v.mu.Lock()
	v.fftSize = clamped
	v.mu.Unlock()
	v.sliding.SetFFTSize(clamped)
}

// FFTWindowSize returns the current analysis window size.
func (v *Visualizer) FFTWindowSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fftSize
}

// SetWindowType switches the analysis window function.
func (v *Visualizer) SetWindowType(w dsp.Window) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.extractor.SetWindow(w)
}

// SetGain sets the pre-FFT gain.
func (v *Visualizer) SetGain(gain float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.extractor.SetGain(gain)
}

// SetAmplitudeExponent sets the log-compression exponent, clamped to
// [0.25, 10].
func (v *Visualizer) SetAmplitudeExponent(exp float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.extractor.SetAmplitudeExponent(exp)
}

// SetMinAmplitudeNormalizer sets the normalizer floor, clamped to [0, 1].
func (v *Visualizer) SetMinAmplitudeNormalizer(m float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.extractor.SetMinNormalizer(m)
}

// SetNormalizerDecaySpeed sets the normalizer release rate, clamped to
// [0, 1].
func (v *Visualizer) SetNormalizerDecaySpeed(speed float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.extractor.SetNormalizerDecaySpeed(speed)
}

// SetFrequencyScale sets the log-position exponent, clamped to [0.5, 4].
func (v *Visualizer) SetFrequencyScale(scale float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frequencyScale = dsp.Clamp(scale, MinFrequencyScale, MaxFrequencyScale)
}

// SetInterpolationMode selects the bin→pixel resampling policy.
func (v *Visualizer) SetInterpolationMode(mode InterpolationMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mapper.Mode = mode
}

// SetFixedBarCount sets the slot count for fixed-width mode. Zero or
// negative counts are rejected.
func (v *Visualizer) SetFixedBarCount(count int) error {
	if count <= 0 {
		return fmt.Errorf("bar count must be positive, got %d", count)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mapper.BarCount = count
	return nil
}

// SetFixedBarWidth sets the filled fraction of each fixed-width slot,
// clamped to [0, 1].
func (v *Visualizer) SetFixedBarWidth(width float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mapper.BarWidth = dsp.Clamp(width, 0, 1)
}

// SetDecayFactor sets the retained fraction of the previous frame,
// clamped to [0, 1].
func (v *Visualizer) SetDecayFactor(factor float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.decayFactor = dsp.Clamp(factor, 0, 1)
}

// SetDecayMode selects the temporal decay blend.
func (v *Visualizer) SetDecayMode(mode DecayMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.decayMode = mode
}

// SetSmoothness sets the bidirectional smoothing coefficient, clamped to
// [0, 1]. Zero disables the spatial pass.
func (v *Visualizer) SetSmoothness(s float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.smoothness = dsp.Clamp(s, 0, 1)
}

// SetChannel selects the input channel to analyze, or MixAllChannels for
// an all-channel average. Other negative values are rejected; selections
// beyond the channel count of a delivered block fall back to its last
// channel.
func (v *Visualizer) SetChannel(ch int) error {
	if ch < MixAllChannels {
		return fmt.Errorf("channel must be >= 0 or MixAllChannels, got %d", ch)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.channel = ch
	return nil
}
