// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"

	"specviz/internal/dsp"
)

// Frequency scale bounds for the logarithmic position table.
const (
	MinFrequencyScale = 0.5
	MaxFrequencyScale = 4.0
)

// InterpolationMode selects how spectrum bins are resampled onto pixels.
type InterpolationMode int

// Resampling policies. Easing applies a smoothstep curve to the linear
// blend parameter; Cubic is a full Catmull-Rom spline over four neighbor
// bins. The two are deliberately separate modes.
const (
	InterpNearest InterpolationMode = iota
	InterpLinear
	InterpEasing
	InterpCubic
	InterpFixedWidth
)

// String returns the canonical lower-case name of the mode.
func (m InterpolationMode) String() string {
	switch m {
	case InterpNearest:
		return "nearest"
	case InterpLinear:
		return "linear"
	case InterpEasing:
		return "easing"
	case InterpCubic:
		return "cubic"
	case InterpFixedWidth:
		return "fixedwidth"
	default:
		return "unknown"
	}
}

// ParseInterpolationMode converts a name (case-insensitive) to a mode.
// Returns InterpLinear and an error if the name is unknown.
func ParseInterpolationMode(name string) (InterpolationMode, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return InterpNearest, nil
	case "linear":
		return InterpLinear, nil
	case "easing":
		return InterpEasing, nil
	case "cubic":
		return InterpCubic, nil
	case "fixedwidth", "fixed-width", "bars":
		return InterpFixedWidth, nil
	default:
		return InterpLinear, fmt.Errorf("unknown interpolation mode: %q", name)
	}
}

// ScaledPositions fills dst with the target pixel coordinate of each
// spectrum bin: log10(1+i)/log10(1+bins) raised to scale, stretched over
// [0, width-1]. The log mapping approximates perceptual frequency spacing;
// scale biases compression toward low (<1) or high (>1) frequencies.
func ScaledPositions(dst []float64, width int, scale float64) error {
	if len(dst) == 0 {
		return fmt.Errorf("positions cannot be empty")
	}
	if width <= 0 {
		return fmt.Errorf("width must be positive, got %d", width)
	}
	if scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", scale)
	}
	denom := math.Log10(1 + float64(len(dst)))
	for i := range dst {
		normalized := math.Log10(1+float64(i)) / denom
		dst[i] = math.Pow(normalized, scale) * float64(width-1)
	}
	return nil
}

// PositionTable caches bin→pixel positions so the O(bins·log) rebuild only
// happens when the bin count, output width or frequency scale changes.
type PositionTable struct {
	positions []float64
	width     int
	scale     float64
}

// Update returns the position table for the given shape, recomputing it
// only when an input changed since the previous call.
func (p *PositionTable) Update(bins, width int, scale float64) ([]float64, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", bins)
	}
	if len(p.positions) == bins && p.width == width && p.scale == scale {
		return p.positions, nil
	}
	if len(p.positions) != bins {
		p.positions = make([]float64, bins)
	}
	if err := ScaledPositions(p.positions, width, scale); err != nil {
		return nil, err
	}
	p.width = width
	p.scale = scale
	return p.positions, nil
}

func checkMapArgs(dst, spectrum, positions []float64) error {
	if len(spectrum) == 0 {
		return fmt.Errorf("spectrum cannot be empty")
	}
	if len(positions) != len(spectrum) {
		return fmt.Errorf("positions length %d does not match spectrum length %d", len(positions), len(spectrum))
	}
	if len(dst) == 0 {
		return fmt.Errorf("output cannot be empty")
	}
	return nil
}

// MapNearest resamples with no interpolation: each bin's pixel span is
// filled with the bin's own value. Overlapping spans keep the larger value
// (max-hold), so dense high-frequency bins never flicker a pixel downward.
func MapNearest(dst, spectrum, positions []float64) error {
	if err := checkMapArgs(dst, spectrum, positions); err != nil {
		return err
	}
	zero(dst)
	for i := 0; i < len(positions)-1; i++ {
		startX := int(positions[i])
		endX := int(positions[i+1])
		if startX >= len(dst) || endX >= len(dst) {
			continue
		}
		v := spectrum[i]
		for x := startX; x <= endX; x++ {
			if v > dst[x] {
				dst[x] = v
			}
		}
	}
	return nil
}

// MapLinear resamples with a linear blend between adjacent bins, max-held
// against previously written pixels.
func MapLinear(dst, spectrum, positions []float64) error {
	return mapBlend(dst, spectrum, positions, false)
}

// MapEasing resamples like MapLinear but shapes the blend parameter with a
// smoothstep curve (t²(3-2t)), softening the transitions between bins.
func MapEasing(dst, spectrum, positions []float64) error {
	return mapBlend(dst, spectrum, positions, true)
}

func mapBlend(dst, spectrum, positions []float64, ease bool) error {
	if err := checkMapArgs(dst, spectrum, positions); err != nil {
		return err
	}
	zero(dst)
	for i := 0; i < len(positions)-1; i++ {
		startX := int(positions[i])
		endX := int(positions[i+1])
		if startX >= len(dst) || endX >= len(dst) {
			continue
		}
		startValue := spectrum[i]
		endValue := spectrum[i+1]
		span := positions[i+1] - positions[i] + 1e-6 // epsilon guards zero spans
		for x := startX; x <= endX; x++ {
			t := dsp.Clamp((float64(x)-positions[i])/span, 0, 1)
			if ease {
				t = t * t * (3 - 2*t)
			}
			v := dsp.Lerp(startValue, endValue, t)
			if v > dst[x] {
				dst[x] = v
			}
		}
	}
	return nil
}

// MapCubic resamples with a Catmull-Rom spline over the two neighbor bins
// on each side, clamped at the array ends. The spline can overshoot, so
// results are clamped back to [0, 1] before the max-hold write.
func MapCubic(dst, spectrum, positions []float64) error {
	if err := checkMapArgs(dst, spectrum, positions); err != nil {
		return err
	}
	zero(dst)
	for i := 0; i < len(positions)-1; i++ {
		startX := int(positions[i])
		endX := int(positions[i+1])
		if startX >= len(dst) || endX >= len(dst) || endX < startX {
			continue
		}

		p0 := spectrum[maxInt(i-1, 0)]
		p1 := spectrum[i]
		p2 := spectrum[i+1]
		p3 := spectrum[minInt(i+2, len(spectrum)-1)]

		span := positions[i+1] - positions[i]
		if span <= 0 {
			span = 1
		}
		for x := startX; x <= endX; x++ {
			t := dsp.Clamp((float64(x)-positions[i])/span, 0, 1)
			v := dsp.Clamp(catmullRom(p0, p1, p2, p3, t), 0, 1)
			if v > dst[x] {
				dst[x] = v
			}
		}
	}
	return nil
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * (2*p1 +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// MapFixedWidth first resamples linearly, then quantizes the output into
// barCount equal slots: within each slot the maximum fills a barWidth
// fraction of the slot and the remainder is zeroed, producing a discrete
// bar-graph look.
func MapFixedWidth(dst, spectrum, positions []float64, width, barCount int, barWidth float64) error {
	if width <= 0 {
		return fmt.Errorf("width must be positive, got %d", width)
	}
	if barCount <= 0 {
		return fmt.Errorf("bar count must be positive, got %d", barCount)
	}
	if err := MapLinear(dst, spectrum, positions); err != nil {
		return err
	}

	if barCount > width {
		barCount = width
	}
	step := math.Max(1, float64(width)/float64(barCount))
	barWidth = dsp.Clamp(barWidth, 0, 1)
	barPixels := math.Max(1, step*barWidth)

	for bar := 0; bar < barCount; bar++ {
		startX := int(float64(bar) * step)
		endX := minInt(width-1, int(float64(startX)+barPixels))
		nextStartX := minInt(width-1, int(float64(bar+1)*step))

		maxValue := 0.0
		for x := startX; x <= endX; x++ {
			if dst[x] > maxValue {
				maxValue = dst[x]
			}
		}
		for x := startX; x <= endX; x++ {
			dst[x] = maxValue
		}
		for x := endX + 1; x <= nextStartX; x++ {
			dst[x] = 0
		}
	}
	return nil
}

// Mapper resamples normalized spectra into pixel-indexed arrays using a
// cached position table and a selectable interpolation policy.
type Mapper struct {
	table    PositionTable
	Mode     InterpolationMode
	BarCount int
	BarWidth float64
}

// NewMapper returns a mapper with the defaults the spectrum view ships
// with: easing interpolation, 24 bars at 3/4 slot width.
func NewMapper() Mapper {
	return Mapper{
		Mode:     InterpEasing,
		BarCount: 24,
		BarWidth: 0.75,
	}
}

// Map resamples spectrum into dst (one entry per output pixel) under the
// given frequency scale. The position table is rebuilt only when the
// spectrum length, output width or scale changed.
func (m *Mapper) Map(dst, spectrum []float64, scale float64) error {
	positions, err := m.table.Update(len(spectrum), len(dst), scale)
	if err != nil {
		return err
	}
	switch m.Mode {
	case InterpNearest:
		return MapNearest(dst, spectrum, positions)
	case InterpLinear:
		return MapLinear(dst, spectrum, positions)
	case InterpEasing:
		return MapEasing(dst, spectrum, positions)
	case InterpCubic:
		return MapCubic(dst, spectrum, positions)
	case InterpFixedWidth:
		return MapFixedWidth(dst, spectrum, positions, len(dst), m.BarCount, m.BarWidth)
	default:
		return fmt.Errorf("unknown interpolation mode: %d", m.Mode)
	}
}

func zero(data []float64) {
	for i := range data {
		data[i] = 0
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
