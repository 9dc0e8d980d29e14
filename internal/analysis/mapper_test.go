// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaledPositions(t *testing.T) {
	const bins = 512
	const width = 800

	positions := make([]float64, bins)
	require.NoError(t, ScaledPositions(positions, width, 1.0))

	require.Zero(t, positions[0], "bin 0 must land on pixel 0")
	require.LessOrEqual(t, positions[bins-1], float64(width-1))
	require.InDelta(t, float64(width-1), positions[bins-1], 1.0, "last bin must land near the right edge")

	for i := 1; i < bins; i++ {
		require.GreaterOrEqual(t, positions[i], positions[i-1],
			"positions must be non-decreasing at bin %d", i)
	}

	// Logarithmic spacing: early bins are spread wider apart than late bins.
	require.Greater(t, positions[1]-positions[0], positions[bins-1]-positions[bins-2])
}

func TestScaledPositionsScaleBias(t *testing.T) {
	const bins = 256
	const width = 400

	flat := make([]float64, bins)
	compressed := make([]float64, bins)
	require.NoError(t, ScaledPositions(flat, width, 1.0))
	require.NoError(t, ScaledPositions(compressed, width, 2.0))

	// A scale above one pushes mid bins leftward, giving high frequencies
	// more of the axis.
	mid := bins / 2
	require.Less(t, compressed[mid], flat[mid])
}

func TestScaledPositionsRejectsBadArgs(t *testing.T) {
	dst := make([]float64, 16)
	require.Error(t, ScaledPositions(nil, 100, 1.0))
	require.Error(t, ScaledPositions(dst, 0, 1.0))
	require.Error(t, ScaledPositions(dst, -5, 1.0))
	require.Error(t, ScaledPositions(dst, 100, 0))
	require.Error(t, ScaledPositions(dst, 100, -1))
}

func TestPositionTableCaching(t *testing.T) {
	var table PositionTable

	first, err := table.Update(128, 300, 1.0)
	require.NoError(t, err)

	second, err := table.Update(128, 300, 1.0)
	require.NoError(t, err)
	require.Equal(t, &first[0], &second[0], "unchanged shape must reuse the cached table")

	// The table mutates its backing array in place, so capture the value
	// before forcing a recompute.
	before := first[64]
	third, err := table.Update(128, 300, 1.5)
	require.NoError(t, err)
	require.NotEqual(t, before, third[64], "scale change must recompute positions")

	_, err = table.Update(0, 300, 1.0)
	require.Error(t, err)
}

func mapperTestSpectrum(bins int) []float64 {
	spectrum := make([]float64, bins)
	for i := range spectrum {
		spectrum[i] = float64(i%7) / 7.0
	}
	return spectrum
}

func TestMapModesOutputRange(t *testing.T) {
	const bins = 256
	const width = 320

	spectrum := mapperTestSpectrum(bins)
	positions := make([]float64, bins)
	require.NoError(t, ScaledPositions(positions, width, 1.0))

	modes := []struct {
		name string
		fn   func(dst []float64) error
	}{
		{"nearest", func(dst []float64) error { return MapNearest(dst, spectrum, positions) }},
		{"linear", func(dst []float64) error { return MapLinear(dst, spectrum, positions) }},
		{"easing", func(dst []float64) error { return MapEasing(dst, spectrum, positions) }},
		{"cubic", func(dst []float64) error { return MapCubic(dst, spectrum, positions) }},
		{"fixedwidth", func(dst []float64) error {
			return MapFixedWidth(dst, spectrum, positions, width, 24, 0.75)
		}},
	}

	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			dst := make([]float64, width)
			require.NoError(t, mode.fn(dst))
			for x, v := range dst {
				require.GreaterOrEqual(t, v, 0.0, "pixel %d", x)
				require.LessOrEqual(t, v, 1.0, "pixel %d", x)
			}

			// Mapping is a pure function of its inputs: a second run over
			// the same dst must produce identical output.
			again := make([]float64, width)
			copy(again, dst)
			require.NoError(t, mode.fn(dst))
			require.Equal(t, again, dst)
		})
	}
}

func TestMapNearestMaxHold(t *testing.T) {
	// Two bins collapse onto the same pixel; the larger must win.
	spectrum := []float64{0.2, 0.9, 0.3}
	positions := []float64{0, 0, 1}

	dst := make([]float64, 2)
	require.NoError(t, MapNearest(dst, spectrum, positions))
	require.Equal(t, 0.9, dst[0])
}

func TestMapLinearConstantSpectrum(t *testing.T) {
	const bins = 64
	const width = 100

	spectrum := make([]float64, bins)
	for i := range spectrum {
		spectrum[i] = 0.5
	}
	positions := make([]float64, bins)
	require.NoError(t, ScaledPositions(positions, width, 1.0))

	dst := make([]float64, width)
	require.NoError(t, MapLinear(dst, spectrum, positions))

	// A flat spectrum maps to a flat pixel row over the covered range.
	// Pixels to the right of the last bin position stay zero.
	covered := int(positions[bins-1])
	for x := 0; x <= covered; x++ {
		require.InDelta(t, 0.5, dst[x], 1e-9, "pixel %d", x)
	}
	for x := covered + 1; x < width; x++ {
		require.Zero(t, dst[x], "pixel %d", x)
	}
}

func TestMapFixedWidthBars(t *testing.T) {
	const bins = 64
	const width = 100
	const barCount = 4

	spectrum := make([]float64, bins)
	for i := range spectrum {
		spectrum[i] = 0.5
	}
	positions := make([]float64, bins)
	require.NoError(t, ScaledPositions(positions, width, 1.0))

	dst := make([]float64, width)
	require.NoError(t, MapFixedWidth(dst, spectrum, positions, width, barCount, 0.5))

	// step=25, barPixels=12.5: each bar fills pixels [start, start+12] and
	// the rest of the slot is zeroed.
	require.Equal(t, 0.5, dst[0])
	require.Equal(t, 0.5, dst[12])
	require.Zero(t, dst[13])
	require.Zero(t, dst[24])
	require.Equal(t, 0.5, dst[25])
	require.Zero(t, dst[48])
	require.Equal(t, 0.5, dst[75])
}

func TestMapFixedWidthBarCountExceedsWidth(t *testing.T) {
	spectrum := mapperTestSpectrum(32)
	positions := make([]float64, 32)
	require.NoError(t, ScaledPositions(positions, 10, 1.0))

	dst := make([]float64, 10)
	require.NoError(t, MapFixedWidth(dst, spectrum, positions, 10, 500, 1.0))
}

func TestMapRejectsBadArgs(t *testing.T) {
	spectrum := mapperTestSpectrum(16)
	positions := make([]float64, 16)
	require.NoError(t, ScaledPositions(positions, 32, 1.0))

	dst := make([]float64, 32)
	require.Error(t, MapLinear(dst, nil, positions))
	require.Error(t, MapLinear(nil, spectrum, positions))
	require.Error(t, MapLinear(dst, spectrum, positions[:8]))
	require.Error(t, MapFixedWidth(dst, spectrum, positions, 0, 4, 0.5))
	require.Error(t, MapFixedWidth(dst, spectrum, positions, 32, 0, 0.5))
}

func TestParseInterpolationMode(t *testing.T) {
	tests := []struct {
		input   string
		want    InterpolationMode
		wantErr bool
	}{
		{"nearest", InterpNearest, false},
		{"Linear", InterpLinear, false},
		{"EASING", InterpEasing, false},
		{"cubic", InterpCubic, false},
		{"fixedwidth", InterpFixedWidth, false},
		{"fixed-width", InterpFixedWidth, false},
		{"bars", InterpFixedWidth, false},
		{"bogus", InterpLinear, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterpolationMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolationModeRoundTrip(t *testing.T) {
	modes := []InterpolationMode{
		InterpNearest, InterpLinear, InterpEasing, InterpCubic, InterpFixedWidth,
	}
	for _, mode := range modes {
		parsed, err := ParseInterpolationMode(mode.String())
		require.NoError(t, err)
		require.Equal(t, mode, parsed)
	}
}

func TestMapperDispatch(t *testing.T) {
	m := NewMapper()
	spectrum := mapperTestSpectrum(128)
	dst := make([]float64, 200)

	for _, mode := range []InterpolationMode{
		InterpNearest, InterpLinear, InterpEasing, InterpCubic, InterpFixedWidth,
	} {
		m.Mode = mode
		require.NoError(t, m.Map(dst, spectrum, 1.0), "mode %s", mode)
	}

	m.Mode = InterpolationMode(99)
	require.Error(t, m.Map(dst, spectrum, 1.0))
}

func BenchmarkMap(b *testing.B) {
	const bins = 1024
	const width = 1920

	spectrum := mapperTestSpectrum(bins)
	dst := make([]float64, width)

	for _, mode := range []InterpolationMode{
		InterpNearest, InterpLinear, InterpEasing, InterpCubic, InterpFixedWidth,
	} {
		b.Run(mode.String(), func(b *testing.B) {
			m := NewMapper()
			m.Mode = mode

			b.ReportAllocs()
			b.ResetTimer()

			for bi := 0; bi < b.N; bi++ {
				if err := m.Map(dst, spectrum, 1.0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
