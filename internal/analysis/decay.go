// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"specviz/internal/dsp"
)

// DecayMode selects how a fresh pixel spectrum blends with the previous
// displayed frame.
type DecayMode int

const (
	// DecayMultiply scales the previous value down exponentially and
	// takes the fresh value when larger: instant attack, exponential
	// falloff.
	DecayMultiply DecayMode = iota
	// DecayInterpolate blends fresh and previous values; smoother, but
	// attack is finite too.
	DecayInterpolate
)

// String returns the canonical lower-case name of the mode.
func (m DecayMode) String() string {
	switch m {
	case DecayMultiply:
		return "multiply"
	case DecayInterpolate:
		return "interpolate"
	default:
		return "unknown"
	}
}

// ParseDecayMode converts a name (case-insensitive) to a DecayMode.
// Returns DecayMultiply and an error if the name is unknown.
func ParseDecayMode(name string) (DecayMode, error) {
	switch strings.ToLower(name) {
	case "multiply":
		return DecayMultiply, nil
	case "interpolate", "lerp":
		return DecayInterpolate, nil
	default:
		return DecayMultiply, fmt.Errorf("unknown decay mode: %q", name)
	}
}

// ApplyDecay blends fresh into displayed in place. factor is the retained
// fraction of the previous frame, expected in [0, 1]. Slices must have
// equal length; extra entries on either side are ignored.
func ApplyDecay(displayed, fresh []float64, factor float64, mode DecayMode) {
	n := len(displayed)
	if len(fresh) < n {
		n = len(fresh)
	}
	switch mode {
	case DecayInterpolate:
		for i := 0; i < n; i++ {
			displayed[i] = dsp.Lerp(fresh[i], displayed[i], factor)
		}
	default:
		for i := 0; i < n; i++ {
			decayed := displayed[i] * factor
			if fresh[i] > decayed {
				displayed[i] = fresh[i]
			} else {
				displayed[i] = decayed
			}
		}
	}
}

// SmoothBidirectional applies exponential smoothing along the pixel axis
// in both directions: a forward pass then a backward pass with coefficient
// k. This flattens bin-to-bin jaggedness independently of the temporal
// decay. A no-op for k <= 0 or arrays of length <= 3.
func SmoothBidirectional(data []float64, k float64) {
	if k <= 0 || len(data) <= 3 {
		return
	}
	if k > 1 {
		k = 1
	}
	inv := 1 - k
	for i := 1; i < len(data); i++ {
		data[i] = data[i-1]*k + data[i]*inv
	}
	for i := len(data) - 2; i >= 0; i-- {
		data[i] = data[i+1]*k + data[i]*inv
	}
}
