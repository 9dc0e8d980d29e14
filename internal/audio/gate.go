// SPDX-License-Identifier: MIT
package audio

import "math"

func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold sets the peak amplitude, as a fraction of full scale
// in [0, 1], a capture buffer must exceed to reach the analysis pipeline.
// Zero lets every buffer through; one blocks everything. Stored as int32
// so the hot path compares raw samples without a float conversion.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	e.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// GetGateThreshold returns the gate threshold as a fraction of full scale.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold) / float64(math.MaxInt32)
}
