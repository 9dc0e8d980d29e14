// SPDX-License-Identifier: MIT
/*
Package dsp wraps the gonum transform and window primitives behind small,
reusable types sized for the visualization pipeline: analysis window
coefficient tables and a real FFT with a cached plan and workspace.
*/
package dsp

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// Window selects the analysis window applied to a frame before the FFT.
type Window int

// Available window functions. Rectangular means no tapering.
const (
	Rectangular Window = iota
	Hann
	Hamming
	Blackman
	BlackmanHarris
	BlackmanNuttall
	Nuttall
	Lanczos
)

// String returns the canonical lower-case name of the window.
func (w Window) String() string {
	switch w {
	case Rectangular:
		return "rectangular"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanHarris:
		return "blackmanharris"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Nuttall:
		return "nuttall"
	case Lanczos:
		return "lanczos"
	default:
		return "unknown"
	}
}

// WindowNames lists the canonical names accepted by ParseWindow, in
// declaration order. Used to build help text that stays in sync with the
// parser.
func WindowNames() []string {
	names := make([]string, 0, int(Lanczos)+1)
	for w := Rectangular; w <= Lanczos; w++ {
		names = append(names, w.String())
	}
	return names
}

// ParseWindow converts a name (case-insensitive) to a Window.
// Returns Hann and an error if the name is unknown.
func ParseWindow(name string) (Window, error) {
	switch strings.ToLower(name) {
	case "rectangular", "none":
		return Rectangular, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmanharris", "blackman-harris":
		return BlackmanHarris, nil
	case "blackmannuttall", "blackman-nuttall":
		return BlackmanNuttall, nil
	case "nuttall":
		return Nuttall, nil
	case "lanczos":
		return Lanczos, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: %q", name)
	}
}

// Coefficients fills dst with the window's coefficient table.
// The gonum window functions multiply a sequence in place, so dst is
// seeded with ones first; passing an all-ones slice yields the raw
// coefficients.
func (w Window) Coefficients(dst []float64) {
	for i := range dst {
		dst[i] = 1.0
	}
	switch w {
	case Rectangular:
		// Ones already in place.
	case Hann:
		window.Hann(dst)
	case Hamming:
		window.Hamming(dst)
	case Blackman:
		window.Blackman(dst)
	case BlackmanHarris:
		window.BlackmanHarris(dst)
	case BlackmanNuttall:
		window.BlackmanNuttall(dst)
	case Nuttall:
		window.Nuttall(dst)
	case Lanczos:
		window.Lanczos(dst)
	default:
		window.Hann(dst)
	}
}
