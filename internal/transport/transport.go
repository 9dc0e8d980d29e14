// SPDX-License-Identifier: MIT
package transport

// Transport defines a generic interface for sending rendered spectrum
// frames. Implementations should be thread-safe and must not retain the
// slice passed to Send past the call.
type Transport interface {
	Send(frame []float64) error
	Close() error
}

// FrameSource is implemented by anything that can render a pixel frame on
// demand. The visualizer is the canonical implementation; tests substitute
// fakes.
type FrameSource interface {
	Frame(width int) ([]float64, error)
}
