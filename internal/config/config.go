// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the capture and visualization pipeline.
const (
	// Default values for the audio capture configuration
	DefaultChannels        = 2           // Stereo capture
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 512         // Balanced latency/resolution
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio

	// Default values for the visualizer configuration
	DefaultFFTWindowSize = 2048
	DefaultWindowType    = "hann"
	DefaultGain          = 1.0
	DefaultExponent      = 2.0
	DefaultMinNormalizer = 1.0
	DefaultDecaySpeed    = 0.0
	DefaultFreqScale     = 1.0
	DefaultInterpolation = "easing"
	DefaultBarCount      = 24
	DefaultBarWidth      = 0.75
	DefaultDecayFactor   = 0.86
	DefaultDecayMode     = "multiply"
	DefaultSmoothness    = 0.0
	DefaultVizChannel    = 0

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer

	// Error handling configuration
	DefaultMaxConsecutiveWriteFailures = 5 // Max failures before stopping
)
