// SPDX-License-Identifier: MIT
/*
Package audio implements real-time audio capture feeding the spectrum
visualizer:
- Lock-free audio capture using PortAudio
- Branchless noise gate so silent buffers skip analysis
- WAV recording with atomic state management

Thread Safety:
- Uses atomic operations for state management
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"specviz/internal/analysis"
	"specviz/internal/config"
	applog "specviz/internal/log"
)

type Engine struct {
	// Core configuration and pipeline.
	config *config.Config
	viz    *analysis.Visualizer

	// Audio input handling.
	inputBuffer  []int32
	channelBufs  [][]float64 // Deinterleaved float frames, one slice per channel
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Noise gate for signal conditioning.
	gateEnabled   bool
	gateThreshold int32 // Absolute amplitude threshold (0-2147483647)

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
}

// NewEngine creates a capture engine delivering deinterleaved frames to the
// given visualizer.
func NewEngine(cfg *config.Config, viz *analysis.Visualizer) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	frames := cfg.Audio.FramesPerBuffer
	channels := cfg.Audio.InputChannels

	channelBufs := make([][]float64, channels)
	for ch := range channelBufs {
		channelBufs[ch] = make([]float64, frames)
	}

	engine := &Engine{
		config:        cfg,
		viz:           viz,
		inputBuffer:   make([]int32, frames*channels),
		channelBufs:   channelBufs,
		inputDevice:   inputDevice,
		gateEnabled:   true,
		gateThreshold: math.MaxInt32 / 1000, // Default to ~0.1% of full scale
	}

	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - The single allocation per open-gate buffer is the sliding window's
//   chunk clone inside Push
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer)

	// Write to WAV file if recording
	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		shift := 32 - uint(e.config.Recording.BitDepth)
		for i, sample := range e.inputBuffer {
			e.sampleBuf.Data[i] = int(sample >> shift)
		}

		e.sampleBuf.Data = e.sampleBuf.Data[:len(e.inputBuffer)]

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Error writing to WAV file: %v", err)
		}
	}
}

// processBuffer gates the buffer and forwards open-gate audio to the
// visualizer.
// Performance Critical (Hot Path):
// - Branchless noise gate implementation
// - Deinterleave into pre-allocated per-channel buffers
func (e *Engine) processBuffer(buffer []int32) {
	// Determine if the buffer should reach the visualizer based on gate.
	shouldPush := true
	if e.gateEnabled {
		var maxAmplitude int32
		for i := range buffer {
			sample := buffer[i]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		shouldPush = maxAmplitude > e.gateThreshold
	}

	if !shouldPush || e.viz == nil {
		return
	}

	channels := e.config.Audio.InputChannels
	frames := e.config.Audio.FramesPerBuffer
	const scale = 1.0 / float64(math.MaxInt32)

	for i := 0; i < frames; i++ {
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			if base+ch < len(buffer) {
				e.channelBufs[ch][i] = float64(buffer[base+ch]) * scale
			} else {
				e.channelBufs[ch][i] = 0 // Safety fallback
			}
		}
	}

	if err := e.viz.Push(e.channelBufs, e.config.Audio.SampleRate); err != nil {
		applog.Errorf("Error pushing samples to visualizer: %v", err)
	}
}
