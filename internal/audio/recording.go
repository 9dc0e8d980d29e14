// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	bitDepth := e.config.Recording.BitDepth
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported recording bit depth: %d", bitDepth)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	channels := e.config.Audio.InputChannels
	e.wavEncoder = wav.NewEncoder(file, int(e.config.Audio.SampleRate),
		bitDepth, channels, 1)

	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(e.config.Audio.SampleRate),
		},
		Data: make([]int, e.config.Audio.FramesPerBuffer*channels),
	}

	atomic.StoreInt32(&e.isRecording, 1)

	return nil
}

func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&e.isRecording, 0)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}

	return nil
}

func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	if err := e.StopInputStream(); err != nil {
		return err
	}

	return nil
}
