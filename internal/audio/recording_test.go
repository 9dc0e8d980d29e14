// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"specviz/internal/config"
)

func newRecordingEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Audio.SampleRate = testSampleRate
	cfg.Audio.InputChannels = 2
	cfg.Audio.FramesPerBuffer = testFrameSize
	cfg.Recording.BitDepth = 16
	return &Engine{config: cfg}
}

func TestRecordingStartStopHotPath(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_recording.wav")
	engine := newRecordingEngine(t)

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 1 {
		t.Error("Engine should be in recording state")
	}

	if engine.outputFile == nil {
		t.Error("Output file should be initialized")
	}

	if engine.wavEncoder == nil {
		t.Error("WAV encoder should be initialized")
	}

	if engine.sampleBuf == nil {
		t.Error("Sample buffer should be initialized")
	}

	if engine.sampleBuf.Format.NumChannels != engine.config.Audio.InputChannels {
		t.Errorf("Buffer channels mismatch: got %d, want %d",
			engine.sampleBuf.Format.NumChannels, engine.config.Audio.InputChannels)
	}

	if engine.sampleBuf.Format.SampleRate != int(engine.config.Audio.SampleRate) {
		t.Errorf("Buffer sample rate mismatch: got %d, want %d",
			engine.sampleBuf.Format.SampleRate, int(engine.config.Audio.SampleRate))
	}

	wantLen := engine.config.Audio.FramesPerBuffer * engine.config.Audio.InputChannels
	if len(engine.sampleBuf.Data) != wantLen {
		t.Errorf("Buffer size mismatch: got %d, want %d", len(engine.sampleBuf.Data), wantLen)
	}

	// Store reference to check file closure.
	outputFile := engine.outputFile

	if err := engine.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 0 {
		t.Error("Engine should not be in recording state after stopping")
	}

	if engine.outputFile != nil {
		t.Error("Output file should be nil after stopping")
	}

	if engine.wavEncoder != nil {
		t.Error("WAV encoder should be nil after stopping")
	}

	if err := outputFile.Close(); err == nil {
		t.Error("File should already be closed")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Error("Recording file was not created")
	}
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		desc          string
		filename      string
		isRecording   int32
		expectError   bool
		errorContains string
	}{
		{"Already recording", "valid.wav", 1, true, "already recording"},
		{"Invalid path", "/nonexistent/path/file.wav", 0, true, ""},
		{"Valid path", "test.wav", 0, false, ""},
		{"Stop when not recording", "", 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := newRecordingEngine(t)
			atomic.StoreInt32(&engine.isRecording, tt.isRecording)

			var err error
			if tt.desc == "Stop when not recording" {
				err = engine.StopRecording()
			} else {
				filename := tt.filename
				if !tt.expectError {
					filename = filepath.Join(dir, tt.filename)
				}

				err = engine.StartRecording(filename)
				if err == nil {
					_ = engine.StopRecording()
				}
			}

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}

			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}

			if tt.errorContains != "" && err != nil {
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Error %q does not contain %q", err.Error(), tt.errorContains)
				}
			}
		})
	}
}

func TestRecordingRejectsBadBitDepth(t *testing.T) {
	engine := newRecordingEngine(t)
	engine.config.Recording.BitDepth = 12

	err := engine.StartRecording(filepath.Join(t.TempDir(), "bad.wav"))
	if err == nil || !strings.Contains(err.Error(), "bit depth") {
		t.Errorf("expected bit depth error, got %v", err)
	}
}

func TestCloseEngineWithRecording(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_close_engine.wav")
	engine := newRecordingEngine(t)

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Failed to close engine: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 0 {
		t.Error("Engine should not be in recording state after Close()")
	}

	if engine.outputFile != nil {
		t.Error("Output file should be nil after Close()")
	}

	if engine.wavEncoder != nil {
		t.Error("WAV encoder should be nil after Close()")
	}
}

func TestRecordingNoAllocsHotPath(t *testing.T) {
	engine := newRecordingEngine(t)
	engine.inputBuffer = make([]int32, testFrameSize*2)

	filename := filepath.Join(t.TempDir(), "test_alloc.wav")
	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	defer engine.StopRecording()

	// Test for zero allocations during sample conversion.
	allocs := testing.AllocsPerRun(100, func() {
		var maxAmplitude int32
		for _, sample := range testBuffer {
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}

		if atomic.LoadInt32(&engine.isRecording) == 1 && engine.sampleBuf != nil {
			for i := 0; i < 10 && i < len(engine.sampleBuf.Data); i++ {
				engine.sampleBuf.Data[i] = int(testBuffer[i] >> 16)
			}
		}
	})

	if allocs > 0 {
		t.Errorf("Recording hot path allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkRecordingStartStopHotPath(b *testing.B) {
	engine := newRecordingEngineB(b)
	dir := b.TempDir()

	b.ReportAllocs()
	b.ResetTimer()

	for bi := 0; bi < b.N; bi++ {
		filename := filepath.Join(dir, "bench.wav")
		_ = os.Remove(filename) // Ensure clean state for each iteration
		_ = engine.StartRecording(filename)
		_ = engine.StopRecording()
	}
}

func newRecordingEngineB(b *testing.B) *Engine {
	b.Helper()
	cfg := config.Default()
	cfg.Audio.SampleRate = testSampleRate
	cfg.Audio.InputChannels = 2
	cfg.Audio.FramesPerBuffer = testFrameSize
	cfg.Recording.BitDepth = 16
	return &Engine{config: cfg}
}
