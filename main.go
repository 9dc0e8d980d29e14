// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"specviz/cmd"
	"specviz/internal/analysis"
	"specviz/internal/audio"
	applog "specviz/internal/log"
	"specviz/internal/transport"
	"specviz/internal/transport/udp"
	"specviz/internal/tui"
	"specviz/pkg/build"
)

// main is the entry point for the spectrum visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and the config file
//   - Initialize PortAudio
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start audio capture and the analysis pipeline
//   - Begin recording if enabled
//   - Start frame transports (UDP, WebSocket)
//   - Run the terminal spectrum view
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds carry no ldflags; the baked-in defaults are fine.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build info unavailable: %v", err)
	}

	// Limit OS threads to optimize for real-time audio processing:
	// - One thread dedicated to the audio callback (time-critical)
	// - One thread for UI and I/O operations
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		applog.Fatalf("PortAudio: %v", err)
	}
	defer audio.Terminate()

	// Handle one-off commands (e.g., device listing) that don't require
	// the full pipeline to be running
	if cfg.Command != "" {
		if err := executeCommand(cfg.Command); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	viz, err := analysis.NewVisualizer(cfg.Visualizer.FFTWindowSize, cfg.Audio.SampleRate)
	if err != nil {
		applog.Fatalf("Visualizer: %v", err)
	}
	if err := cfg.ApplyVisualizer(viz); err != nil {
		applog.Fatalf("Visualizer config: %v", err)
	}

	engine, err := audio.NewEngine(cfg, viz)
	if err != nil {
		applog.Fatalf("Engine: %v", err)
	}

	// CRITICAL: Start of real-time audio processing
	// The first call to StartInputStream triggers PortAudio to begin
	// calling the callback function, marking the start of the hot path
	if err := engine.StartInputStream(); err != nil {
		applog.Fatalf("Engine: %v", err)
	}

	var recordingPath string
	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			applog.Fatalf("Recording: %v", err)
		}
		recordingPath = filepath.Join(cfg.Recording.OutputDir,
			"recording-"+time.Now().UTC().Format("02-01-2006-150405")+"."+cfg.Recording.Format)
		if err := engine.StartRecording(recordingPath); err != nil {
			applog.Fatalf("Recording: %v", err)
		}
	}

	// The pipeline keeps feedback state between renders, so only one
	// consumer may drive it. With network transports enabled, a broker
	// renders at the configured frame width and every consumer (UDP
	// publisher, WebSocket broadcast, TUI) reads its cached frame. With
	// the TUI alone, it drives the pipeline directly at terminal width.
	var frameSource transport.FrameSource = viz
	var broker *transport.FrameBroker
	if cfg.Transport.UDPEnabled || cfg.Transport.WebSocketEnabled {
		broker, err = transport.NewFrameBroker(
			cfg.Transport.UDPSendInterval, viz, cfg.Transport.FrameWidth)
		if err != nil {
			applog.Fatalf("Transport: %v", err)
		}
		if cfg.Transport.WebSocketEnabled {
			broker.AddSink(transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress))
		}
		if cfg.Debug {
			broker.AddSink(transport.NewLoggingTransport())
		}
		broker.Start()
		frameSource = broker
	}

	var publisher *udp.FramePublisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("UDP: %v", err)
		}
		defer sender.Close()

		publisher, err = udp.NewFramePublisher(
			cfg.Transport.UDPSendInterval, sender, frameSource, cfg.Transport.FrameWidth)
		if err != nil {
			applog.Fatalf("UDP: %v", err)
		}
		publisher.Start()
	}

	// Run the terminal spectrum view; quitting it or receiving a signal
	// both trigger shutdown.
	uiDone := make(chan error, 1)
	go func() {
		uiDone <- tui.StartSpectrumUI(frameSource, viz)
	}()

	select {
	case <-done:
	case err := <-uiDone:
		if err != nil {
			applog.Errorf("TUI: %v", err)
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			applog.Errorf("UDP: %v", err)
		}
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			applog.Errorf("Transport: %v", err)
		}
	}

	if err := engine.StopInputStream(); err != nil {
		applog.Errorf("Engine: %v", err)
	}

	// Stop recording if active and save the file
	if cfg.Recording.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", recordingPath)
		}
	}

	if err := engine.Close(); err != nil {
		applog.Errorf("Engine: %v", err)
	}
}

// executeCommand handles one-off commands that don't require the audio
// pipeline to be running.
func executeCommand(command string) error {
	switch command {
	case "list":
		return tui.StartDeviceListUI()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

