// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"specviz/internal/analysis"
	"specviz/internal/dsp"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug      bool             `yaml:"debug"`             // Enable debug mode (verbose logging).
	LogLevel   string           `yaml:"log_level"`         // Logging level (e.g., "debug", "info", "warn", "error").
	Command    string           `yaml:"command,omitempty"` // A one-off command to execute instead of running the engine (e.g., "list", "version").
	Audio      AudioConfig      `yaml:"audio"`             // Audio capture settings.
	Visualizer VisualizerConfig `yaml:"visualizer"`        // Spectrum visualization settings.
	Recording  RecordingConfig  `yaml:"recording"`         // Audio recording settings.
	Transport  TransportConfig  `yaml:"transport"`         // Data transport settings (UDP, WebSocket).
}

// AudioConfig holds settings related to audio input and buffering.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Audio frames per capture buffer (affects latency).
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	InputChannels   int     `yaml:"input_channels"`    // Number of input channels to capture.
}

// VisualizerConfig holds every runtime-tunable parameter of the spectrum
// pipeline. Out-of-range values are clamped by the visualizer's setters;
// Validate only rejects values that have no sensible clamp.
type VisualizerConfig struct {
	FFTWindowSize  int     `yaml:"fft_window_size"`          // Analysis window in samples, power of two in [64, 16384].
	WindowType     string  `yaml:"window_type"`              // Window function name (e.g., "hann", "blackman").
	Gain           float64 `yaml:"gain"`                     // Pre-FFT gain multiplier.
	Exponent       float64 `yaml:"amplitude_exponent"`       // Log-compression contrast exponent, [0.25, 10].
	MinNormalizer  float64 `yaml:"min_amplitude_normalizer"` // Adaptive normalizer floor, [0, 1].
	DecaySpeed     float64 `yaml:"normalizer_decay_speed"`   // Normalizer release per frame, [0, 1].
	FrequencyScale float64 `yaml:"frequency_scale"`          // Log-position exponent, [0.5, 4].
	Interpolation  string  `yaml:"interpolation"`            // Bin→pixel mode: nearest, linear, easing, cubic, fixedwidth.
	BarCount       int     `yaml:"bar_count"`                // Slot count for fixedwidth mode, > 0.
	BarWidth       float64 `yaml:"bar_width"`                // Filled fraction of each slot, [0, 1].
	DecayFactor    float64 `yaml:"decay_factor"`             // Retained fraction of previous frame, [0, 1].
	DecayMode      string  `yaml:"decay_mode"`               // Temporal blend: multiply or interpolate.
	Smoothness     float64 `yaml:"smoothness"`               // Spatial smoothing coefficient, [0, 1].
	Channel        int     `yaml:"channel"`                  // Input channel to analyze, -1 mixes all.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled     bool    `yaml:"enabled"`              // Enable audio recording to file.
	OutputDir   string  `yaml:"output_dir"`           // Directory to save recorded audio files.
	Format      string  `yaml:"format"`               // File format for recordings (e.g., "wav").
	BitDepth    int     `yaml:"bit_depth"`            // Bit depth for recorded audio (e.g., 16, 24).
	MaxDuration int     `yaml:"max_duration_seconds"` // Maximum duration of a single recording in seconds (0 for unlimited).
	SilenceTh   float64 `yaml:"silence_threshold"`    // Level below which input counts as silence.
}

// TransportConfig holds settings related to sending rendered frames over
// the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending spectrum frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
	FrameWidth       int           `yaml:"frame_width"`        // Pixel width of published frames.
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve frames over a WebSocket endpoint.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address for the WebSocket server.
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("config.yaml"). If no file is
// found, it uses built-in defaults. After loading, it applies environment
// variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
		},
		Visualizer: VisualizerConfig{
			FFTWindowSize:  DefaultFFTWindowSize,
			WindowType:     DefaultWindowType,
			Gain:           DefaultGain,
			Exponent:       DefaultExponent,
			MinNormalizer:  DefaultMinNormalizer,
			DecaySpeed:     DefaultDecaySpeed,
			FrequencyScale: DefaultFreqScale,
			Interpolation:  DefaultInterpolation,
			BarCount:       DefaultBarCount,
			BarWidth:       DefaultBarWidth,
			DecayFactor:    DefaultDecayFactor,
			DecayMode:      DefaultDecayMode,
			Smoothness:     DefaultSmoothness,
			Channel:        DefaultVizChannel,
		},
		Recording: RecordingConfig{
			Enabled:     false,
			OutputDir:   "./recordings",
			Format:      "wav",
			BitDepth:    16,
			MaxDuration: 0,
			SilenceTh:   0.01,
		},
		Transport: TransportConfig{
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz.
			FrameWidth:       128,
			WebSocketEnabled: false,
			WebSocketAddress: ":8080",
		},
	}
}

// Validate rejects configuration values that cannot be clamped into a
// usable state. Rangeable numeric parameters are left to the visualizer's
// own clamping.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %g outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside (0, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.InputChannels <= 0 {
		return fmt.Errorf("audio.input_channels must be positive, got %d", c.Audio.InputChannels)
	}
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice)
	}

	if _, err := dsp.ParseWindow(c.Visualizer.WindowType); err != nil {
		return fmt.Errorf("visualizer.window_type: %w", err)
	}
	if _, err := analysis.ParseInterpolationMode(c.Visualizer.Interpolation); err != nil {
		return fmt.Errorf("visualizer.interpolation: %w", err)
	}
	if _, err := analysis.ParseDecayMode(c.Visualizer.DecayMode); err != nil {
		return fmt.Errorf("visualizer.decay_mode: %w", err)
	}
	if c.Visualizer.BarCount <= 0 {
		return fmt.Errorf("visualizer.bar_count must be positive, got %d", c.Visualizer.BarCount)
	}
	if c.Visualizer.Channel < analysis.MixAllChannels {
		return fmt.Errorf("visualizer.channel must be >= 0 or -1, got %d", c.Visualizer.Channel)
	}

	if c.Transport.UDPEnabled || c.Transport.WebSocketEnabled {
		if c.Transport.FrameWidth <= 0 {
			return fmt.Errorf("transport.frame_width must be positive, got %d", c.Transport.FrameWidth)
		}
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}

	return nil
}

// ApplyVisualizer pushes the visualizer section onto a live pipeline.
// Parse errors are impossible after Validate; clamping happens inside the
// setters.
func (c *Config) ApplyVisualizer(v *analysis.Visualizer) error {
	window, err := dsp.ParseWindow(c.Visualizer.WindowType)
	if err != nil {
		return err
	}
	interp, err := analysis.ParseInterpolationMode(c.Visualizer.Interpolation)
	if err != nil {
		return err
	}
	decay, err := analysis.ParseDecayMode(c.Visualizer.DecayMode)
	if err != nil {
		return err
	}

	v.SetFFTWindowSize(c.Visualizer.FFTWindowSize)
	v.SetWindowType(window)
	v.SetGain(c.Visualizer.Gain)
	v.SetAmplitudeExponent(c.Visualizer.Exponent)
	v.SetMinAmplitudeNormalizer(c.Visualizer.MinNormalizer)
	v.SetNormalizerDecaySpeed(c.Visualizer.DecaySpeed)
	v.SetFrequencyScale(c.Visualizer.FrequencyScale)
	v.SetInterpolationMode(interp)
	v.SetFixedBarWidth(c.Visualizer.BarWidth)
	v.SetDecayFactor(c.Visualizer.DecayFactor)
	v.SetDecayMode(decay)
	v.SetSmoothness(c.Visualizer.Smoothness)
	if err := v.SetFixedBarCount(c.Visualizer.BarCount); err != nil {
		return err
	}
	return v.SetChannel(c.Visualizer.Channel)
}

func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}

	// ENV_VIZ_{...}
	// Quick pipeline tweaks without editing the config file.

	// ENV_VIZ_FFT_SIZE
	if val, ok := os.LookupEnv("ENV_VIZ_FFT_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Visualizer.FFTWindowSize = iVal
		}
	}
	// ENV_VIZ_INTERPOLATION
	if val, ok := os.LookupEnv("ENV_VIZ_INTERPOLATION"); ok {
		cfg.Visualizer.Interpolation = val
	}
}
