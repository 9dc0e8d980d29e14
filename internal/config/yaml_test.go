// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_VisualizerSection(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
visualizer:
  fft_window_size: 4096
  window_type: blackman
  interpolation: cubic
  decay_mode: interpolate
  bar_count: 32
  frequency_scale: 1.5
  channel: -1
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Visualizer.FFTWindowSize != 4096 {
		t.Errorf("fft_window_size = %d, want 4096", cfg.Visualizer.FFTWindowSize)
	}
	if cfg.Visualizer.WindowType != "blackman" {
		t.Errorf("window_type = %q, want blackman", cfg.Visualizer.WindowType)
	}
	if cfg.Visualizer.Interpolation != "cubic" {
		t.Errorf("interpolation = %q, want cubic", cfg.Visualizer.Interpolation)
	}
	if cfg.Visualizer.Channel != -1 {
		t.Errorf("channel = %d, want -1", cfg.Visualizer.Channel)
	}

	// Fields not in the file keep their defaults.
	if cfg.Visualizer.DecayFactor != DefaultDecayFactor {
		t.Errorf("decay_factor = %g, want default %g", cfg.Visualizer.DecayFactor, DefaultDecayFactor)
	}
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name:    "bad sample rate",
			content: "audio:\n  sample_rate: 100\n",
			errPart: "sample_rate",
		},
		{
			name:    "bad window name",
			content: "visualizer:\n  window_type: fancy\n",
			errPart: "window_type",
		},
		{
			name:    "bad interpolation",
			content: "visualizer:\n  interpolation: wavy\n",
			errPart: "interpolation",
		},
		{
			name:    "bad decay mode",
			content: "visualizer:\n  decay_mode: sideways\n",
			errPart: "decay_mode",
		},
		{
			name:    "zero bar count",
			content: "visualizer:\n  bar_count: 0\n",
			errPart: "bar_count",
		},
		{
			name:    "bad channel",
			content: "visualizer:\n  channel: -3\n",
			errPart: "channel",
		},
		{
			name:    "udp without address",
			content: "transport:\n  udp_enabled: true\n  udp_target_address: \"\"\n",
			errPart: "udp_target_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempConfig(t, tt.content)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errPart)
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.1:7000")
	t.Setenv("ENV_VIZ_FFT_SIZE", "8192")

	path := writeTempConfig(t, "transport:\n  udp_enabled: false\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.Transport.UDPEnabled {
		t.Error("ENV_UDP_ENABLED override not applied")
	}
	if cfg.Transport.UDPTargetAddress != "10.0.0.1:7000" {
		t.Errorf("udp_target_address = %q, want env override", cfg.Transport.UDPTargetAddress)
	}
	if cfg.Visualizer.FFTWindowSize != 8192 {
		t.Errorf("fft_window_size = %d, want env override 8192", cfg.Visualizer.FFTWindowSize)
	}
}

func TestDefaultValidates(t *testing.T) {
	t.Parallel()
	if err := Default().Validate(); err != nil {
		t.Errorf("default configuration must validate, got %v", err)
	}
}
