// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"specviz/internal/config"
	"specviz/internal/dsp"
	"specviz/pkg/build"
)

// ParseArgs builds the final application configuration. Values come from
// three layers, lowest priority first: built-in defaults, the YAML config
// file (plus environment overrides), and explicitly set command line flags.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var configPath string
	flagCfg := config.Default()
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, loaded, flagCfg)
			if err := loaded.Validate(); err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			cfg.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to a YAML configuration file")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&flagCfg.Audio.InputDevice, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&flagCfg.Audio.InputChannels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&flagCfg.Audio.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")

	rootCmd.PersistentFlags().IntVarP(&flagCfg.Audio.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&flagCfg.Audio.LowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Visualizer Configuration
	rootCmd.PersistentFlags().IntVar(&flagCfg.Visualizer.FFTWindowSize, "fft-size", config.DefaultFFTWindowSize,
		"FFT analysis window in samples (power of two)")
	rootCmd.PersistentFlags().StringVar(&flagCfg.Visualizer.WindowType, "window", config.DefaultWindowType,
		"Window function: "+strings.Join(dsp.WindowNames(), ", "))
	rootCmd.PersistentFlags().StringVarP(&flagCfg.Visualizer.Interpolation, "interpolation", "i", config.DefaultInterpolation,
		"Bin-to-pixel mapping: nearest, linear, easing, cubic, fixedwidth")
	rootCmd.PersistentFlags().IntVar(&flagCfg.Visualizer.BarCount, "bars", config.DefaultBarCount,
		"Number of bars in fixedwidth mode")
	rootCmd.PersistentFlags().Float64Var(&flagCfg.Visualizer.DecayFactor, "decay", config.DefaultDecayFactor,
		"Temporal decay factor for displayed frames [0, 1]")
	rootCmd.PersistentFlags().Float64Var(&flagCfg.Visualizer.Smoothness, "smoothness", config.DefaultSmoothness,
		"Spatial smoothing coefficient [0, 1]")
	rootCmd.PersistentFlags().IntVar(&flagCfg.Visualizer.Channel, "viz-channel", config.DefaultVizChannel,
		"Channel to analyze, -1 mixes all channels")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&flagCfg.Recording.Enabled, "record", "r", false,
		"Record captured audio to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&flagCfg.Recording.OutputDir, "output-dir", "o", "./recordings",
		"Directory to save recorded audio files")

	// Transport Configuration
	rootCmd.PersistentFlags().BoolVarP(&flagCfg.Transport.UDPEnabled, "udp", "u", false,
		"Publish rendered frames over UDP")
	rootCmd.PersistentFlags().StringVar(&flagCfg.Transport.UDPTargetAddress, "udp-target", "127.0.0.1:9090",
		"Target address for UDP frame packets")
	rootCmd.PersistentFlags().BoolVarP(&flagCfg.Transport.WebSocketEnabled, "websocket", "w", false,
		"Serve rendered frames over a WebSocket endpoint")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&flagCfg.Debug, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	err := rootCmd.Execute()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlagOverrides copies explicitly set flag values over the file-loaded
// configuration. Unset flags leave the file (or default) values intact.
// Persistent flags live on the root command, so subcommands resolve them
// through Root().
func applyFlagOverrides(cmd *cobra.Command, dst, flags *config.Config) {
	set := cmd.Root().PersistentFlags()

	if set.Changed("device") {
		dst.Audio.InputDevice = flags.Audio.InputDevice
	}
	if set.Changed("channels") {
		dst.Audio.InputChannels = flags.Audio.InputChannels
	}
	if set.Changed("sample-rate") {
		dst.Audio.SampleRate = flags.Audio.SampleRate
	}
	if set.Changed("frames-per-buffer") {
		dst.Audio.FramesPerBuffer = flags.Audio.FramesPerBuffer
	}
	if set.Changed("low-latency") {
		dst.Audio.LowLatency = flags.Audio.LowLatency
	}

	if set.Changed("fft-size") {
		dst.Visualizer.FFTWindowSize = flags.Visualizer.FFTWindowSize
	}
	if set.Changed("window") {
		dst.Visualizer.WindowType = flags.Visualizer.WindowType
	}
	if set.Changed("interpolation") {
		dst.Visualizer.Interpolation = flags.Visualizer.Interpolation
	}
	if set.Changed("bars") {
		dst.Visualizer.BarCount = flags.Visualizer.BarCount
	}
	if set.Changed("decay") {
		dst.Visualizer.DecayFactor = flags.Visualizer.DecayFactor
	}
	if set.Changed("smoothness") {
		dst.Visualizer.Smoothness = flags.Visualizer.Smoothness
	}
	if set.Changed("viz-channel") {
		dst.Visualizer.Channel = flags.Visualizer.Channel
	}

	if set.Changed("record") {
		dst.Recording.Enabled = flags.Recording.Enabled
	}
	if set.Changed("output-dir") {
		dst.Recording.OutputDir = flags.Recording.OutputDir
	}

	if set.Changed("udp") {
		dst.Transport.UDPEnabled = flags.Transport.UDPEnabled
	}
	if set.Changed("udp-target") {
		dst.Transport.UDPTargetAddress = flags.Transport.UDPTargetAddress
	}
	if set.Changed("websocket") {
		dst.Transport.WebSocketEnabled = flags.Transport.WebSocketEnabled
	}

	if set.Changed("verbose") {
		dst.Debug = flags.Debug
	}
}
