// SPDX-License-Identifier: MIT
package audio

// Device represents an audio device in a PortAudio-independent form, for
// consumers like the TUI device picker.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// GetDevices returns all available audio devices.
func GetDevices() ([]Device, error) {
	// Initialize PortAudio if needed
	err := Initialize()
	if err != nil {
		return nil, err
	}
	defer Terminate()

	paDeviceInfos, err := paDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(paDeviceInfos))
	for i, info := range paDeviceInfos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}

	return devices, nil
}
