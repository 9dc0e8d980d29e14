// SPDX-License-Identifier: MIT
package transport

import (
	applog "specviz/internal/log"
)

// LoggingTransport implements the Transport interface by logging frame
// statistics instead of transmitting. Useful for debugging a pipeline
// without a consumer attached.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Info("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a summary of the frame at debug level.
func (lt *LoggingTransport) Send(frame []float64) error {
	peak := 0.0
	for _, v := range frame {
		if v > peak {
			peak = v
		}
	}
	applog.Debugf("LoggingTransport: frame width=%d peak=%.3f", len(frame), peak)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debug("LoggingTransport: Close called")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
