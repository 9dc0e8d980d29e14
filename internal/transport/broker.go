// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "specviz/internal/log"
)

// FrameBroker is the single display actor for a frame pipeline. The pipeline
// keeps feedback state between renders (the displayed frame and the adaptive
// normalizer), so exactly one goroutine may drive it: the broker renders one
// frame per tick at a fixed width and fans it out to its sinks. Every other
// consumer reads the most recent rendered frame through Frame, which never
// touches the pipeline.
type FrameBroker struct {
	source   FrameSource
	width    int
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	startMu  sync.Mutex // Protects ticker and doneChan during Start/Stop

	mu    sync.Mutex // Guards frame and sinks
	frame []float64
	sinks []Transport
}

// NewFrameBroker creates a broker rendering width-pixel frames from source
// every interval. An interval <= 0 defaults to 33ms (~30Hz).
func NewFrameBroker(interval time.Duration, source FrameSource, width int) (*FrameBroker, error) {
	if source == nil {
		return nil, fmt.Errorf("FrameBroker: frame source cannot be nil")
	}
	if width <= 0 {
		return nil, fmt.Errorf("FrameBroker: frame width must be positive, got %d", width)
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("FrameBroker: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("FrameBroker: Initializing (Interval: %s, Width: %d)", interval, width)

	return &FrameBroker{
		source:   source,
		width:    width,
		interval: interval,
		frame:    make([]float64, width),
	}, nil
}

// AddSink registers a transport to receive every rendered frame. Sinks are
// closed by Close.
func (b *FrameBroker) AddSink(sink Transport) {
	b.mu.Lock()
	b.sinks = append(b.sinks, sink)
	b.mu.Unlock()
}

// Start begins the periodic render loop. Safe to call multiple times;
// subsequent calls are no-ops if already started.
func (b *FrameBroker) Start() {
	b.startMu.Lock()
	if b.ticker != nil {
		b.startMu.Unlock()
		applog.Warnf("FrameBroker: Start called but already running.")
		return
	}

	b.ticker = time.NewTicker(b.interval)
	b.doneChan = make(chan struct{})
	b.stopOnce = sync.Once{}

	// Capture locals so the goroutine never races Start/Stop on the fields.
	ticker := b.ticker
	doneChan := b.doneChan

	b.startMu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		applog.Infof("FrameBroker: Render goroutine started (Interval: %s)", b.interval)
		for {
			select {
			case <-ticker.C:
				b.renderOnce()
			case <-doneChan:
				applog.Infof("FrameBroker: Render goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the render goroutine to terminate and waits for it.
// Safe to call multiple times.
func (b *FrameBroker) Stop() error {
	b.startMu.Lock()
	if b.ticker == nil {
		b.startMu.Unlock()
		applog.Debugf("FrameBroker: Stop called but not running.")
		return nil
	}

	b.stopOnce.Do(func() {
		applog.Infof("FrameBroker: Initiating stop sequence...")
		close(b.doneChan)
		b.ticker.Stop()
		b.ticker = nil
	})

	b.startMu.Unlock()

	b.wg.Wait()
	applog.Infof("FrameBroker: Render goroutine finished.")
	return nil
}

// renderOnce advances the pipeline by one tick, caches the result, and fans
// it out. Only the render goroutine calls this, so the pipeline sees a
// single consumer at a single width.
func (b *FrameBroker) renderOnce() {
	frame, err := b.source.Frame(b.width)
	if err != nil {
		applog.Errorf("FrameBroker: Error rendering frame: %v", err)
		return
	}

	b.mu.Lock()
	if len(b.frame) != len(frame) {
		b.frame = make([]float64, len(frame))
	}
	copy(b.frame, frame)
	sinks := b.sinks
	b.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Send(frame); err != nil {
			applog.Errorf("FrameBroker: Error sending frame to sink: %v", err)
		}
	}
}

// Frame returns a copy of the most recent rendered frame. The requested
// width is ignored; the broker renders at its own configured width and
// callers fit the result to their surface. Implements FrameSource so TUI
// and publishers can consume the broker in place of the pipeline.
func (b *FrameBroker) Frame(width int) ([]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float64, len(b.frame))
	copy(out, b.frame)
	return out, nil
}

// Close stops the render loop and closes every registered sink.
func (b *FrameBroker) Close() error {
	if err := b.Stop(); err != nil {
		return err
	}

	b.mu.Lock()
	sinks := b.sinks
	b.sinks = nil
	b.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			applog.Errorf("FrameBroker: Error closing sink: %v", err)
		}
	}
	return nil
}

// Compile-time interface checks.
var (
	_ FrameSource               = (*FrameBroker)(nil)
	_ interface{ Close() error } = (*FrameBroker)(nil)
)
