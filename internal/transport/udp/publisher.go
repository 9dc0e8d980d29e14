// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "specviz/internal/log"
	"specviz/internal/transport"
)

// FramePublisher periodically pulls a rendered spectrum frame from a
// FrameSource, packs it into a binary packet, and sends it over UDP.
// It runs in a goroutine managed by Start and Stop.
type FramePublisher struct {
	sender   *UDPSender
	source   transport.FrameSource
	width    int
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop

	sequenceNum uint32

	// Pre-allocated buffers for the packing hot path.
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewFramePublisher creates a publisher that renders width-pixel frames
// from source every interval. An interval <= 0 defaults to 16ms (~60Hz).
func NewFramePublisher(interval time.Duration, sender *UDPSender, source transport.FrameSource, width int) (*FramePublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("FramePublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("FramePublisher: frame source cannot be nil")
	}
	if width <= 0 {
		return nil, fmt.Errorf("FramePublisher: frame width must be positive, got %d", width)
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("FramePublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("FramePublisher: Initializing (Interval: %s, Width: %d)", interval, width)

	return &FramePublisher{
		sender:       sender,
		source:       source,
		width:        width,
		interval:     interval,
		f32Buffer:    make([]float32, width),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins the periodic publishing process. Safe to call multiple
// times; subsequent calls are no-ops if already started.
func (p *FramePublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("FramePublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture locals so the goroutine never races Start/Stop on the fields.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("FramePublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				applog.Infof("FramePublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it.
// Safe to call multiple times.
func (p *FramePublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("FramePublisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		applog.Infof("FramePublisher: Initiating stop sequence...")
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("FramePublisher: Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Pixel Count       | uint16         | 2            | Number of floats (N)    |
| Pixels            | []float32      | N * 4        | Rendered frame values   |
+-----------------------------------------------------------------------------+
*/

// buildAndSendPacket renders one frame, packs it, and sends it.
func (p *FramePublisher) buildAndSendPacket() {
	frame, err := p.source.Frame(p.width)
	if err != nil {
		applog.Errorf("FramePublisher: Error rendering frame: %v", err)
		return
	}

	if len(p.f32Buffer) != len(frame) {
		p.f32Buffer = make([]float32, len(frame))
	}
	for i, v := range frame {
		p.f32Buffer[i] = float32(v)
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()
	pixelCount := uint16(len(p.f32Buffer))

	p.packetBuffer.Reset()

	err = binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, pixelCount)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		applog.Errorf("FramePublisher: Error packing data into binary buffer: %v", err)
		return
	}

	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err == nil {
		applog.Debugf("FramePublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packetBytes))
	}
}

// Close implements the io.Closer interface by stopping the publisher.
func (p *FramePublisher) Close() error {
	applog.Debugf("FramePublisher: Close called, stopping publisher...")
	return p.Stop()
}

// Ensure FramePublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*FramePublisher)(nil)
