// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "specviz/internal/log"
)

// framePayload is the JSON shape sent to WebSocket clients.
type framePayload struct {
	Width  int       `json:"width"`
	Pixels []float64 `json:"pixels"`
}

// WebSocketTransport implements the Transport interface by broadcasting
// frames as JSON to every connected WebSocket client.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan framePayload
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
}

// NewWebSocketTransport creates a transport serving /ws on addr and starts
// its server immediately.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins; frames are not sensitive.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan framePayload, 256),
		done:      make(chan struct{}),
	}

	wst.start()
	return wst
}

func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)

	wst.server = &http.Server{
		Addr:    wst.addr,
		Handler: mux,
	}

	go func() {
		applog.Infof("WebSocketTransport: Starting WebSocket server on %s", wst.addr)
		if err := wst.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()

	go wst.handleBroadcasts()
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client connected, total: %d", total)

	// Reads are only used to detect disconnects.
	go func() {
		_, _, err := conn.ReadMessage()
		if err != nil {
			wst.clientsMu.Lock()
			delete(wst.clients, conn)
			total := len(wst.clients)
			wst.clientsMu.Unlock()
			conn.Close()
			applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
		}
	}()
}

// handleBroadcasts sends queued frames to all connected clients until
// Close signals shutdown.
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case payload := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := client.WriteJSON(payload); err != nil {
					applog.Errorf("WebSocketTransport: Error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues a frame for broadcast. The frame is copied before queueing,
// so the caller may reuse its buffer. When the queue is full the frame is
// dropped; stale spectrum data has no value.
func (wst *WebSocketTransport) Send(frame []float64) error {
	pixels := make([]float64, len(frame))
	copy(pixels, frame)

	select {
	case wst.broadcast <- framePayload{Width: len(pixels), Pixels: pixels}:
	default:
	}
	return nil
}

// Close shuts down the WebSocket server, the broadcast goroutine, and all
// client connections. Safe to call multiple times; Send remains safe after
// Close (frames go nowhere).
func (wst *WebSocketTransport) Close() error {
	applog.Info("WebSocketTransport: Closing server")

	wst.closeOnce.Do(func() {
		close(wst.done)
	})

	wst.clientsMu.Lock()
	for client := range wst.clients {
		client.Close()
	}
	wst.clients = make(map[*websocket.Conn]bool)
	wst.clientsMu.Unlock()

	if wst.server != nil {
		return wst.server.Close()
	}
	return nil
}

// Ensure WebSocketTransport satisfies the interface.
var _ Transport = (*WebSocketTransport)(nil)
