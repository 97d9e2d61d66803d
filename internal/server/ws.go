package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/posesurf/internal/app"
	"github.com/ayusman/posesurf/internal/display"
)

// sendBuffer is the number of snapshots queued per WebSocket client before
// new ones are dropped for that client.
const sendBuffer = 16

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session output out to HTTP clients. It is an app.Observer for
// snapshots and an app.Renderer for the MJPEG stream. A slow client never
// blocks the session: its snapshots are dropped instead.
type Hub struct {
	view display.Config

	mu      sync.RWMutex
	clients map[*client]bool
	latest  app.Snapshot
	hasSnap bool

	frameMu  sync.RWMutex
	frame    []byte
	frameSeq uint64

	streamers atomic.Int32
}

// NewHub creates a hub that annotates streamed frames with view.
func NewHub(view display.Config) *Hub {
	return &Hub{
		view:    view,
		clients: make(map[*client]bool),
	}
}

// Observe stores the snapshot and broadcasts it to WebSocket clients.
func (h *Hub) Observe(snap app.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		log.Printf("Failed to encode snapshot: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = snap
	h.hasSnap = true

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Latest returns the most recent snapshot, if any frame was processed.
func (h *Hub) Latest() (app.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasSnap
}

// Render encodes the annotated frame as JPEG while a stream client is
// connected. It never asks the session to quit.
func (h *Hub) Render(frame *gocv.Mat, snap app.Snapshot) bool {
	if h.streamers.Load() == 0 {
		return false
	}

	img := display.Annotate(frame, snap, h.view)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		log.Printf("Failed to encode frame: %v", err)
		return false
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	h.frameMu.Lock()
	h.frame = data
	h.frameSeq++
	h.frameMu.Unlock()

	return false
}

// Frame returns the latest encoded frame and its sequence number.
func (h *Hub) Frame() ([]byte, uint64) {
	h.frameMu.RLock()
	defer h.frameMu.RUnlock()
	return h.frame, h.frameSeq
}

// Clients returns the number of connected WebSocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every WebSocket client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}

// ServeHTTP upgrades the request and streams snapshots until the client
// disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// writePump writes queued snapshots until the send channel is closed.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
