package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/beacon-bot/beacon/internal/protocol"
)

// Frame types pushed to channel subscribers.
const (
	framePost    = "post"
	frameEdit    = "edit"
	frameRetract = "retract"
)

// ChannelFrame is one broadcast event delivered to channel subscribers.
type ChannelFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Ref     string `json:"ref"`
	Content string `json:"content,omitempty"`
}

// Hub is the websocket-backed transport: channel viewers subscribe to the
// broadcast feed, operators attach a private connection for prompts. It
// implements Outbound and Notifier.
//
// The single mutex also serializes websocket writes; gorilla conns do not
// allow concurrent writers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
	operators   map[string]*websocket.Conn
	posts       map[string]string
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*websocket.Conn]struct{}),
		operators:   make(map[string]*websocket.Conn),
		posts:       make(map[string]string),
	}
}

// Subscribe registers a channel viewer connection.
func (h *Hub) Subscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[conn] = struct{}{}
}

func (h *Hub) Unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, conn)
}

// AttachOperator binds a private connection for one operator. A newer
// connection replaces the previous one.
func (h *Hub) AttachOperator(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operators[userID] = conn
}

func (h *Hub) DetachOperator(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.operators[userID] == conn {
		delete(h.operators, userID)
	}
}

func (h *Hub) Send(ctx context.Context, channel, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	ref := uuid.NewString()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.posts[ref] = channel
	h.broadcastLocked(ChannelFrame{Type: framePost, Channel: channel, Ref: ref, Content: content})
	return ref, nil
}

func (h *Hub) Edit(ctx context.Context, ref, content string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	channel, ok := h.posts[ref]
	if !ok {
		return fmt.Errorf("%w: unknown message ref %s", ErrDelivery, ref)
	}
	h.broadcastLocked(ChannelFrame{Type: frameEdit, Channel: channel, Ref: ref, Content: content})
	return nil
}

func (h *Hub) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	channel, ok := h.posts[ref]
	if !ok {
		return fmt.Errorf("%w: unknown message ref %s", ErrDelivery, ref)
	}
	delete(h.posts, ref)
	h.broadcastLocked(ChannelFrame{Type: frameRetract, Channel: channel, Ref: ref})
	return nil
}

func (h *Hub) Notify(userID string, msg protocol.Outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn := h.operators[userID]
	if conn == nil {
		return
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("operator notify failed for %s: %v", userID, err)
		if h.operators[userID] == conn {
			delete(h.operators, userID)
		}
	}
}

// broadcastLocked fans a frame out to every subscriber, dropping connections
// whose writes fail. Callers hold h.mu.
func (h *Hub) broadcastLocked(frame ChannelFrame) {
	for conn := range h.subscribers {
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("channel subscriber write failed: %v", err)
			delete(h.subscribers, conn)
			_ = conn.Close()
		}
	}
}
