package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"learnquest-service/internal/app"
)

// WSHandler streams offline status snapshots to connected clients.
type WSHandler struct {
	offline  *app.OfflineManager
	hub      *app.StatusHub
	upgrader websocket.Upgrader
}

func NewWSHandler(offline *app.OfflineManager, hub *app.StatusHub) *WSHandler {
	return &WSHandler{
		offline: offline,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type syncResult struct {
	Synced int `json:"synced"`
}

// ServeStatus upgrades the request and pushes a "status" message for every published
// snapshot. Clients may send "refresh" to force a snapshot or "sync" to trigger a sync.
func (h *WSHandler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	out := outbox{send: send, done: writerDone}

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// Unblocks the read loop.
				conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case status, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "status", Payload: status}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Subscribers attached before the first publish get a snapshot right away.
	open := true
	if _, ok := h.hub.Last(); !ok {
		open = h.refresh(r, out)
	}

	for open {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "refresh":
			open = h.refresh(r, out)
		case "sync":
			synced, err := h.offline.SyncWhenOnline(r.Context())
			if err != nil {
				open = out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			open = out.push(outboundMessage[any]{Type: "syncResult", Payload: syncResult{Synced: synced}}) &&
				h.refresh(r, out)
		default:
			open = out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// outbox hands messages to the writer goroutine. push reports false once the writer has stopped.
type outbox struct {
	send chan<- outboundMessage[any]
	done <-chan struct{}
}

func (o outbox) push(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

func (h *WSHandler) refresh(r *http.Request, out outbox) bool {
	if _, err := h.hub.Refresh(r.Context(), h.offline); err != nil {
		return out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}
	return true
}
