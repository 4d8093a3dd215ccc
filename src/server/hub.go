package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"market-sync/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	frameInitial = "INITIAL"
	frameUpdate  = "UPDATE"
)

type subscription struct {
	client  *Client
	symbols []string
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			// Replay the last frame on connect
			client.send <- s.snapshotFor(client)

		case sub := <-s.subscribe:
			if _, ok := s.clients[sub.client]; ok {
				sub.client.setSymbols(sub.symbols)
				select {
				case sub.client.send <- s.snapshotFor(sub.client):
				default:
				}
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case frame := <-s.broadcast:
			s.stateMutex.Lock()
			s.latest = frame
			s.stateMutex.Unlock()

			for client := range s.clients {
				select {
				case client.send <- client.filter(frame):
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Broadcaster Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a frame. A full queue drops the frame; the next tick
// supersedes it anyway.
func (s *APIServer) Broadcast(frame *models.MTickerFrame) {
	select {
	case s.broadcast <- frame:
	default:
		s.Logger.Warning("Broadcast queue full, dropping ticker frame")
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) snapshotFor(client *Client) *models.MTickerFrame {
	s.stateMutex.RLock()
	latest := s.latest
	s.stateMutex.RUnlock()

	frame := client.filter(latest)
	frame.Type = frameInitial
	return frame
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MTickerFrame, 64),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if !strings.EqualFold(cmd.Command, "subscribe") {
		return
	}

	// The hub owns client state; it applies the filter and replies.
	select {
	case s.subscribe <- subscription{client: client, symbols: parseSymbols(strings.Join(cmd.Symbols, ","))}:
	case <-s.done:
	}
}
