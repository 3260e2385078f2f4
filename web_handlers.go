package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/elijahnyp/light_switch/state"
	"github.com/elijahnyp/light_switch/switchctl"
	. "github.com/elijahnyp/light_switch/util"
	"github.com/gorilla/websocket"
)

const waitTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Data interface{} `json:"data"`
	Type string      `json:"type"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn *websocket.Conn
	send chan WebSocketMessage
	hub  *WSHub
}

// WSHub maintains the set of active clients and broadcasts messages
type WSHub struct {
	clients    map[*WSClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// SystemStatus is the body of /api/status.
type SystemStatus struct {
	Switches []state.SwitchState `json:"switches"`
	Total    int                 `json:"total"`
	On       int                 `json:"on"`
}

// OutcomeResponse reports a finished interaction when the caller asked to wait.
type OutcomeResponse struct {
	InteractionID string `json:"interaction_id"`
	Intent        string `json:"intent"`
	Command       string `json:"command"`
	Status        string `json:"status,omitempty"`
	Committed     bool   `json:"committed"`
	On            bool   `json:"on"`
}

func newOutcomeResponse(out switchctl.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		InteractionID: out.InteractionID,
		Intent:        out.Intent.String(),
		Command:       out.Command.Kind.String(),
		Committed:     out.Committed,
		On:            out.On,
	}
	if out.StatusSent {
		resp.Status = out.Status.Kind.String()
	}
	return resp
}

var wsHub *WSHub

func init() {
	wsHub = NewHub()
	go wsHub.Run()
}

// NewHub creates a new WebSocket hub
func NewHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WebSocketMessage, 16),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the WebSocket hub
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			Logger.Info().Msg("Client connected to WebSocket")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				Logger.Info().Msg("Client disconnected from WebSocket")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastUpdate sends an update to all connected clients
func (h *WSHub) BroadcastUpdate(messageType string, data interface{}) {
	select {
	case h.broadcast <- WebSocketMessage{Type: messageType, Data: data}:
	default:
		// Channel is full, skip this update
	}
}

// broadcastState pushes a confirmed switch change to websocket clients.
func broadcastState(_ context.Context, s state.SwitchState) {
	wsHub.BroadcastUpdate("switch_state", s)
}

// readPump pumps messages from the websocket connection to the hub
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for message := range c.send {
		if err := c.conn.WriteJSON(message); err != nil {
			return
		}
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		Logger.Debug().Err(err).Msg("Error writing close message")
	}
}

// ServeWebSocket handles websocket requests from the peer
func ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan WebSocketMessage, 256),
		hub:  wsHub,
	}

	client.send <- WebSocketMessage{Type: "status", Data: newSystemStatus(currentFleet())}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func newSystemStatus(f *switchctl.Fleet) SystemStatus {
	status := SystemStatus{Switches: []state.SwitchState{}}
	if f == nil {
		return status
	}
	status.Switches = f.Snapshots()
	status.Total = len(status.Switches)
	for _, s := range status.Switches {
		if s.On {
			status.On++
		}
	}
	return status
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("Error encoding response")
	}
}

// APISystemStatus returns every switch's confirmed state as JSON
func APISystemStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, newSystemStatus(currentFleet()))
}

// APISwitch reads (GET) or changes (POST state=on|off) a single switch.
// POST returns 202 once the interaction is queued, or the finished outcome
// when wait=true.
func APISwitch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Switch name required", http.StatusBadRequest)
		return
	}
	f := currentFleet()
	if f == nil {
		http.Error(w, errNoFleet.Error(), http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s, found := f.State(name)
		if !found {
			http.Error(w, "Switch not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, s)

	case http.MethodPost:
		on, err := state.ParsePayload(r.URL.Query().Get("state"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		done, err := f.Submit(name, switchctl.IntentFor(on))
		if err != nil {
			http.Error(w, err.Error(), submitErrorCode(err))
			return
		}
		if r.URL.Query().Get("wait") != "true" {
			writeJSON(w, http.StatusAccepted, map[string]string{
				"name":   name,
				"intent": switchctl.IntentFor(on).String(),
			})
			return
		}
		select {
		case out, ok := <-done:
			if !ok {
				http.Error(w, switchctl.ErrStopped.Error(), http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, newOutcomeResponse(out))
		case <-r.Context().Done():
		case <-time.After(waitTimeout):
			http.Error(w, "Timed out waiting for switch", http.StatusGatewayTimeout)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func submitErrorCode(err error) int {
	switch {
	case errors.Is(err, switchctl.ErrNoSuchSwitch):
		return http.StatusNotFound
	case errors.Is(err, switchctl.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, switchctl.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
