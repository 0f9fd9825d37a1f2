package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"scooterswap/internal/api"
	"scooterswap/internal/manager"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes messages to the manager.
type Handler struct {
	hub *Hub
	mgr *manager.Manager
}

func NewHandler(hub *Hub, mgr *manager.Manager) *Handler {
	return &Handler{hub: hub, mgr: mgr}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendInitialState(client)
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.sendError(c, "INVALID_MESSAGE", err.Error())
		return
	}

	switch env.Type {
	case TypeCommand:
		var p CommandPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "INVALID_COMMAND", err.Error())
			return
		}
		h.handleCommand(c, p.Command)

	case TypeSetSpeed:
		var p SetSpeedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "INVALID_SET_SPEED", err.Error())
			return
		}
		applied := h.mgr.SetSpeed(p.Speed)
		h.send(c, TypeSpeedAck, SpeedAckPayload{Speed: applied})

	case TypePing:
		h.send(c, TypePong, nil)

	default:
		h.sendError(c, "UNKNOWN_TYPE", "unrecognized message type: "+env.Type)
	}
}

func (h *Handler) handleCommand(c *Client, command string) {
	var err error
	switch command {
	case "start":
		_, err = h.mgr.Start()
	case "pause":
		err = h.mgr.Pause()
	case "resume":
		err = h.mgr.Resume()
	case "stop":
		err = h.mgr.Stop()
	case "reset":
		err = h.mgr.Reset()
	case "step":
		_, err = h.mgr.Step()
	default:
		h.sendError(c, "UNKNOWN_COMMAND", "unrecognized command: "+command)
		return
	}

	ack := CommandAckPayload{Command: command, Success: err == nil}
	if err != nil {
		ack.Error = err.Error()
	}
	h.send(c, TypeCommandAck, ack)
}

func (h *Handler) sendInitialState(c *Client) {
	world := h.mgr.Snapshot()
	if world == nil {
		return
	}
	info := h.mgr.StatusInfo()
	payload := StatePayload{
		SnapshotDTO: api.BuildSnapshot(world, info.Tick, info.Status),
		Metrics:     h.mgr.MetricsCurrent(),
	}
	h.send(c, TypeInitialState, payload)
}

func (h *Handler) sendError(c *Client, code, message string) {
	h.send(c, TypeError, ErrorPayload{Code: code, Message: message})
}

func (h *Handler) send(c *Client, msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msgType, err)
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
