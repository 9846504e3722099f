package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Kumarpriyam05/GeoSentinel/auth"
)

const (
	sendQueueSize = 64
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxFrameBytes = 4096
)

// Session is one authenticated live connection. Topic membership lives in
// the hub's maps; the topics set here mirrors it for fast teardown and is
// guarded by the hub mutex.
type Session struct {
	id       string
	identity auth.Identity
	hub      *Hub
	conn     *websocket.Conn
	send     chan Envelope
	done     chan struct{}
	topics   map[string]struct{}
}

func newSession(hub *Hub, conn *websocket.Conn, identity auth.Identity) *Session {
	return &Session{
		id:       uuid.NewString(),
		identity: identity,
		hub:      hub,
		conn:     conn,
		send:     make(chan Envelope, sendQueueSize),
		done:     make(chan struct{}),
		topics:   make(map[string]struct{}),
	}
}

// queue hands a frame to the session's writer without blocking. A full queue
// means the client cannot keep up; the caller disconnects it.
func (s *Session) queue(env Envelope) bool {
	select {
	case <-s.done:
		return true
	case s.send <- env:
		return true
	default:
		return false
	}
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *Session) readPump() {
	defer func() {
		s.hub.unregister(s)
		_ = s.conn.Close()
	}()
	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Event {
		case EventSubscribe:
			var req deviceIDsData
			if err := json.Unmarshal(frame.Data, &req); err != nil || len(req.DeviceIDs) == 0 {
				continue
			}
			allowed := s.hub.subscribe(s, req.DeviceIDs)
			s.queue(Envelope{Event: EventSubscribed, Data: deviceIDsData{DeviceIDs: allowed}})
		case EventUnsubscribe:
			var req deviceIDsData
			if err := json.Unmarshal(frame.Data, &req); err != nil {
				continue
			}
			s.hub.unsubscribe(s, req.DeviceIDs)
			s.queue(Envelope{Event: EventUnsubscribed, Data: deviceIDsData{DeviceIDs: req.DeviceIDs}})
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case env := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
