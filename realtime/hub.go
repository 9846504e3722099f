package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Kumarpriyam05/GeoSentinel/auth"
	"github.com/Kumarpriyam05/GeoSentinel/tracking"
)

// TokenVerifier turns a bearer credential into an identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// DeviceAuthorizer intersects requested device ids with the ids an identity
// may view.
type DeviceAuthorizer interface {
	AuthorizedDeviceIDs(ctx context.Context, identity auth.Identity, candidates []string) ([]string, error)
}

// PresenceRecorder best-effort records identity activity on connect and
// disconnect. Implementations must never fail the caller.
type PresenceRecorder interface {
	TouchLastSeen(userID string)
}

// Hub multiplexes events onto authenticated sessions through topics. It
// owns the session set, the topic membership maps and the global connection
// counter; all three are guarded by one mutex.
type Hub struct {
	verifier TokenVerifier
	devices  DeviceAuthorizer
	presence PresenceRecorder
	upgrader websocket.Upgrader

	mu          sync.Mutex
	sessions    map[*Session]struct{}
	topics      map[string]map[*Session]struct{}
	connections int
	closed      bool
}

// NewHub builds a hub. An empty origin list allows any origin.
func NewHub(verifier TokenVerifier, devices DeviceAuthorizer, presence PresenceRecorder, allowedOrigins []string) *Hub {
	h := &Hub{
		verifier: verifier,
		devices:  devices,
		presence: presence,
		sessions: make(map[*Session]struct{}),
		topics:   make(map[string]map[*Session]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

// HandleWS authenticates and upgrades a live connection. The handshake is
// rejected outright on a missing or invalid token; no session state exists
// until verification succeeds.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := auth.StripBearer(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeHandshakeError(w, "Authentication token missing")
		return
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		writeHandshakeError(w, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	s := newSession(h, conn, identity)
	h.register(s)
	go s.writePump()
	go s.readPump()
}

func writeHandshakeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		return
	}
	h.sessions[s] = struct{}{}
	h.joinLocked(s, userTopic(s.identity.UserID))
	if s.identity.IsAdmin() {
		h.joinLocked(s, adminTopic)
	}
	h.connections++
	count := h.connections
	h.mu.Unlock()

	h.broadcast(Envelope{Event: EventConnections, Data: connectionsData{Count: count}})
	if h.presence != nil {
		h.presence.TouchLastSeen(s.identity.UserID)
	}
	s.queue(Envelope{
		Event: EventReady,
		Data: readyData{
			ConnectedAt: time.Now().UTC().Format(time.RFC3339),
			UserID:      s.identity.UserID,
		},
	})
}

// unregister is idempotent; both pumps funnel through it on teardown.
func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	for topic := range s.topics {
		h.leaveLocked(s, topic)
	}
	close(s.done)
	h.connections--
	count := h.connections
	h.mu.Unlock()

	h.broadcast(Envelope{Event: EventConnections, Data: connectionsData{Count: count}})
	if h.presence != nil {
		h.presence.TouchLastSeen(s.identity.UserID)
	}
}

func (h *Hub) joinLocked(s *Session, topic string) {
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Session]struct{})
		h.topics[topic] = members
	}
	members[s] = struct{}{}
	s.topics[topic] = struct{}{}
}

func (h *Hub) leaveLocked(s *Session, topic string) {
	if members, ok := h.topics[topic]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(s.topics, topic)
}

// subscribe joins the session to the per-device topics it is authorized to
// view and returns that subset. Unauthorized ids are dropped silently.
func (h *Hub) subscribe(s *Session, deviceIDs []string) []string {
	allowed, err := h.devices.AuthorizedDeviceIDs(context.Background(), s.identity, deviceIDs)
	if err != nil {
		log.Printf("subscription scope lookup failed: %v", err)
		return nil
	}
	h.mu.Lock()
	for _, id := range allowed {
		h.joinLocked(s, deviceTopic(id))
	}
	h.mu.Unlock()
	return allowed
}

// unsubscribe leaves the given per-device topics unconditionally.
func (h *Hub) unsubscribe(s *Session, deviceIDs []string) {
	h.mu.Lock()
	for _, id := range deviceIDs {
		h.leaveLocked(s, deviceTopic(id))
	}
	h.mu.Unlock()
}

// broadcast queues a frame for every connected session.
func (h *Hub) broadcast(env Envelope) {
	h.mu.Lock()
	var slow []*Session
	for s := range h.sessions {
		if !s.queue(env) {
			slow = append(slow, s)
		}
	}
	h.mu.Unlock()
	h.dropSlow(slow)
}

// publish queues a frame for every member of a topic. Each topic delivery
// is independent: a session reached through several topics receives the
// frame once per topic, by design.
func (h *Hub) publish(topic, event string, data any) {
	env := Envelope{Event: event, Data: data}
	h.mu.Lock()
	var slow []*Session
	for s := range h.topics[topic] {
		if !s.queue(env) {
			slow = append(slow, s)
		}
	}
	h.mu.Unlock()
	h.dropSlow(slow)
}

func (h *Hub) dropSlow(sessions []*Session) {
	for _, s := range sessions {
		log.Printf("dropping slow session %s (user %s)", s.id, s.identity.UserID)
		h.unregister(s)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	}
}

// PublishLocation fans a coalesced location payload out to the device,
// owner and admin topics.
func (h *Hub) PublishLocation(deviceID, userID string, payload tracking.LocationPayload) {
	h.publish(deviceTopic(deviceID), EventLocationUpdated, payload)
	h.publish(userTopic(userID), EventActivityLocation, payload)
	h.publish(adminTopic, EventAdminLocation, payload)
}

// PublishStatus fans a presence transition out to the device, owner and
// admin topics without any coalescing delay.
func (h *Hub) PublishStatus(deviceID, userID string, payload tracking.StatusPayload) {
	h.publish(deviceTopic(deviceID), EventDeviceStatus, payload)
	h.publish(userTopic(userID), EventDeviceStatus, payload)
	h.publish(adminTopic, EventAdminDeviceStatus, payload)
}

// ConnectionCount returns the counter value at this instant.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connections
}

// Close disconnects every session and rejects new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		h.unregister(s)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	}
}
