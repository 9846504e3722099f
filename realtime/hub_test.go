package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/Kumarpriyam05/GeoSentinel/auth"
	"github.com/Kumarpriyam05/GeoSentinel/tracking"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (auth.Identity, error) {
	return auth.Identity{UserID: token, Role: "user"}, nil
}

// fakeAuthorizer scopes candidates to a fixed owner map.
type fakeAuthorizer struct {
	owners map[string]string // device id -> owner user id
}

func (f *fakeAuthorizer) AuthorizedDeviceIDs(ctx context.Context, identity auth.Identity, candidates []string) ([]string, error) {
	if identity.IsAdmin() {
		return candidates, nil
	}
	var out []string
	for _, id := range candidates {
		if f.owners[id] == identity.UserID {
			out = append(out, id)
		}
	}
	return out, nil
}

func newTestHub(owners map[string]string) *Hub {
	return NewHub(fakeVerifier{}, &fakeAuthorizer{owners: owners}, nil, nil)
}

// connect registers a session with no underlying connection; frames are read
// straight off its send queue.
func connect(h *Hub, identity auth.Identity) *Session {
	s := newSession(h, nil, identity)
	h.register(s)
	return s
}

// nextEvent pops queued frames until one matches the wanted event name.
func nextEvent(t *testing.T, s *Session, event string) Envelope {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case env := <-s.send:
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("no %q frame arrived", event)
		}
	}
}

// drain empties the session's queue.
func drain(s *Session) {
	for {
		select {
		case <-s.send:
		default:
			return
		}
	}
}

// TestHub_ConnectionCounter verifies the counter tracks session lifecycle
// and every change is broadcast.
func TestHub_ConnectionCounter(t *testing.T) {
	h := newTestHub(nil)

	a := connect(h, auth.Identity{UserID: "u1", Role: "user"})
	b := connect(h, auth.Identity{UserID: "u2", Role: "user"})
	c := connect(h, auth.Identity{UserID: "u3", Role: "user"})

	if got := h.ConnectionCount(); got != 3 {
		t.Fatalf("ConnectionCount = %d, want 3", got)
	}

	drain(a)
	h.unregister(c)

	if got := h.ConnectionCount(); got != 2 {
		t.Errorf("ConnectionCount after disconnect = %d, want 2", got)
	}
	env := nextEvent(t, a, EventConnections)
	if data, ok := env.Data.(connectionsData); !ok || data.Count != 2 {
		t.Errorf("connections broadcast = %+v, want count 2", env.Data)
	}

	// Repeated unregister of the same session must not skew the counter.
	h.unregister(c)
	if got := h.ConnectionCount(); got != 2 {
		t.Errorf("ConnectionCount after duplicate unregister = %d, want 2", got)
	}
	_ = b
}

// TestHub_ReadyFrame verifies a fresh session is greeted with socket:ready.
func TestHub_ReadyFrame(t *testing.T) {
	h := newTestHub(nil)
	s := connect(h, auth.Identity{UserID: "u1", Role: "user"})

	env := nextEvent(t, s, EventReady)
	data, ok := env.Data.(readyData)
	if !ok || data.UserID != "u1" {
		t.Errorf("ready frame data = %+v", env.Data)
	}
}

// TestHub_SubscribeScoping verifies unauthorized device ids are silently
// dropped from a subscription.
func TestHub_SubscribeScoping(t *testing.T) {
	h := newTestHub(map[string]string{"dev-1": "u1", "dev-2": "u2"})
	s := connect(h, auth.Identity{UserID: "u1", Role: "user"})

	allowed := h.subscribe(s, []string{"dev-1", "dev-2", "dev-missing"})
	if len(allowed) != 1 || allowed[0] != "dev-1" {
		t.Fatalf("allowed = %v, want [dev-1]", allowed)
	}

	drain(s)
	h.PublishLocation("dev-1", "someone-else", tracking.LocationPayload{DeviceID: "dev-1", Lat: 1})
	env := nextEvent(t, s, EventLocationUpdated)
	if payload, ok := env.Data.(tracking.LocationPayload); !ok || payload.DeviceID != "dev-1" {
		t.Errorf("location frame = %+v", env.Data)
	}

	// The foreign device's updates never reach this session.
	drain(s)
	h.PublishLocation("dev-2", "u2", tracking.LocationPayload{DeviceID: "dev-2"})
	select {
	case env := <-s.send:
		if env.Event == EventLocationUpdated {
			t.Errorf("received update for unauthorized device: %+v", env)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHub_Unsubscribe verifies leaving a device topic stops delivery.
func TestHub_Unsubscribe(t *testing.T) {
	h := newTestHub(map[string]string{"dev-1": "u1"})
	s := connect(h, auth.Identity{UserID: "u1", Role: "user"})

	h.subscribe(s, []string{"dev-1"})
	h.unsubscribe(s, []string{"dev-1"})

	drain(s)
	h.PublishLocation("dev-1", "other-user", tracking.LocationPayload{DeviceID: "dev-1"})
	select {
	case env := <-s.send:
		if env.Event == EventLocationUpdated {
			t.Errorf("received update after unsubscribe: %+v", env)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHub_OwnerActivityFeed verifies owners hear their devices through the
// user topic without explicit subscriptions.
func TestHub_OwnerActivityFeed(t *testing.T) {
	h := newTestHub(nil)
	owner := connect(h, auth.Identity{UserID: "u1", Role: "user"})
	stranger := connect(h, auth.Identity{UserID: "u2", Role: "user"})
	drain(owner)
	drain(stranger)

	h.PublishLocation("dev-1", "u1", tracking.LocationPayload{DeviceID: "dev-1", Lat: 7})

	env := nextEvent(t, owner, EventActivityLocation)
	if payload, ok := env.Data.(tracking.LocationPayload); !ok || payload.Lat != 7 {
		t.Errorf("activity frame = %+v", env.Data)
	}

	select {
	case env := <-stranger.send:
		if env.Event == EventActivityLocation {
			t.Errorf("stranger received another user's activity: %+v", env)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHub_AdminFanout verifies admins join the admin topic automatically and
// receive the admin event names.
func TestHub_AdminFanout(t *testing.T) {
	h := newTestHub(nil)
	admin := connect(h, auth.Identity{UserID: "root", Role: "admin"})
	drain(admin)

	h.PublishLocation("dev-1", "u1", tracking.LocationPayload{DeviceID: "dev-1"})
	nextEvent(t, admin, EventAdminLocation)

	h.PublishStatus("dev-1", "u1", tracking.StatusPayload{DeviceID: "dev-1", IsOnline: true})
	nextEvent(t, admin, EventAdminDeviceStatus)
}

// TestHub_StatusFanout verifies presence events reach device subscribers and
// the owner under the plain status event name.
func TestHub_StatusFanout(t *testing.T) {
	h := newTestHub(map[string]string{"dev-1": "watcher"})
	watcher := connect(h, auth.Identity{UserID: "watcher", Role: "user"})
	h.subscribe(watcher, []string{"dev-1"})
	owner := connect(h, auth.Identity{UserID: "owner-1", Role: "user"})
	drain(watcher)
	drain(owner)

	h.PublishStatus("dev-1", "owner-1", tracking.StatusPayload{DeviceID: "dev-1", IsOnline: false})

	env := nextEvent(t, watcher, EventDeviceStatus)
	if payload, ok := env.Data.(tracking.StatusPayload); !ok || payload.IsOnline {
		t.Errorf("watcher status frame = %+v", env.Data)
	}
	nextEvent(t, owner, EventDeviceStatus)
}

// TestHub_SlowSessionDropped verifies a session with a full queue is
// disconnected rather than blocking the fan-out.
func TestHub_SlowSessionDropped(t *testing.T) {
	h := newTestHub(map[string]string{"dev-1": "slow"})
	slow := connect(h, auth.Identity{UserID: "slow", Role: "user"})
	h.subscribe(slow, []string{"dev-1"})
	drain(slow)

	// Fill the queue to capacity, then publish once more.
	for i := 0; i < sendQueueSize; i++ {
		slow.queue(Envelope{Event: "filler"})
	}
	h.PublishLocation("dev-1", "slow", tracking.LocationPayload{DeviceID: "dev-1"})

	if got := h.ConnectionCount(); got != 0 {
		t.Errorf("ConnectionCount = %d, want 0 after dropping the slow session", got)
	}
	h.mu.Lock()
	_, still := h.sessions[slow]
	h.mu.Unlock()
	if still {
		t.Error("slow session should have been unregistered")
	}
}

// TestHub_CloseDisconnectsAll verifies Close empties the hub and blocks new
// registrations.
func TestHub_CloseDisconnectsAll(t *testing.T) {
	h := newTestHub(nil)
	connect(h, auth.Identity{UserID: "u1", Role: "user"})
	connect(h, auth.Identity{UserID: "u2", Role: "user"})

	h.Close()
	if got := h.ConnectionCount(); got != 0 {
		t.Errorf("ConnectionCount after Close = %d, want 0", got)
	}

	late := newSession(h, nil, auth.Identity{UserID: "u3", Role: "user"})
	h.register(late)
	if got := h.ConnectionCount(); got != 0 {
		t.Errorf("registration after Close must be rejected, count = %d", got)
	}
}
