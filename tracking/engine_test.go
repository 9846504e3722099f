package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Kumarpriyam05/GeoSentinel/store"
)

type fakeStore struct {
	mu      sync.Mutex
	saves   int
	history []store.LocationHistory
}

func (f *fakeStore) SaveDevice(ctx context.Context, device *store.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return nil
}

func (f *fakeStore) AppendHistory(ctx context.Context, row *store.LocationHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, *row)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	locations []LocationPayload
	statuses  []StatusPayload
}

func (f *fakePublisher) PublishLocation(deviceID, userID string, payload LocationPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = append(f.locations, payload)
}

func (f *fakePublisher) PublishStatus(deviceID, userID string, payload StatusPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, payload)
}

func (f *fakePublisher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.locations), len(f.statuses)
}

func testDevice() *store.Device {
	return &store.Device{ID: "dev-1", UserID: "user-1", Name: "Tracker", TrackingID: "GST-00000001"}
}

// TestRecord_PersistsAndFlipsOnline verifies one observation updates the
// snapshot, appends history and announces the offline-to-online transition
// immediately.
func TestRecord_PersistsAndFlipsOnline(t *testing.T) {
	fs := &fakeStore{}
	pub := &fakePublisher{}
	engine := NewEngine(fs, pub, 20*time.Millisecond)
	defer engine.Stop()

	device := testDevice()
	captured := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	payload, err := engine.Record(context.Background(), device, Observation{
		Lat: 59.437, Lng: 24.7536, Speed: 5,
		Source: store.SourceIngest, CapturedAt: captured,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if !device.IsOnline {
		t.Error("device should be online after a report")
	}
	if device.LastLocation.Lat != 59.437 || !device.LastLocation.Recorded() {
		t.Errorf("snapshot not updated: %+v", device.LastLocation)
	}
	if len(fs.history) != 1 || fs.history[0].Lat != 59.437 {
		t.Errorf("history = %+v", fs.history)
	}
	if payload.CapturedAt != captured.Format(time.RFC3339) {
		t.Errorf("capturedAt = %q", payload.CapturedAt)
	}
	if !payload.IsOnline {
		t.Error("payload should report online")
	}

	// The status event fires immediately, before the coalescer window.
	if _, statuses := pub.counts(); statuses != 1 {
		t.Errorf("got %d status events, want 1 immediate transition", statuses)
	}

	// The location broadcast arrives after the window.
	deadline := time.Now().Add(time.Second)
	for {
		if locs, _ := pub.counts(); locs == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("coalesced location broadcast never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestRecord_NoStatusWhenAlreadyOnline verifies repeated reports do not
// re-announce presence.
func TestRecord_NoStatusWhenAlreadyOnline(t *testing.T) {
	fs := &fakeStore{}
	pub := &fakePublisher{}
	engine := NewEngine(fs, pub, 10*time.Millisecond)
	defer engine.Stop()

	device := testDevice()
	device.IsOnline = true

	_, err := engine.Record(context.Background(), device, Observation{
		Lat: 1, Lng: 1, Source: store.SourceIngest, CapturedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, statuses := pub.counts(); statuses != 0 {
		t.Errorf("got %d status events for an already-online device, want 0", statuses)
	}
}

// TestSetOffline verifies the explicit transition and its idempotence.
func TestSetOffline(t *testing.T) {
	fs := &fakeStore{}
	pub := &fakePublisher{}
	engine := NewEngine(fs, pub, 10*time.Millisecond)
	defer engine.Stop()

	device := testDevice()
	device.IsOnline = true

	if err := engine.SetOffline(context.Background(), device); err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	if device.IsOnline {
		t.Error("device should be offline")
	}
	if _, statuses := pub.counts(); statuses != 1 {
		t.Errorf("got %d status events, want 1", statuses)
	}
	if fs.saves != 1 {
		t.Errorf("got %d saves, want 1", fs.saves)
	}

	// Second call is a no-op: no write, no event.
	if err := engine.SetOffline(context.Background(), device); err != nil {
		t.Fatalf("idempotent SetOffline: %v", err)
	}
	if _, statuses := pub.counts(); statuses != 1 {
		t.Error("already-offline transition must not re-announce")
	}
	if fs.saves != 1 {
		t.Error("already-offline transition must not write")
	}
}

// TestRecord_BurstCoalesces verifies a burst of reports persists every row
// but broadcasts once with the freshest payload.
func TestRecord_BurstCoalesces(t *testing.T) {
	fs := &fakeStore{}
	pub := &fakePublisher{}
	engine := NewEngine(fs, pub, 40*time.Millisecond)
	defer engine.Stop()

	device := testDevice()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := engine.Record(ctx, device, Observation{
			Lat: float64(i), Lng: 1,
			Source: store.SourceIngest, CapturedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	if len(fs.history) != 5 {
		t.Errorf("every report must persist: got %d history rows", len(fs.history))
	}

	deadline := time.Now().Add(time.Second)
	for {
		if locs, _ := pub.counts(); locs >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no broadcast fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.locations) != 1 {
		t.Fatalf("got %d broadcasts for a single-window burst, want 1", len(pub.locations))
	}
	if pub.locations[0].Lat != 5 {
		t.Errorf("broadcast lat = %v, want the freshest report (5)", pub.locations[0].Lat)
	}
}
