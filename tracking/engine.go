package tracking

import (
	"context"
	"time"

	"github.com/Kumarpriyam05/GeoSentinel/store"
)

// Observation is one normalized location report entering the engine.
type Observation struct {
	Lat        float64
	Lng        float64
	Speed      float64
	Heading    float64
	Accuracy   float64
	Source     string
	CapturedAt time.Time
}

// LocationPayload is the public shape broadcast to live subscribers.
type LocationPayload struct {
	DeviceID   string  `json:"deviceId"`
	UserID     string  `json:"userId"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Speed      float64 `json:"speed"`
	Heading    float64 `json:"heading"`
	Accuracy   float64 `json:"accuracy"`
	Source     string  `json:"source"`
	CapturedAt string  `json:"capturedAt"`
	IsOnline   bool    `json:"isOnline"`
}

// StatusPayload announces a presence transition.
type StatusPayload struct {
	DeviceID string `json:"deviceId"`
	IsOnline bool   `json:"isOnline"`
	At       string `json:"at"`
}

// Store is the slice of the registry the engine writes through.
type Store interface {
	SaveDevice(ctx context.Context, device *store.Device) error
	AppendHistory(ctx context.Context, row *store.LocationHistory) error
}

// Publisher receives engine notifications. Presence changes are published
// immediately; location payloads go through the coalescer first.
type Publisher interface {
	PublishLocation(deviceID, userID string, payload LocationPayload)
	PublishStatus(deviceID, userID string, payload StatusPayload)
}

// Engine persists location events, maintains presence and drives
// notification emission.
type Engine struct {
	store     Store
	publisher Publisher
	coalescer *Coalescer
}

// NewEngine wires an engine with a coalescer of the given window.
func NewEngine(s Store, pub Publisher, window time.Duration) *Engine {
	e := &Engine{store: s, publisher: pub}
	e.coalescer = NewCoalescer(window, pub.PublishLocation)
	return e
}

// Record applies one observation: overwrite the device snapshot, flip
// presence on, append a history row, emit an immediate status event on an
// offline-to-online transition, and enqueue the payload for coalesced
// broadcast. Acceptance means the writes succeeded; the broadcast may fire
// up to one window later.
//
// The snapshot write is last-write-wins by completion order, not by captured
// timestamp; out-of-order delivery can leave an older reading recorded as
// current.
func (e *Engine) Record(ctx context.Context, device *store.Device, obs Observation) (LocationPayload, error) {
	wasOnline := device.IsOnline

	capturedAt := obs.CapturedAt.UTC()
	device.LastLocation = store.LastLocation{
		Lat:       obs.Lat,
		Lng:       obs.Lng,
		Speed:     obs.Speed,
		Heading:   obs.Heading,
		Accuracy:  obs.Accuracy,
		Timestamp: capturedAt,
	}
	device.LastActiveAt = &capturedAt
	device.IsOnline = true
	if err := e.store.SaveDevice(ctx, device); err != nil {
		return LocationPayload{}, err
	}

	row := &store.LocationHistory{
		UserID:     device.UserID,
		DeviceID:   device.ID,
		Lat:        obs.Lat,
		Lng:        obs.Lng,
		Speed:      obs.Speed,
		Heading:    obs.Heading,
		Accuracy:   obs.Accuracy,
		Source:     obs.Source,
		CapturedAt: capturedAt,
	}
	if err := e.store.AppendHistory(ctx, row); err != nil {
		return LocationPayload{}, err
	}

	payload := LocationPayload{
		DeviceID:   device.ID,
		UserID:     device.UserID,
		Lat:        obs.Lat,
		Lng:        obs.Lng,
		Speed:      obs.Speed,
		Heading:    obs.Heading,
		Accuracy:   obs.Accuracy,
		Source:     obs.Source,
		CapturedAt: capturedAt.Format(time.RFC3339),
		IsOnline:   true,
	}

	if !wasOnline {
		e.publisher.PublishStatus(device.ID, device.UserID, StatusPayload{
			DeviceID: device.ID,
			IsOnline: true,
			At:       time.Now().UTC().Format(time.RFC3339),
		})
	}

	e.coalescer.Enqueue(device.ID, device.UserID, payload)
	return payload, nil
}

// SetOffline flips presence off and announces it immediately. Calling it on
// an already-offline device is a no-op: no write, no event. This is the only
// path that turns presence off.
func (e *Engine) SetOffline(ctx context.Context, device *store.Device) error {
	if !device.IsOnline {
		return nil
	}
	device.IsOnline = false
	if err := e.store.SaveDevice(ctx, device); err != nil {
		return err
	}
	e.publisher.PublishStatus(device.ID, device.UserID, StatusPayload{
		DeviceID: device.ID,
		IsOnline: false,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// Stop shuts the coalescer down.
func (e *Engine) Stop() { e.coalescer.Stop() }
