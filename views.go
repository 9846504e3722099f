package geosentinel

import (
	"time"

	"github.com/Kumarpriyam05/GeoSentinel/store"
)

type locationView struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type deviceView struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	TrackingID   string        `json:"trackingId"`
	IsOnline     bool          `json:"isOnline"`
	User         string        `json:"user"`
	LastActiveAt *time.Time    `json:"lastActiveAt"`
	LastLocation *locationView `json:"lastLocation"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func newDeviceView(d *store.Device) deviceView {
	view := deviceView{
		ID:           d.ID,
		Name:         d.Name,
		TrackingID:   d.TrackingID,
		IsOnline:     d.IsOnline,
		User:         d.UserID,
		LastActiveAt: d.LastActiveAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.LastLocation.Recorded() {
		view.LastLocation = &locationView{
			Lat:       d.LastLocation.Lat,
			Lng:       d.LastLocation.Lng,
			Speed:     d.LastLocation.Speed,
			Heading:   d.LastLocation.Heading,
			Accuracy:  d.LastLocation.Accuracy,
			Timestamp: d.LastLocation.Timestamp,
		}
	}
	return view
}

func newDeviceViews(devices []store.Device) []deviceView {
	views := make([]deviceView, 0, len(devices))
	for i := range devices {
		views = append(views, newDeviceView(&devices[i]))
	}
	return views
}

type userView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newUserView(u *store.User) userView {
	return userView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		LastSeenAt: u.LastSeenAt,
		CreatedAt:  u.CreatedAt,
	}
}

type historyEntryView struct {
	ID         uint      `json:"id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	Accuracy   float64   `json:"accuracy"`
	Source     string    `json:"source"`
	CapturedAt time.Time `json:"capturedAt"`
}

func newHistoryViews(rows []store.LocationHistory) []historyEntryView {
	views := make([]historyEntryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, historyEntryView{
			ID:         row.ID,
			Lat:        row.Lat,
			Lng:        row.Lng,
			Speed:      row.Speed,
			Heading:    row.Heading,
			Accuracy:   row.Accuracy,
			Source:     row.Source,
			CapturedAt: row.CapturedAt,
		})
	}
	return views
}
