package geosentinel

import (
	"net/http"
	"time"

	"github.com/Kumarpriyam05/GeoSentinel/store"
)

type overviewMetrics struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalDevices  int64 `json:"totalDevices"`
	OnlineDevices int64 `json:"onlineDevices"`
	ActiveUsers   int64 `json:"activeUsers"`
	UpdatesLast24 int64 `json:"updatesLast24h"`
}

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oneDayAgo := time.Now().UTC().Add(-24 * time.Hour)
	fifteenMinutesAgo := time.Now().UTC().Add(-15 * time.Minute)

	var m overviewMetrics
	queries := []error{
		s.db.WithContext(ctx).Model(&store.User{}).Count(&m.TotalUsers).Error,
		s.db.WithContext(ctx).Model(&store.Device{}).Count(&m.TotalDevices).Error,
		s.db.WithContext(ctx).Model(&store.Device{}).Where("is_online = ?", true).Count(&m.OnlineDevices).Error,
		s.db.WithContext(ctx).Model(&store.User{}).Where("last_seen_at >= ?", fifteenMinutesAgo).Count(&m.ActiveUsers).Error,
		s.db.WithContext(ctx).Model(&store.LocationHistory{}).Where("captured_at >= ?", oneDayAgo).Count(&m.UpdatesLast24).Error,
	}
	for _, err := range queries {
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]overviewMetrics{"metrics": m})
}

type activeUserView struct {
	userView
	OnlineDevices int64 `json:"onlineDevices"`
}

func (s *Server) handleAdminActiveUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	var users []store.User
	err := s.db.WithContext(ctx).
		Where("last_seen_at >= ?", cutoff).
		Order("last_seen_at DESC").
		Limit(100).
		Find(&users).Error
	if err != nil {
		s.writeError(w, err)
		return
	}

	type onlineCount struct {
		UserID string
		N      int64
	}
	var counts []onlineCount
	err = s.db.WithContext(ctx).Model(&store.Device{}).
		Select("user_id, COUNT(*) AS n").
		Where("is_online = ?", true).
		Group("user_id").
		Scan(&counts).Error
	if err != nil {
		s.writeError(w, err)
		return
	}
	onlineByUser := make(map[string]int64, len(counts))
	for _, c := range counts {
		onlineByUser[c.UserID] = c.N
	}

	views := make([]activeUserView, 0, len(users))
	for i := range users {
		views = append(views, activeUserView{
			userView:      newUserView(&users[i]),
			OnlineDevices: onlineByUser[users[i].ID],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}
