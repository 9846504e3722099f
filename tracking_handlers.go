package geosentinel

import (
	"net/http"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
	"github.com/Kumarpriyam05/GeoSentinel/registry"
	"github.com/Kumarpriyam05/GeoSentinel/store"
)

// handleIngestByTrackingID is the device-keyed ingestion path: the caller
// names a public tracking identifier and proves possession of the ingest
// key through the X-Device-Key header. 202 means the event is durably
// persisted; the coalesced broadcast may fire up to one window later.
func (s *Server) handleIngestByTrackingID(w http.ResponseWriter, r *http.Request) {
	trackingID := r.PathValue("trackingId")
	if !registry.TrackingIDPattern.MatchString(trackingID) {
		s.writeError(w, apperror.Validation("Invalid trackingId format"))
		return
	}

	deviceKey := r.Header.Get("X-Device-Key")
	if deviceKey == "" {
		s.writeError(w, apperror.Authentication("Missing x-device-key header"))
		return
	}

	device, err := s.registry.FindByTrackingID(r.Context(), trackingID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.registry.VerifyIngestKey(device, deviceKey); err != nil {
		s.writeError(w, err)
		return
	}

	obs, err := s.parseLocationRequest(r, store.SourceIngest)
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload, err := s.engine.Record(r.Context(), device, obs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":  "Location accepted",
		"location": payload,
	})
}

// handleUpdateDeviceLocation is the session-keyed ingestion path used by
// the dashboard: the device must belong to the caller unless the caller is
// an admin.
func (s *Server) handleUpdateDeviceLocation(w http.ResponseWriter, r *http.Request) {
	device, err := s.registry.FindScoped(r.Context(), requestIdentity(r), r.PathValue("deviceId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	obs, err := s.parseLocationRequest(r, store.SourceDashboard)
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload, err := s.engine.Record(r.Context(), device, obs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": payload})
}
