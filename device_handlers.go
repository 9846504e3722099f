package geosentinel

import (
	"net/http"
	"strconv"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
	"github.com/Kumarpriyam05/GeoSentinel/registry"
)

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", "all", "online", "offline":
	default:
		s.writeError(w, apperror.Validation("status must be one of: all, online, offline"))
		return
	}

	devices, err := s.registry.List(r.Context(), requestIdentity(r), registry.Filter{
		Search: r.URL.Query().Get("search"),
		Status: status,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": newDeviceViews(devices)})
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if msgs := s.validateStruct(req, createDeviceMessages); len(msgs) > 0 {
		s.writeError(w, validationError(msgs))
		return
	}

	device, ingestKey, err := s.registry.Register(r.Context(), requestUser(r).ID, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// The raw key appears in this response and nowhere else, ever.
	writeJSON(w, http.StatusCreated, map[string]any{
		"device":    newDeviceView(device),
		"ingestKey": ingestKey,
	})
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.registry.FindScoped(r.Context(), requestIdentity(r), r.PathValue("deviceId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req updateDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if msgs := s.validateStruct(req, updateDeviceMessages); len(msgs) > 0 {
		s.writeError(w, validationError(msgs))
		return
	}

	if req.Name != nil {
		if err := s.registry.Rename(r.Context(), device, *req.Name); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.IsOnline != nil {
		if *req.IsOnline {
			err = s.registry.SetOnline(r.Context(), device)
		} else {
			err = s.engine.SetOffline(r.Context(), device)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"device": newDeviceView(device)})
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.registry.FindScoped(r.Context(), requestIdentity(r), r.PathValue("deviceId"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.registry.Delete(r.Context(), device); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	device, err := s.registry.FindScoped(r.Context(), requestIdentity(r), r.PathValue("deviceId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, apperror.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	rows, err := s.registry.History(r.Context(), device.ID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": newHistoryViews(rows)})
}
