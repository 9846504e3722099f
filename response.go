package geosentinel

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
)

type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError reports a domain error with its stable message and category.
// Anything outside the taxonomy is logged and reported as a generic
// failure; the underlying detail reaches the caller only outside production.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		writeJSON(w, apperror.HTTPStatus(appErr), errorResponse{Message: appErr.Message})
		return
	}

	log.Printf("internal error: %v", err)
	resp := errorResponse{Message: "Something went wrong"}
	if !s.cfg.IsProduction() {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}
