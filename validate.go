package geosentinel

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
	"github.com/Kumarpriyam05/GeoSentinel/store"
	"github.com/Kumarpriyam05/GeoSentinel/tracking"
)

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Validation("Invalid JSON body")
	}
	return nil
}

// validateStruct runs validator over v and turns every violation into its
// caller-facing message, comma-joined so one response names all of them.
func (s *Server) validateStruct(v any, messages map[string]string) []string {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"Invalid request body"}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := messages[fe.Field()]; ok {
			out = append(out, msg)
		} else {
			out = append(out, fe.Field()+" is invalid")
		}
	}
	return out
}

func validationError(msgs []string) error {
	return apperror.Validation(strings.Join(msgs, ", "))
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

var registerMessages = map[string]string{
	"Name":     "Name must be between 2 and 80 characters",
	"Email":    "Valid email is required",
	"Password": "Password must be between 8 and 64 characters",
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"Email":    "Valid email is required",
	"Password": "Password is required",
}

type createDeviceRequest struct {
	Name string `json:"name" validate:"required,min=2,max=80"`
}

var createDeviceMessages = map[string]string{
	"Name": "Device name must be between 2 and 80 characters",
}

type updateDeviceRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=80"`
	IsOnline *bool   `json:"isOnline"`
}

var updateDeviceMessages = map[string]string{
	"Name": "Invalid device name",
}

type locationRequest struct {
	Lat       *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng       *float64 `json:"lng" validate:"required,min=-180,max=180"`
	Speed     *float64 `json:"speed" validate:"omitempty,min=0,max=1000"`
	Heading   *float64 `json:"heading" validate:"omitempty,min=0,max=360"`
	Accuracy  *float64 `json:"accuracy" validate:"omitempty,min=0,max=10000"`
	Timestamp string   `json:"timestamp"`
	Source    string   `json:"source" validate:"omitempty,oneof=simulator"`
}

var locationMessages = map[string]string{
	"Lat":      "lat must be between -90 and 90",
	"Lng":      "lng must be between -180 and 180",
	"Speed":    "speed must be valid",
	"Heading":  "heading must be between 0 and 360",
	"Accuracy": "accuracy must be valid",
	"Source":   "source must be simulator when provided",
}

// parseLocationRequest decodes and validates a location report body and
// normalizes it into an observation. The capture timestamp defaults to
// receipt time; optional numeric fields default to zero.
func (s *Server) parseLocationRequest(r *http.Request, defaultSource string) (tracking.Observation, error) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		return tracking.Observation{}, err
	}

	msgs := s.validateStruct(req, locationMessages)

	capturedAt := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			msgs = append(msgs, "timestamp must be a valid ISO date")
		} else {
			capturedAt = parsed.UTC()
		}
	}
	if len(msgs) > 0 {
		return tracking.Observation{}, validationError(msgs)
	}

	obs := tracking.Observation{
		Lat:        *req.Lat,
		Lng:        *req.Lng,
		Source:     defaultSource,
		CapturedAt: capturedAt,
	}
	if req.Speed != nil {
		obs.Speed = *req.Speed
	}
	if req.Heading != nil {
		obs.Heading = *req.Heading
	}
	if req.Accuracy != nil {
		obs.Accuracy = *req.Accuracy
	}
	// A simulator may tag its traffic on the device-keyed path; everything
	// else keeps the path's source.
	if req.Source == store.SourceSimulator && defaultSource == store.SourceIngest {
		obs.Source = store.SourceSimulator
	}
	return obs, nil
}
