package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/notify"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error         string                `json:"error"`
	Code          string                `json:"code,omitempty"`
	Details       string                `json:"details,omitempty"`
	Fields        []string              `json:"fields,omitempty"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

// responder writes JSON responses and logs what cannot be written.
type responder struct {
	log *zap.Logger
}

func (rs responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.log.Warn("failed to encode response", zap.Int("status", status), zap.Error(err))
	}
}

func (rs responder) respondError(w http.ResponseWriter, status int, code, message string) {
	rs.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func (rs responder) respondValidation(ctx context.Context, w http.ResponseWriter, v *domain.ValidationError) {
	rs.respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:         "some fields are invalid",
		Code:          "validation_failed",
		Fields:        v.Fields,
		Notifications: drainNotifications(ctx),
	})
}

func drainNotifications(ctx context.Context) []notify.Notification {
	if c := notify.CollectorFrom(ctx); c != nil {
		return c.Drain()
	}
	return nil
}
