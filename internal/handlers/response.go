package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"perkhub-analytics/internal/fanout"
	"perkhub-analytics/internal/query"
)

const internalErrorMessage = "Internal server error"

// envelope is the success shape shared by every analytics endpoint.
type envelope struct {
	Success    bool      `json:"success"`
	Data       any       `json:"data"`
	Summary    any       `json:"summary,omitempty"`
	Pagination any       `json:"pagination,omitempty"`
	Cached     *bool     `json:"cached,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type errorEnvelope struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error"`
	Field     string     `json:"field,omitempty"`
	Details   string     `json:"details,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and the error envelope. Only
// validation and fan-out failures expose their message in production.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, development bool, now time.Time) {
	resp := errorEnvelope{Success: false}
	status := http.StatusInternalServerError

	var (
		verr *query.ValidationError
		ferr *fanout.FailureError
	)
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = verr.Message
		if development {
			resp.Field = verr.Field
		}
		logger.Info("analytics_validation_failed",
			zap.String("field", verr.Field),
			zap.String("message", verr.Message),
		)
	case errors.As(err, &ferr):
		resp.Error = ferr.Error()
		logger.Error("analytics_fetch_failed",
			zap.Int("failed_tasks", len(ferr.Failures)),
			zap.Error(err),
		)
	default:
		resp.Error = internalErrorMessage
		logger.Error("analytics_unexpected_error", zap.Error(err))
	}

	if development {
		resp.Details = err.Error()
		ts := now.UTC()
		resp.Timestamp = &ts
	}

	writeJSON(w, status, resp)
}
