package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/middleware"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

const (
	frontendErrorSource = "frontend"
	maxErrorMessage     = 2000
	maxErrorStack       = 8000
)

type FrontendErrorRequest struct {
	RequestID string                 `json:"request_id"`
	Message   string                 `json:"message"`
	Stack     string                 `json:"stack,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Status    *int                   `json:"status,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// IngestFrontendError stores a browser-side error. Authentication is optional;
// when a token is present the event is attributed to that user.
func (h *Handler) IngestFrontendError(w http.ResponseWriter, r *http.Request) {
	var req FrontendErrorRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		msg = "frontend error"
	}
	rid := strings.TrimSpace(req.RequestID)
	if rid == "" {
		rid = middleware.RequestIDFromContext(r.Context())
	}
	meta := map[string]interface{}{}
	for k, v := range req.Metadata {
		meta[k] = v
	}
	if req.Status != nil {
		meta["status"] = *req.Status
	}
	ev := repo.ErrorEvent{
		Source:    frontendErrorSource,
		UserID:    actorID(r),
		RequestID: rid,
		Path:      repo.Clip(strings.TrimSpace(req.Path), 500),
		Message:   repo.Clip(msg, maxErrorMessage),
		Stack:     repo.Clip(req.Stack, maxErrorStack),
		UserAgent: repo.Clip(r.UserAgent(), 255),
		Metadata:  meta,
	}
	if err := repo.CreateErrorEvent(r.Context(), h.Pool, ev); err != nil {
		log.Error().Err(err).Str("request_id", rid).Msg("[api] store frontend error")
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "ok"})
}
