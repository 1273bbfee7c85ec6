package coord

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"outreach-hq/src/models"
	"outreach-hq/src/services"
)

type EventRoutes struct {
	Campaign *services.CampaignService
	Logger   *slog.Logger
}

func RegisterEventRoutes(router *mux.Router, routes EventRoutes) {
	router.HandleFunc("/events", routes.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/events/current", routes.handleCurrent).Methods(http.MethodGet)
	router.HandleFunc("/events/current/start", routes.handleStart).Methods(http.MethodPost)
	router.HandleFunc("/events/current/end", routes.handleEnd).Methods(http.MethodPost)
}

func (r EventRoutes) handleCreate(w http.ResponseWriter, req *http.Request) {
	actor, ok := actorID(w, req)
	if !ok {
		return
	}

	var payload struct {
		Start bool `json:"start"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
		return
	}

	event, err := r.Campaign.Create(req.Context(), actor, payload.Start)
	if err != nil {
		writeError(w, r.Logger, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (r EventRoutes) handleCurrent(w http.ResponseWriter, req *http.Request) {
	event, err := r.Campaign.Current(req.Context())
	if err != nil {
		writeError(w, r.Logger, "current event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (r EventRoutes) handleStart(w http.ResponseWriter, req *http.Request) {
	event, err := r.Campaign.Start(req.Context())
	if err != nil {
		writeError(w, r.Logger, "start event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (r EventRoutes) handleEnd(w http.ResponseWriter, req *http.Request) {
	event, err := r.Campaign.End(req.Context())
	if err != nil {
		writeError(w, r.Logger, "end event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// actorID pulls the acting user from the X-Actor-ID header the upstream
// command layer sets after resolving the platform interaction.
func actorID(w http.ResponseWriter, req *http.Request) (string, bool) {
	actor := req.Header.Get("X-Actor-ID")
	if actor == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Actor-ID header is required"})
		return "", false
	}
	return actor, true
}

func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrActiveEventExists),
		errors.Is(err, models.ErrEventAlreadyStarted),
		errors.Is(err, models.ErrEventAlreadyEnded),
		errors.Is(err, models.ErrLeaderHasGroup),
		errors.Is(err, models.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, models.ErrNoActiveEvent),
		errors.Is(err, models.ErrGroupNotFound),
		errors.Is(err, models.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotAuthorized),
		errors.Is(err, models.ErrNotALeader):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
