package coord

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"outreach-hq/src/models"
	"outreach-hq/src/services"
)

type GroupRoutes struct {
	Ledger *services.LedgerService
	Logger *slog.Logger
}

func RegisterGroupRoutes(router *mux.Router, routes GroupRoutes) {
	router.HandleFunc("/groups", routes.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/groups", routes.handleList).Methods(http.MethodGet)
	router.HandleFunc("/groups/{groupID}/members", routes.handleListMembers).Methods(http.MethodGet)
	router.HandleFunc("/groups/members", routes.handleAddMember).Methods(http.MethodPost)
	router.HandleFunc("/groups/stats", routes.handleUpdateStats).Methods(http.MethodPost)
}

// mutationResponse reports a committed roster change. RoleSynced false with
// a warning means the write stands but the platform role grant failed and
// can be retried.
type mutationResponse struct {
	Group      models.Group `json:"group"`
	RoleID     string       `json:"role_id"`
	RoleSynced bool         `json:"role_synced"`
	Warning    string       `json:"warning,omitempty"`
}

func newMutationResponse(result services.GroupResult) mutationResponse {
	resp := mutationResponse{
		Group:      result.Group,
		RoleID:     result.RoleID,
		RoleSynced: result.SyncErr == nil,
	}
	if result.SyncErr != nil {
		resp.Warning = result.SyncErr.Error()
	}
	return resp
}

func (r GroupRoutes) handleCreate(w http.ResponseWriter, req *http.Request) {
	if _, ok := actorID(w, req); !ok {
		return
	}

	var payload struct {
		LeaderID string `json:"leader_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.LeaderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "leader_id is required"})
		return
	}

	result, err := r.Ledger.CreateGroup(req.Context(), payload.LeaderID)
	if err != nil {
		writeError(w, r.Logger, "create group", err)
		return
	}
	if result.SyncErr != nil {
		r.Logger.Warn("group created but role grant failed", "group_id", result.Group.ID, "error", result.SyncErr)
	}
	writeJSON(w, http.StatusCreated, newMutationResponse(result))
}

func (r GroupRoutes) handleList(w http.ResponseWriter, req *http.Request) {
	groups, err := r.Ledger.Groups(req.Context())
	if err != nil {
		writeError(w, r.Logger, "list groups", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (r GroupRoutes) handleListMembers(w http.ResponseWriter, req *http.Request) {
	members, err := r.Ledger.Members(req.Context(), mux.Vars(req)["groupID"])
	if err != nil {
		writeError(w, r.Logger, "list members", err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (r GroupRoutes) handleAddMember(w http.ResponseWriter, req *http.Request) {
	actor, ok := actorID(w, req)
	if !ok {
		return
	}

	var payload struct {
		UserID string `json:"user_id"`
		RoleID string `json:"role_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	result, err := r.Ledger.AddMember(req.Context(), actor, payload.UserID, payload.RoleID)
	if err != nil {
		writeError(w, r.Logger, "add member", err)
		return
	}
	if result.SyncErr != nil {
		r.Logger.Warn("member added but role grant failed", "group_id", result.Group.ID, "user_id", payload.UserID, "error", result.SyncErr)
	}
	writeJSON(w, http.StatusCreated, newMutationResponse(result))
}

func (r GroupRoutes) handleUpdateStats(w http.ResponseWriter, req *http.Request) {
	actor, ok := actorID(w, req)
	if !ok {
		return
	}

	var payload struct {
		RoleID      string `json:"role_id"`
		Vegan       int    `json:"vegan"`
		Considered  int    `json:"considered"`
		Thanked     int    `json:"thanked"`
		Documentary int    `json:"documentary"`
		Educated    int    `json:"educated"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stats payload"})
		return
	}

	group, err := r.Ledger.UpdateStats(req.Context(), actor, payload.RoleID, models.Stats{
		Vegan:       payload.Vegan,
		Considered:  payload.Considered,
		Thanked:     payload.Thanked,
		Documentary: payload.Documentary,
		Educated:    payload.Educated,
	})
	if err != nil {
		writeError(w, r.Logger, "update stats", err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}
