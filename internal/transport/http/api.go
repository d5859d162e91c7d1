package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"smart-break-quiz/internal/domain"
	"smart-break-quiz/internal/game"
	"smart-break-quiz/internal/leaderboard"
	"smart-break-quiz/internal/logging"
	"smart-break-quiz/internal/profile"
)

// APIHandler serves the catalog, profile and leaderboard endpoints.
type APIHandler struct {
	profiles     *profile.Service
	board        *leaderboard.Service
	defaultLimit int
}

func NewAPIHandler(profiles *profile.Service, board *leaderboard.Service, defaultLimit int) *APIHandler {
	if defaultLimit <= 0 {
		defaultLimit = leaderboard.DefaultLimit
	}
	return &APIHandler{profiles: profiles, board: board, defaultLimit: defaultLimit}
}

type createProfileRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = game.AllCategories
	}
	writeJSON(w, http.StatusOK, game.ByCategory(category))
}

func (h *APIHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, game.Categories())
}

func (h *APIHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.profiles.Create(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *APIHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.profiles.Achievements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, achievements)
}

func (h *APIHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.board.Top(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrOptionOutOfRange),
		errors.Is(err, domain.ErrInvalidDifficulty):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionNotCompleted),
		errors.Is(err, domain.ErrSessionClosed):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
