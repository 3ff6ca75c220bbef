package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/erdalgunes/continental/internal/auth"
	"github.com/erdalgunes/continental/internal/service"
)

// GameHandler handles game lifecycle and read endpoints.
type GameHandler struct {
	gameSvc   *service.GameService
	replaySvc *service.ReplayService
	jwtMgr    *auth.JWTManager
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, replaySvc *service.ReplayService, jwtMgr *auth.JWTManager) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, replaySvc: replaySvc, jwtMgr: jwtMgr}
}

// authorizedPlayer returns the requesting player when the token was
// issued for the game in the path.
func authorizedPlayer(r *http.Request) (string, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || claims.GameID != r.PathValue("id") {
		return "", false
	}
	return claims.PlayerID, true
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string `json:"username"`
		Color      string `json:"color"`
		MaxPlayers int    `json:"max_players,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), req.Username, req.Color, req.MaxPlayers)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	cred, err := h.jwtMgr.IssuePlayerToken(game.ID, game.Players[0].ID)
	if err != nil {
		log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to issue player token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"game": game, "auth": cred})
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	games, err := h.gameSvc.ListGames(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameSvc.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		Username string `json:"username"`
		Color    string `json:"color"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	player, err := h.gameSvc.JoinGame(r.Context(), gameID, req.Username, req.Color)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	cred, err := h.jwtMgr.IssuePlayerToken(gameID, player.ID)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to issue player token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"player": player, "auth": cred})
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}

	st, err := h.gameSvc.StartGame(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetEvents handles GET /api/v1/games/{id}/events
func (h *GameHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.gameSvc.GetEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetState handles GET /api/v1/games/{id}/state. Without a sequence
// parameter it serves the latest projection; with one it replays the
// log up to that sequence.
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	if raw := r.URL.Query().Get("sequence"); raw != "" {
		sequence, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || sequence < 1 {
			writeError(w, http.StatusBadRequest, "sequence must be a positive integer")
			return
		}
		st, err := h.replaySvc.StateAt(r.Context(), gameID, sequence)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
		return
	}

	stateJSON, err := h.gameSvc.GetProjectedState(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, stateJSON)
}
