package handler

import (
	"net/http"

	"github.com/erdalgunes/continental/internal/service"
	"github.com/erdalgunes/continental/pkg/risk"
)

// ActionHandler handles the in-turn action endpoints. Every route
// requires a token issued for the game in the path.
type ActionHandler struct {
	actionSvc *service.ActionService
	undoSvc   *service.UndoService
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(actionSvc *service.ActionService, undoSvc *service.UndoService) *ActionHandler {
	return &ActionHandler{actionSvc: actionSvc, undoSvc: undoSvc}
}

// PlaceArmies handles POST /api/v1/games/{id}/place
func (h *ActionHandler) PlaceArmies(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}
	var req struct {
		Territory string `json:"territory"`
		Count     int    `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.actionSvc.PlaceArmies(r.Context(), r.PathValue("id"), playerID, req.Territory, req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Attack handles POST /api/v1/games/{id}/attack
func (h *ActionHandler) Attack(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
		Move int    `json:"move,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, st, err := h.actionSvc.Attack(r.Context(), r.PathValue("id"), playerID, req.From, req.To, req.Move)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result, "state": st})
}

// Fortify handles POST /api/v1/games/{id}/fortify
func (h *ActionHandler) Fortify(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}
	var req struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Count int    `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.actionSvc.Fortify(r.Context(), r.PathValue("id"), playerID, req.From, req.To, req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// EndTurn handles POST /api/v1/games/{id}/end-turn
func (h *ActionHandler) EndTurn(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}

	st, err := h.actionSvc.EndTurn(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ChangePhase handles POST /api/v1/games/{id}/phase
func (h *ActionHandler) ChangePhase(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}
	var req struct {
		Phase string `json:"phase"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.actionSvc.ChangePhase(r.Context(), r.PathValue("id"), playerID, risk.Phase(req.Phase))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UndoAvailability handles GET /api/v1/games/{id}/undo
func (h *ActionHandler) UndoAvailability(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}

	avail, err := h.undoSvc.CheckUndoAvailability(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

// Undo handles POST /api/v1/games/{id}/undo
func (h *ActionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authorizedPlayer(r)
	if !ok {
		writeError(w, http.StatusForbidden, "token was not issued for this game")
		return
	}

	st, err := h.undoSvc.UndoLastAction(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
