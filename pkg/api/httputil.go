package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mchmarny/navmenu/pkg/cascade"
	"github.com/mchmarny/navmenu/pkg/combo"
	"github.com/mchmarny/navmenu/pkg/menu"
	"github.com/mchmarny/navmenu/pkg/navigation"
	"github.com/mchmarny/navmenu/pkg/session"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid id: "+raw)
		return 0, false
	}
	return id, true
}

// writeDomainError maps package errors to HTTP responses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownSession):
		writeError(w, http.StatusUnauthorized, "UNKNOWN_SESSION", err.Error())
	case errors.Is(err, menu.ErrNoRole):
		writeError(w, http.StatusBadRequest, "NO_ROLE", err.Error())
	case errors.Is(err, navigation.ErrUnknownNode):
		writeError(w, http.StatusNotFound, "UNKNOWN_NODE", err.Error())
	case errors.Is(err, navigation.ErrNoMenu):
		writeError(w, http.StatusConflict, "NO_MENU", err.Error())
	case errors.Is(err, session.ErrUnknownForm), errors.Is(err, combo.ErrUnknownForm):
		writeError(w, http.StatusNotFound, "UNKNOWN_FORM", err.Error())
	case errors.Is(err, cascade.ErrUnknownOption):
		writeError(w, http.StatusUnprocessableEntity, "UNKNOWN_OPTION", err.Error())
	case errors.Is(err, cascade.ErrLevelOutOfRange):
		writeError(w, http.StatusBadRequest, "INVALID_LEVEL", err.Error())
	case errors.Is(err, cascade.ErrRestoreSuperseded):
		writeError(w, http.StatusConflict, "RESTORE_SUPERSEDED", err.Error())
	case errors.Is(err, menu.ErrSourceFailed), errors.Is(err, combo.ErrUnexpectedStatus):
		h.logger.Warn("backend request failed", "error", err)
		writeError(w, http.StatusBadGateway, "BACKEND_FAILED", "backend request failed")
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error, see logs for details")
	}
}
