package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mchmarny/navmenu/pkg/cascade"
	"github.com/mchmarny/navmenu/pkg/combo"
	"github.com/mchmarny/navmenu/pkg/session"
)

type openFormRequest struct {
	Kind string `json:"kind"`
}

type selectRequest struct {
	// Value is nil to clear the level.
	Value *int64 `json:"value"`
}

type loadFormRequest struct {
	Values []int64 `json:"values"`
}

type formLevel struct {
	Name     string         `json:"name"`
	Selected *int64         `json:"selected,omitempty"`
	Options  []cascade.Item `json:"options"`
	Loading  bool           `json:"loading"`
	Error    string         `json:"error,omitempty"`
}

type formResponse struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Version   uint64      `json:"version"`
	Restoring bool        `json:"restoring"`
	Levels    []formLevel `json:"levels"`
}

func formView(f *session.Form) formResponse {
	snap := f.Snapshot()
	resp := formResponse{
		ID:        f.ID,
		Kind:      f.Kind,
		Version:   snap.Version,
		Restoring: snap.Restoring,
		Levels:    make([]formLevel, 0, len(snap.Levels)),
	}
	for _, ls := range snap.Levels {
		lv := formLevel{
			Name:    ls.Name,
			Options: append([]cascade.Item{}, ls.Options...),
			Loading: ls.Loading,
		}
		if ls.HasSelection {
			v := ls.Selected
			lv.Selected = &v
		}
		if ls.Err != nil {
			lv.Error = ls.Err.Error()
		}
		resp.Levels = append(resp.Levels, lv)
	}
	return resp
}

func (h *Handler) formFrom(w http.ResponseWriter, r *http.Request) (*session.Form, bool) {
	f, err := sessionFrom(r).Form(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return nil, false
	}
	return f, true
}

func (h *Handler) parseLevel(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, ok := parseID(w, r, "level")
	if !ok {
		return 0, false
	}
	return int(i), true
}

// writeForm answers with the form state. With wait=true it first waits for the
// in-flight option fetches to settle.
func (h *Handler) writeForm(w http.ResponseWriter, r *http.Request, f *session.Form, status int) {
	if r.URL.Query().Get("wait") == "true" {
		if err := f.Wait(r.Context()); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, status, formView(f))
}

// HandleOpenForm opens an entry form and loads its first level.
// POST /v1/forms
func (h *Handler) HandleOpenForm(w http.ResponseWriter, r *http.Request) {
	var req openFormRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	kind, err := combo.ParseForm(req.Kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	s := sessionFrom(r)
	ctrl, err := h.combos.NewForm(r.Context(), kind,
		cascade.WithLogger(h.logger.With("session", s.ID, "form", string(kind))),
		cascade.WithMetrics(h.metrics))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, formView(s.AddForm(string(kind), ctrl)))
}

// HandleGetForm returns the form state.
// GET /v1/forms/{id}?wait=true
func (h *Handler) HandleGetForm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.formFrom(w, r)
	if !ok {
		return
	}
	h.writeForm(w, r, f, http.StatusOK)
}

// HandleCloseForm drops the form.
// DELETE /v1/forms/{id}
func (h *Handler) HandleCloseForm(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).CloseForm(chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelect selects or clears a level. Lower levels are cleared at once and the
// next level is fetched in the background.
// PUT /v1/forms/{id}/levels/{level}
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	f, ok := h.formFrom(w, r)
	if !ok {
		return
	}
	level, ok := h.parseLevel(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	var err error
	if req.Value == nil {
		err = f.ClearSelection(r.Context(), level)
	} else {
		err = f.SetSelection(r.Context(), level, *req.Value)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeForm(w, r, f, http.StatusOK)
}

// HandleReloadLevel fetches the options of a level again, e.g. after a failure.
// POST /v1/forms/{id}/levels/{level}/reload
func (h *Handler) HandleReloadLevel(w http.ResponseWriter, r *http.Request) {
	f, ok := h.formFrom(w, r)
	if !ok {
		return
	}
	level, ok := h.parseLevel(w, r)
	if !ok {
		return
	}
	if err := f.Reload(r.Context(), level); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeForm(w, r, f, http.StatusOK)
}

// HandleLoadForm restores the selections of an existing record, top-down, and
// answers once every level has loaded.
// POST /v1/forms/{id}/load
func (h *Handler) HandleLoadForm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.formFrom(w, r)
	if !ok {
		return
	}
	var req loadFormRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := f.LoadExisting(r.Context(), req.Values); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formView(f))
}
