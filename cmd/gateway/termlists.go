package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doc-rater/internal/app"
	"doc-rater/internal/httputil"
	"doc-rater/internal/store"
)

type createTermListRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Category    string   `json:"category" validate:"required,max=50"`
	Terms       []string `json:"terms" validate:"required,min=1,dive,required"`
	Active      *bool    `json:"active"`
	Description string   `json:"description"`
}

// updateTermListRequest changes only the fields present in the body.
type updateTermListRequest struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=200"`
	Terms       []string `json:"terms" validate:"omitnil,min=1,dive,required"`
	Active      *bool    `json:"active"`
	Description *string  `json:"description"`
}

func listTermListsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lists, err := deps.Store.ListTermLists(r.Context())
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load term lists", err, http.StatusInternalServerError)
			return
		}
		if lists == nil {
			lists = []store.TermList{}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"termLists": lists})
	}
}

func createTermListHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTermListRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid JSON body", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}
		list, err := deps.Store.CreateTermList(r.Context(), store.TermList{
			Name:        strings.TrimSpace(req.Name),
			Category:    strings.ToLower(strings.TrimSpace(req.Category)),
			Terms:       req.Terms,
			Active:      active,
			Description: req.Description,
		})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create term list", err, http.StatusInternalServerError)
			return
		}
		deps.Log.Info("term list created", "id", list.ID, "category", list.Category, "terms", len(list.Terms))
		httputil.WriteJSON(w, http.StatusCreated, list)
	}
}

func updateTermListHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := termListID(w, r, deps.Log)
		if !ok {
			return
		}
		var req updateTermListRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid JSON body", err, http.StatusBadRequest)
			return
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			req.Name = &name
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		list, err := deps.Store.UpdateTermList(r.Context(), id, store.TermListUpdate{
			Name:        req.Name,
			Terms:       req.Terms,
			Active:      req.Active,
			Description: req.Description,
		})
		if errors.Is(err, store.ErrTermListNotFound) {
			httputil.Fail(deps.Log, w, "term list not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to update term list", err, http.StatusInternalServerError)
			return
		}
		deps.Log.Info("term list updated", "id", list.ID, "active", list.Active, "terms", len(list.Terms))
		httputil.WriteJSON(w, http.StatusOK, list)
	}
}

func deleteTermListHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := termListID(w, r, deps.Log)
		if !ok {
			return
		}
		err := deps.Store.DeleteTermList(r.Context(), id)
		if errors.Is(err, store.ErrTermListNotFound) {
			httputil.Fail(deps.Log, w, "term list not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to delete term list", err, http.StatusInternalServerError)
			return
		}
		deps.Log.Info("term list deleted", "id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func termListID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(log, w, "invalid term list id", err, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
