// Handlers for HTTP endpoint management.

package admin

import (
	"errors"
	"net/http"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/store"
)

func (a *API) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.Store.List())
}

func (a *API) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := a.deps.Store.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "endpoint not found")
			return
		}
		httputil.WriteEnvelopeError(w, http.StatusInternalServerError, "get_error", err.Error())
		return
	}
	httputil.WriteData(w, http.StatusOK, ep)
}

func (a *API) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep endpoint.Endpoint
	if err := decodeJSON(r, w, &ep); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	created, err := a.deps.Store.Create(&ep)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "duplicate_id", "endpoint with this id already exists")
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	a.log.Info("endpoint created", "id", created.ID, "method", created.Method, "path", created.Path)
	httputil.WriteData(w, http.StatusCreated, created)
}

func (a *API) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep endpoint.Endpoint
	if err := decodeJSON(r, w, &ep); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	updated, err := a.deps.Store.Update(r.PathValue("id"), &ep)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "endpoint not found")
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	a.log.Info("endpoint updated", "id", updated.ID)
	httputil.WriteData(w, http.StatusOK, updated)
}

func (a *API) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.deps.Store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "endpoint not found")
			return
		}
		httputil.WriteEnvelopeError(w, http.StatusInternalServerError, "delete_error", err.Error())
		return
	}

	a.log.Info("endpoint deleted", "id", id)
	httputil.WriteMessage(w, http.StatusOK, "endpoint deleted")
}
