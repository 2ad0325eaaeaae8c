// Handlers for environment settings and the environment registry.

package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mockbird/mockbird/pkg/environment"
	"github.com/mockbird/mockbird/pkg/httputil"
)

func (a *API) handleGetEnvironmentSettings(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.Environments.State())
}

func (a *API) handlePutEnvironmentSettings(w http.ResponseWriter, r *http.Request) {
	var update environment.Update
	if err := decodeJSON(r, w, &update); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	state, err := a.deps.Environments.Apply(update)
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	a.log.Info("environment settings updated", "enabled", state.Enabled, "default", state.DefaultEnvironment)
	httputil.WriteData(w, http.StatusOK, state)
}

func (a *API) handleResetEnvironmentSettings(w http.ResponseWriter, r *http.Request) {
	a.deps.Environments.Reset()
	a.log.Info("environment settings reset")
	httputil.WriteMessage(w, http.StatusOK, "environment settings reset to defaults")
}

func (a *API) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.Environments.List())
}

// environmentRequest is the body for creating or updating an
// environment.
type environmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) handleAddEnvironment(w http.ResponseWriter, r *http.Request) {
	var req environmentRequest
	if err := decodeJSON(r, w, &req); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	env, err := a.deps.Environments.Add(strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, environment.ErrExists):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "duplicate_name", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	a.log.Info("environment added", "name", env.Name)
	httputil.WriteData(w, http.StatusCreated, env)
}

func (a *API) handleUpdateEnvironment(w http.ResponseWriter, r *http.Request) {
	var req environmentRequest
	if err := decodeJSON(r, w, &req); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	// The path segment names the environment; the body only carries
	// the description.
	env, err := a.deps.Environments.Upsert(r.PathValue("name"), req.Description)
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	httputil.WriteData(w, http.StatusOK, env)
}

func (a *API) handleRemoveEnvironment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.deps.Environments.Remove(name); err != nil {
		switch {
		case errors.Is(err, environment.ErrNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, environment.ErrDefaultEnvironment):
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "protected", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusInternalServerError, "delete_error", err.Error())
		}
		return
	}

	a.log.Info("environment removed", "name", name)
	httputil.WriteMessage(w, http.StatusOK, "environment removed")
}
