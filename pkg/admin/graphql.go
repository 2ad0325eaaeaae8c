// Handlers for GraphQL endpoints, resolvers, and operation logs.

package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/graphql"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/requestlog"
)

func (a *API) handleListGraphQLEndpoints(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.GraphQL.ListEndpoints())
}

func (a *API) handleGetGraphQLEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := a.deps.GraphQL.GetEndpoint(r.PathValue("id"))
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "graphql endpoint not found")
		return
	}
	httputil.WriteData(w, http.StatusOK, ep)
}

func (a *API) handleCreateGraphQLEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep endpoint.GraphQLEndpoint
	if err := decodeJSON(r, w, &ep); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	created, err := a.deps.GraphQL.CreateEndpoint(&ep)
	if err != nil {
		switch {
		case errors.Is(err, graphql.ErrEndpointExists), errors.Is(err, graphql.ErrPathTaken):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "conflict", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	a.log.Info("graphql endpoint created", "id", created.ID, "path", created.Path)
	httputil.WriteData(w, http.StatusCreated, created)
}

func (a *API) handleUpdateGraphQLEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep endpoint.GraphQLEndpoint
	if err := decodeJSON(r, w, &ep); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	updated, err := a.deps.GraphQL.UpdateEndpoint(r.PathValue("id"), &ep)
	if err != nil {
		switch {
		case errors.Is(err, graphql.ErrEndpointNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "graphql endpoint not found")
		case errors.Is(err, graphql.ErrPathTaken):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "conflict", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	httputil.WriteData(w, http.StatusOK, updated)
}

func (a *API) handleDeleteGraphQLEndpoint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.deps.GraphQL.DeleteEndpoint(id); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "graphql endpoint not found")
		return
	}

	a.log.Info("graphql endpoint deleted", "id", id)
	httputil.WriteMessage(w, http.StatusOK, "graphql endpoint deleted")
}

func (a *API) handleAddResolver(w http.ResponseWriter, r *http.Request) {
	var resolver endpoint.Resolver
	if err := decodeJSON(r, w, &resolver); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	ep, err := a.deps.GraphQL.AddResolver(r.PathValue("id"), resolver)
	if err != nil {
		switch {
		case errors.Is(err, graphql.ErrEndpointNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "graphql endpoint not found")
		case errors.Is(err, graphql.ErrResolverExists):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "conflict", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	httputil.WriteData(w, http.StatusCreated, ep)
}

func (a *API) handleUpdateResolver(w http.ResponseWriter, r *http.Request) {
	var resolver endpoint.Resolver
	if err := decodeJSON(r, w, &resolver); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	ep, err := a.deps.GraphQL.UpdateResolver(r.PathValue("id"), r.PathValue("name"), resolver)
	if err != nil {
		switch {
		case errors.Is(err, graphql.ErrEndpointNotFound), errors.Is(err, graphql.ErrResolverNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	httputil.WriteData(w, http.StatusOK, ep)
}

func (a *API) handleDeleteResolver(w http.ResponseWriter, r *http.Request) {
	ep, err := a.deps.GraphQL.DeleteResolver(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	httputil.WriteData(w, http.StatusOK, ep)
}

func (a *API) handleListGraphQLLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &requestlog.OperationFilter{
		EndpointID:    q.Get("endpointId"),
		OperationType: q.Get("operationType"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative number")
			return
		}
		filter.Limit = limit
	}

	httputil.WriteData(w, http.StatusOK, a.deps.GraphQL.Log().List(filter))
}

func (a *API) handleClearGraphQLLogs(w http.ResponseWriter, r *http.Request) {
	a.deps.GraphQL.Log().Clear()
	httputil.WriteMessage(w, http.StatusOK, "graphql logs cleared")
}
