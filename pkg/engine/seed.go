package engine

import (
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// sampleResources drive the demonstration endpoints seeded into an
// empty registry.
var sampleResources = []string{"users", "products"}

// maybeSeed installs the sample set when nothing is registered and the
// environment is not production.
func (s *Server) maybeSeed() int {
	if s.cfg.Production() {
		return 0
	}
	if s.store.Count() > 0 || s.websockets.CountEndpoints() > 0 || s.graphql.Count() > 0 {
		return 0
	}
	return s.seedSamples()
}

// seedSamples creates a list and a by-id endpoint per sample resource,
// a WebSocket echo endpoint, and a GraphQL endpoint, so a fresh
// install answers something on every surface.
func (s *Server) seedSamples() int {
	caser := cases.Title(language.English)
	seeded := 0

	for _, resource := range sampleResources {
		singular := strings.TrimSuffix(resource, "s")
		label := caser.String(singular)

		list := &endpoint.Endpoint{
			ID:         "sample-" + resource,
			Method:     http.MethodGet,
			Path:       "/" + resource,
			StatusCode: http.StatusOK,
			Response: map[string]any{
				resource: []any{
					map[string]any{"id": "{{$uuid}}", "name": label + " One"},
					map[string]any{"id": "{{$uuid}}", "name": label + " Two"},
				},
				"generatedAt": "{{$isoDate}}",
			},
			Tags: []string{"sample"},
		}
		byID := &endpoint.Endpoint{
			ID:         "sample-" + singular + "-by-id",
			Method:     http.MethodGet,
			Path:       "/" + resource + "/:id",
			StatusCode: http.StatusOK,
			Response: map[string]any{
				"id":    "{{$request.path.id}}",
				"name":  "Sample " + label,
				"email": "{{$randomEmail}}",
			},
			Tags: []string{"sample"},
		}
		for _, ep := range []*endpoint.Endpoint{list, byID} {
			if _, err := s.store.Create(ep); err != nil {
				s.log.Warn("failed to seed sample endpoint", "path", ep.Path, "error", err)
				continue
			}
			seeded++
		}
	}

	echo := &endpoint.WebSocketEndpoint{
		ID:   "sample-echo",
		Path: "/echo",
		MessagePatterns: []endpoint.MessagePattern{{
			Name:      "ping",
			MatchType: endpoint.WSMatchJSONPath,
			Pattern:   "type=ping",
			Response: &endpoint.WSResponse{
				Type: "json",
				Data: map[string]any{"type": "pong"},
			},
		}},
		OnConnectMessage: &endpoint.WSResponse{
			Type: "json",
			Data: map[string]any{"type": "welcome", "service": "mockbird"},
		},
	}
	if _, err := s.websockets.CreateEndpoint(echo); err != nil {
		s.log.Warn("failed to seed sample websocket endpoint", "path", echo.Path, "error", err)
	} else {
		seeded++
	}

	gql := &endpoint.GraphQLEndpoint{
		ID:   "sample-graphql",
		Path: "/graphql",
		Resolvers: []endpoint.Resolver{{
			OperationName: "GetUsers",
			OperationType: endpoint.OperationQuery,
			ResponseData: map[string]any{
				"users": []any{
					map[string]any{"id": "1", "name": caser.String("user") + " One"},
				},
			},
		}},
		DefaultResponse: &endpoint.GraphQLResponse{
			Data: map[string]any{"service": "mockbird", "sample": true},
		},
	}
	if _, err := s.graphql.CreateEndpoint(gql); err != nil {
		s.log.Warn("failed to seed sample graphql endpoint", "path", gql.Path, "error", err)
	} else {
		seeded++
	}

	return seeded
}
