package environment

import (
	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Overlay returns the override an endpoint declares for the resolved
// environment, or nil when the feature is disabled, the endpoint has no
// override for that name, or the override is switched off.
func (s *Settings) Overlay(ep *endpoint.Endpoint, envName string) *endpoint.EnvironmentOverride {
	if !s.Enabled() || ep == nil {
		return nil
	}
	ov, ok := ep.EnvironmentOverrides[envName]
	if !ok || !ov.IsEnabled() {
		return nil
	}
	return &ov
}
