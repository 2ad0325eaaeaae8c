package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// composeResponse resolves the status, body, and delay for a request.
// Sources apply lowest-precedence first, so a conditional response
// beats the environment overlay and a scenario pick beats both; fields
// a source leaves unset fall through to the next level down.
func composeResponse(ep *endpoint.Endpoint, chosen *endpoint.ScenarioResponse, conditional *endpoint.ConditionalResponse, overlay *endpoint.EnvironmentOverride) (int, any, *endpoint.Delay) {
	status := ep.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	data := ep.Response
	delay := ep.Delay

	if overlay != nil {
		if overlay.Status > 0 {
			status = overlay.Status
		}
		if overlay.Body != nil {
			data = overlay.Body
		}
		if overlay.Delay != nil {
			delay = overlay.Delay
		}
	}
	if conditional != nil {
		if conditional.Status > 0 {
			status = conditional.Status
		}
		if conditional.Body != nil {
			data = conditional.Body
		}
		if conditional.Delay != nil {
			delay = conditional.Delay
		}
	}
	if chosen != nil {
		if chosen.Status > 0 {
			status = chosen.Status
		}
		if chosen.Body != nil {
			data = chosen.Body
		}
		if chosen.Delay != nil {
			delay = chosen.Delay
		}
	}
	return status, data, delay
}

// waitDelay sleeps for the configured delay, aborting when the request
// context is cancelled.
func waitDelay(ctx context.Context, d *endpoint.Delay) error {
	if d == nil {
		return nil
	}
	wait := d.Duration()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
