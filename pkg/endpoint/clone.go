package endpoint

// CloneValue deep-copies a decoded JSON value (maps, slices, scalars).
// Scalars are returned as-is since they are immutable.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = CloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = CloneValue(val)
		}
		return s
	default:
		return v
	}
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBoolPtr(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneDelay(d *Delay) *Delay {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// Clone returns a deep copy. The store hands out clones so callers can
// never mutate shared state.
func (e *Endpoint) Clone() *Endpoint {
	if e == nil {
		return nil
	}
	out := *e
	out.Response = CloneValue(e.Response)
	out.ResponseHeaders = cloneStringMap(e.ResponseHeaders)
	out.Delay = cloneDelay(e.Delay)

	if e.ConditionalResponses != nil {
		out.ConditionalResponses = make([]ConditionalResponse, len(e.ConditionalResponses))
		for i, cr := range e.ConditionalResponses {
			c := cr
			c.Conditions = append([]Condition(nil), cr.Conditions...)
			c.Body = CloneValue(cr.Body)
			c.Delay = cloneDelay(cr.Delay)
			out.ConditionalResponses[i] = c
		}
	}

	if e.ScenarioConfig != nil {
		sc := *e.ScenarioConfig
		sc.Loop = cloneBoolPtr(e.ScenarioConfig.Loop)
		sc.Responses = make([]ScenarioResponse, len(e.ScenarioConfig.Responses))
		for i, sr := range e.ScenarioConfig.Responses {
			r := sr
			r.Body = CloneValue(sr.Body)
			r.Delay = cloneDelay(sr.Delay)
			sc.Responses[i] = r
		}
		out.ScenarioConfig = &sc
	}

	if e.ProxyConfig != nil {
		pc := *e.ProxyConfig
		pc.PathRewrite = append(PathRewrites(nil), e.ProxyConfig.PathRewrite...)
		pc.Headers = cloneStringMap(e.ProxyConfig.Headers)
		out.ProxyConfig = &pc
	}

	out.AuthConfig = e.AuthConfig.Clone()

	if e.RateLimitConfig != nil {
		rl := *e.RateLimitConfig
		rl.ErrorResponse = CloneValue(e.RateLimitConfig.ErrorResponse)
		out.RateLimitConfig = &rl
	}

	if e.EnvironmentOverrides != nil {
		out.EnvironmentOverrides = make(map[string]EnvironmentOverride, len(e.EnvironmentOverrides))
		for name, ov := range e.EnvironmentOverrides {
			o := ov
			o.Enabled = cloneBoolPtr(ov.Enabled)
			o.Body = CloneValue(ov.Body)
			o.Delay = cloneDelay(ov.Delay)
			out.EnvironmentOverrides[name] = o
		}
	}

	if e.Validation != nil {
		v := *e.Validation
		v.Required = append([]string(nil), e.Validation.Required...)
		v.Schema = CloneValue(e.Validation.Schema)
		out.Validation = &v
	}

	out.Tags = append([]string(nil), e.Tags...)
	return &out
}

// Clone returns a deep copy of the auth config.
func (a *AuthConfig) Clone() *AuthConfig {
	if a == nil {
		return nil
	}
	out := *a
	out.ExcludePaths = append([]string(nil), a.ExcludePaths...)
	out.ErrorResponse = CloneValue(a.ErrorResponse)
	if a.Bearer != nil {
		b := *a.Bearer
		b.ValidTokens = append([]string(nil), a.Bearer.ValidTokens...)
		out.Bearer = &b
	}
	if a.JWT != nil {
		j := *a.JWT
		j.RequiredClaims = append([]string(nil), a.JWT.RequiredClaims...)
		j.ValidIssuers = append([]string(nil), a.JWT.ValidIssuers...)
		j.ValidAudiences = append([]string(nil), a.JWT.ValidAudiences...)
		out.JWT = &j
	}
	if a.APIKey != nil {
		k := *a.APIKey
		k.ValidKeys = append([]string(nil), a.APIKey.ValidKeys...)
		out.APIKey = &k
	}
	if a.Basic != nil {
		b := *a.Basic
		b.Credentials = cloneStringMap(a.Basic.Credentials)
		out.Basic = &b
	}
	return &out
}

func cloneWSResponse(r *WSResponse) *WSResponse {
	if r == nil {
		return nil
	}
	out := *r
	out.Data = CloneValue(r.Data)
	return &out
}

// Clone returns a deep copy.
func (w *WebSocketEndpoint) Clone() *WebSocketEndpoint {
	if w == nil {
		return nil
	}
	out := *w
	out.Active = cloneBoolPtr(w.Active)

	if w.MessagePatterns != nil {
		out.MessagePatterns = make([]MessagePattern, len(w.MessagePatterns))
		for i, mp := range w.MessagePatterns {
			p := mp
			p.Response = cloneWSResponse(mp.Response)
			out.MessagePatterns[i] = p
		}
	}

	out.OnConnectMessage = cloneWSResponse(w.OnConnectMessage)
	out.OnDisconnectMessage = cloneWSResponse(w.OnDisconnectMessage)

	if w.ScheduledMessages != nil {
		out.ScheduledMessages = make([]ScheduledMessage, len(w.ScheduledMessages))
		for i, sm := range w.ScheduledMessages {
			s := sm
			s.Enabled = cloneBoolPtr(sm.Enabled)
			s.Response = cloneWSResponse(sm.Response)
			out.ScheduledMessages[i] = s
		}
	}
	return &out
}

// Clone returns a deep copy.
func (g *GraphQLEndpoint) Clone() *GraphQLEndpoint {
	if g == nil {
		return nil
	}
	out := *g
	out.Active = cloneBoolPtr(g.Active)

	if g.Resolvers != nil {
		out.Resolvers = make([]Resolver, len(g.Resolvers))
		for i, r := range g.Resolvers {
			c := r
			c.VariablesMatch = cloneVariables(r.VariablesMatch)
			c.ResponseData = CloneValue(r.ResponseData)
			c.Errors = cloneGraphQLErrors(r.Errors)
			c.Enabled = cloneBoolPtr(r.Enabled)
			out.Resolvers[i] = c
		}
	}

	if g.DefaultResponse != nil {
		dr := GraphQLResponse{
			Data:   CloneValue(g.DefaultResponse.Data),
			Errors: cloneGraphQLErrors(g.DefaultResponse.Errors),
		}
		out.DefaultResponse = &dr
	}
	return &out
}

func cloneVariables(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

func cloneGraphQLErrors(errs []GraphQLError) []GraphQLError {
	if errs == nil {
		return nil
	}
	out := make([]GraphQLError, len(errs))
	for i, e := range errs {
		c := e
		c.Path = append([]any(nil), e.Path...)
		if e.Extensions != nil {
			c.Extensions = make(map[string]any, len(e.Extensions))
			for k, v := range e.Extensions {
				c.Extensions[k] = CloneValue(v)
			}
		}
		out[i] = c
	}
	return out
}
