// Package environment keeps the named-environment registry and decides
// which environment a request addresses. Endpoints attach per-environment
// response overrides; the overlay only applies while the feature is
// enabled here.
package environment

import (
	"errors"
	"net/http"
	"sync"
	"time"
)

// Defaults used until the admin API reconfigures the feature.
const (
	DefaultName       = "default"
	DefaultHeaderName = "X-Mock-Environment"
	DefaultQueryParam = "mock_env"
)

var (
	// ErrNotFound means the named environment does not exist.
	ErrNotFound = errors.New("environment not found")

	// ErrExists means an environment with that name already exists.
	ErrExists = errors.New("environment already exists")

	// ErrDefaultEnvironment rejects deleting the default environment.
	ErrDefaultEnvironment = errors.New("the default environment cannot be deleted")

	// ErrEmptyName rejects environments without a name.
	ErrEmptyName = errors.New("environment name is required")
)

// Environment is one named overlay target.
type Environment struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// State is a copyable view of the settings, as served by the admin API.
type State struct {
	Enabled            bool          `json:"enabled"`
	DefaultEnvironment string        `json:"defaultEnvironment"`
	HeaderName         string        `json:"headerName"`
	QueryParam         string        `json:"queryParam"`
	Environments       []Environment `json:"environments"`
}

// Update carries a partial settings change; nil fields keep their
// current value.
type Update struct {
	Enabled            *bool   `json:"enabled,omitempty"`
	DefaultEnvironment *string `json:"defaultEnvironment,omitempty"`
	HeaderName         *string `json:"headerName,omitempty"`
	QueryParam         *string `json:"queryParam,omitempty"`
}

// Settings holds the environment registry and resolution config. Safe
// for concurrent use.
type Settings struct {
	mu           sync.RWMutex
	enabled      bool
	defaultEnv   string
	headerName   string
	queryParam   string
	environments []Environment

	now func() time.Time
}

// NewSettings returns settings in their initial state: feature
// disabled, a single default environment, standard header and query
// names.
func NewSettings() *Settings {
	s := &Settings{now: time.Now}
	s.reset()
	return s
}

func (s *Settings) reset() {
	s.enabled = false
	s.defaultEnv = DefaultName
	s.headerName = DefaultHeaderName
	s.queryParam = DefaultQueryParam
	s.environments = []Environment{{Name: DefaultName, Description: "Default environment", CreatedAt: s.now()}}
}

// Enabled reports whether overlays currently apply.
func (s *Settings) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// State returns a snapshot of the settings and registry.
func (s *Settings) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Enabled:            s.enabled,
		DefaultEnvironment: s.defaultEnv,
		HeaderName:         s.headerName,
		QueryParam:         s.queryParam,
		Environments:       append([]Environment(nil), s.environments...),
	}
}

// Apply merges a partial update into the settings. Changing the default
// environment requires the target to exist.
func (s *Settings) Apply(u Update) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.DefaultEnvironment != nil {
		if *u.DefaultEnvironment == "" {
			return State{}, ErrEmptyName
		}
		if !s.existsLocked(*u.DefaultEnvironment) {
			return State{}, ErrNotFound
		}
		s.defaultEnv = *u.DefaultEnvironment
	}
	if u.Enabled != nil {
		s.enabled = *u.Enabled
	}
	if u.HeaderName != nil && *u.HeaderName != "" {
		s.headerName = *u.HeaderName
	}
	if u.QueryParam != nil && *u.QueryParam != "" {
		s.queryParam = *u.QueryParam
	}

	return State{
		Enabled:            s.enabled,
		DefaultEnvironment: s.defaultEnv,
		HeaderName:         s.headerName,
		QueryParam:         s.queryParam,
		Environments:       append([]Environment(nil), s.environments...),
	}, nil
}

// Reset restores the initial state, dropping every environment except
// the default.
func (s *Settings) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Resolve determines the environment a request addresses: the
// configured header wins, then the query parameter, then the default
// environment. Unknown names resolve as given; overrides simply won't
// match them.
func (s *Settings) Resolve(r *http.Request) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v := r.Header.Get(s.headerName); v != "" {
		return v
	}
	if v := r.URL.Query().Get(s.queryParam); v != "" {
		return v
	}
	return s.defaultEnv
}

// List returns the registered environments in creation order.
func (s *Settings) List() []Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Environment(nil), s.environments...)
}

// Add registers a new environment.
func (s *Settings) Add(name, description string) (Environment, error) {
	if name == "" {
		return Environment{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.existsLocked(name) {
		return Environment{}, ErrExists
	}
	env := Environment{Name: name, Description: description, CreatedAt: s.now()}
	s.environments = append(s.environments, env)
	return env, nil
}

// Upsert updates an environment's description, creating the
// environment when it does not exist yet.
func (s *Settings) Upsert(name, description string) (Environment, error) {
	if name == "" {
		return Environment{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.environments {
		if s.environments[i].Name == name {
			s.environments[i].Description = description
			return s.environments[i], nil
		}
	}
	env := Environment{Name: name, Description: description, CreatedAt: s.now()}
	s.environments = append(s.environments, env)
	return env, nil
}

// Remove deletes an environment. The default environment is protected;
// if the removed environment was the configured default target, the
// default falls back to the protected one.
func (s *Settings) Remove(name string) error {
	if name == DefaultName {
		return ErrDefaultEnvironment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.environments {
		if s.environments[i].Name == name {
			s.environments = append(s.environments[:i], s.environments[i+1:]...)
			if s.defaultEnv == name {
				s.defaultEnv = DefaultName
			}
			return nil
		}
	}
	return ErrNotFound
}

// Exists reports whether an environment with the given name is
// registered.
func (s *Settings) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existsLocked(name)
}

func (s *Settings) existsLocked(name string) bool {
	for i := range s.environments {
		if s.environments[i].Name == name {
			return true
		}
	}
	return false
}
