package auth

import (
	"sync"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Settings holds the server-wide auth config. Endpoints without an
// enabled auth config of their own fall back to it; see Effective.
// Safe for concurrent use.
type Settings struct {
	mu  sync.RWMutex
	cfg *endpoint.AuthConfig
}

// NewSettings returns a holder with no global auth configured.
func NewSettings() *Settings {
	return &Settings{}
}

// Get returns a copy of the global auth config, or nil when none is
// configured.
func (s *Settings) Get() *endpoint.AuthConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Set validates and installs a new global auth config. A nil config
// clears the setting.
func (s *Settings) Set(cfg *endpoint.AuthConfig) error {
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Clone()
	return nil
}

// Clear removes the global auth config.
func (s *Settings) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = nil
}

// Configured reports whether a global auth config is present.
func (s *Settings) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg != nil
}
