package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults applied when the corresponding environment variables are
// unset.
const (
	DefaultPort       = 3001
	DefaultAdminToken = "dev-admin-token"

	// EnvProduction is the NODE_ENV value that suppresses sample
	// seeding.
	EnvProduction = "production"
)

// Role grants a level of access to the admin API. Viewers read, editors
// additionally mutate mock state, admins do everything.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether the role is one of admin, editor, or viewer.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Token is one admin API credential.
type Token struct {
	Name  string
	Token string
	Role  Role
}

// Config is the process configuration resolved from the environment.
type Config struct {
	// Port is the single listen port shared by mock, WebSocket,
	// GraphQL, and admin traffic.
	Port int

	// Env is the runtime environment name from NODE_ENV.
	Env string

	// TeamEnabled turns on token authentication for the admin API.
	TeamEnabled bool

	// TeamRequireAuth rejects unauthenticated admin requests. Without
	// it, requests carrying no token act with the admin role and only
	// presented tokens are checked.
	TeamRequireAuth bool

	// AdminTokens are the credentials the admin API accepts when team
	// mode is on.
	AdminTokens []Token
}

// FromEnv builds the configuration from process environment variables,
// applying defaults for anything unset.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port: DefaultPort,
		Env:  os.Getenv("NODE_ENV"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q: want a number between 1 and 65535", v)
		}
		cfg.Port = port
	}

	cfg.TeamEnabled = boolEnv("TEAM_ENABLED")
	cfg.TeamRequireAuth = boolEnv("TEAM_REQUIRE_AUTH")

	tokens, err := ParseAdminTokens(os.Getenv("ADMIN_TOKENS"), os.Getenv("ADMIN_TOKEN"))
	if err != nil {
		return nil, err
	}
	cfg.AdminTokens = tokens

	return cfg, nil
}

// Production reports whether sample seeding should be suppressed.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

func boolEnv(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

// ParseAdminTokens parses the ADMIN_TOKENS format: comma-separated
// name:token:role triples. When the variable is empty, a single admin
// credential is built from fallback (the ADMIN_TOKEN variable), or from
// the development default when that is empty too.
func ParseAdminTokens(tokensVar, fallback string) ([]Token, error) {
	if strings.TrimSpace(tokensVar) == "" {
		token := fallback
		if token == "" {
			token = DefaultAdminToken
		}
		return []Token{{Name: "default", Token: token, Role: RoleAdmin}}, nil
	}

	var tokens []Token
	for _, triple := range strings.Split(tokensVar, ",") {
		triple = strings.TrimSpace(triple)
		if triple == "" {
			continue
		}
		parts := strings.Split(triple, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid ADMIN_TOKENS entry %q: want name:token:role", triple)
		}
		t := Token{
			Name:  strings.TrimSpace(parts[0]),
			Token: strings.TrimSpace(parts[1]),
			Role:  Role(strings.TrimSpace(parts[2])),
		}
		if t.Name == "" || t.Token == "" {
			return nil, fmt.Errorf("invalid ADMIN_TOKENS entry %q: name and token must be non-empty", triple)
		}
		if !t.Role.Valid() {
			return nil, fmt.Errorf("invalid ADMIN_TOKENS entry %q: role must be admin, editor, or viewer", triple)
		}
		tokens = append(tokens, t)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("ADMIN_TOKENS is set but contains no entries")
	}
	return tokens, nil
}
