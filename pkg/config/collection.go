package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Errors returned by the collection loaders.
var (
	ErrFileNotFound = errors.New("collection file not found")
	ErrEmptyFile    = errors.New("collection file is empty")
	ErrFileExists   = errors.New("file already exists")
)

// collectionGlob selects collection files inside a directory.
const collectionGlob = "**/*.{yaml,yml,json}"

// Collection bundles endpoint definitions of all three kinds, as stored
// in a collection file.
type Collection struct {
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`

	Endpoints          []*endpoint.Endpoint          `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
	WebSocketEndpoints []*endpoint.WebSocketEndpoint `json:"websocketEndpoints,omitempty" yaml:"websocketEndpoints,omitempty"`
	GraphQLEndpoints   []*endpoint.GraphQLEndpoint   `json:"graphqlEndpoints,omitempty" yaml:"graphqlEndpoints,omitempty"`
}

// Validate checks every definition, naming the failing entry by its
// position (endpoints[2]: ...).
func (c *Collection) Validate() error {
	for i, ep := range c.Endpoints {
		if ep == nil {
			return fmt.Errorf("endpoints[%d]: definition is null", i)
		}
		if err := ep.Validate(); err != nil {
			return fmt.Errorf("endpoints[%d]: %w", i, err)
		}
	}
	for i, ws := range c.WebSocketEndpoints {
		if ws == nil {
			return fmt.Errorf("websocketEndpoints[%d]: definition is null", i)
		}
		if err := ws.Validate(); err != nil {
			return fmt.Errorf("websocketEndpoints[%d]: %w", i, err)
		}
	}
	for i, gql := range c.GraphQLEndpoints {
		if gql == nil {
			return fmt.Errorf("graphqlEndpoints[%d]: definition is null", i)
		}
		if err := gql.Validate(); err != nil {
			return fmt.Errorf("graphqlEndpoints[%d]: %w", i, err)
		}
	}
	return nil
}

// Merge appends another collection's definitions onto this one.
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	c.Endpoints = append(c.Endpoints, other.Endpoints...)
	c.WebSocketEndpoints = append(c.WebSocketEndpoints, other.WebSocketEndpoints...)
	c.GraphQLEndpoints = append(c.GraphQLEndpoints, other.GraphQLEndpoints...)
}

// Total is the number of definitions across all three kinds.
func (c *Collection) Total() int {
	return len(c.Endpoints) + len(c.WebSocketEndpoints) + len(c.GraphQLEndpoints)
}

// Load reads a collection from a file or, when path is a directory,
// from every collection file beneath it.
func Load(path string) (*Collection, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadFile reads one collection file. The format is picked by extension:
// .yaml and .yml parse as YAML, everything else as JSON.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates collection bytes. ext selects the format
// the way LoadFile does.
func Parse(data []byte, ext string) (*Collection, error) {
	var c Collection
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadDir merges every collection file beneath dir, in sorted path
// order. The first invalid file aborts the load.
func LoadDir(dir string) (*Collection, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), collectionGlob)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(matches)

	merged := &Collection{Version: "1.0", Name: "Loaded from " + dir}
	for _, rel := range matches {
		c, err := LoadFile(filepath.Join(dir, rel))
		if err != nil {
			return nil, err
		}
		merged.Merge(c)
	}
	return merged, nil
}
