package auth

import (
	"regexp"
	"strings"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Effective returns the auth config governing a request: the endpoint's own
// config when enabled, else the global settings when enabled, else nil.
func Effective(endpointCfg, global *endpoint.AuthConfig) *endpoint.AuthConfig {
	if endpointCfg != nil && endpointCfg.Enabled {
		return endpointCfg
	}
	if global != nil && global.Enabled {
		return global
	}
	return nil
}

// PathExcluded reports whether the request path matches any of the config's
// exclude globs. Globs support * (any run) and ? (single character); an
// invalid pattern excludes nothing.
func PathExcluded(cfg *endpoint.AuthConfig, path string) bool {
	for _, glob := range cfg.ExcludePaths {
		if globMatch(glob, path) {
			return true
		}
	}
	return false
}

var globReplacer = strings.NewReplacer(`\*`, ".*", `\?`, ".")

func globMatch(glob, path string) bool {
	re, err := regexp.Compile("^" + globReplacer.Replace(regexp.QuoteMeta(glob)) + "$")
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
