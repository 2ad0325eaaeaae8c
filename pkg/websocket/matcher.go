package websocket

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/mockbird/mockbird/internal/matching"
	"github.com/mockbird/mockbird/pkg/endpoint"
)

// maxRegexCache caps the compiled-pattern cache. Patterns arrive from
// endpoint configs, so the live set is small; once edits and deletes
// have churned past the cap the cache is dropped wholesale and rebuilt
// on demand.
const maxRegexCache = 256

var (
	regexMu    sync.RWMutex
	regexCache = map[string]*regexp.Regexp{}
)

// MatchResponse scans patterns in order and returns the response of the
// first one matching the payload. A matching pattern without a response
// still wins, yielding nil.
func MatchResponse(patterns []endpoint.MessagePattern, payload []byte) (*endpoint.WSResponse, bool) {
	for i := range patterns {
		if Matches(&patterns[i], payload) {
			return patterns[i].Response, true
		}
	}
	return nil, false
}

// Matches reports whether a single pattern matches the payload.
func Matches(p *endpoint.MessagePattern, payload []byte) bool {
	text := string(payload)
	switch p.MatchType {
	case endpoint.WSMatchExact:
		return text == p.Pattern
	case endpoint.WSMatchContains:
		return strings.Contains(text, p.Pattern)
	case endpoint.WSMatchRegex:
		re, err := compileRegex(p.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	case endpoint.WSMatchJSONPath:
		return matchJSONPath(p.Pattern, payload)
	default:
		return false
	}
}

// matchJSONPath handles patterns of the form "dotted.path=expected".
// The payload must parse as JSON and carry a value at the path whose
// string form equals the expected text.
func matchJSONPath(pattern string, payload []byte) bool {
	path, expected, found := strings.Cut(pattern, "=")
	if !found || path == "" {
		return false
	}

	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return false
	}

	value, ok := matching.LookupPath(data, path)
	if !ok {
		return false
	}
	return matching.Stringify(value) == expected
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	regexMu.RLock()
	re, ok := regexCache[pattern]
	regexMu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	regexMu.Lock()
	if len(regexCache) >= maxRegexCache {
		regexCache = make(map[string]*regexp.Regexp, maxRegexCache)
	}
	regexCache[pattern] = re
	regexMu.Unlock()
	return re, nil
}
