package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy is the normalized WebSocket origin allow-list.
type originPolicy struct {
	allowAll bool
	origins  []string
	allowed  map[string]struct{}
}

// newOriginPolicy normalizes origins to lowercase scheme://host. The entry
// "*" allows every origin; invalid entries are logged and dropped.
func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			p.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Printf("Ignoring invalid origin in configuration: %q", origin)
			continue
		}
		if _, dup := p.allowed[normalized]; dup {
			continue
		}
		p.allowed[normalized] = struct{}{}
		p.origins = append(p.origins, normalized)
	}
	return p
}

// list returns the configured origins in their normalized form, keeping "*"
// when present.
func (p originPolicy) list() []string {
	out := append([]string(nil), p.origins...)
	if p.allowAll {
		out = append(out, "*")
	}
	return out
}

// allows reports whether an Origin header value may open a WebSocket. A
// missing or unparsable origin is never allowed.
func (p originPolicy) allows(origin string) bool {
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	if p.allowAll {
		return true
	}
	_, exists := p.allowed[normalized]
	return exists
}

func normalizeOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if currentPolicy().allows(origin) {
		return true
	}

	log.Printf("Blocked WebSocket connection from disallowed origin: %q", origin)
	return false
}
