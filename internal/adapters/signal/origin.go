package signal

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// NormalizeOrigin reduces an origin to lower-case scheme://host[:port].
func NormalizeOrigin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// CheckOrigin builds a websocket origin check. "*" allows everything.
// Requests without an Origin header (non-browser clients) always pass.
func CheckOrigin(allowed []string) func(*http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		if n := NormalizeOrigin(a); n != "" {
			set[n] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		n := NormalizeOrigin(origin)
		if _, ok := set[n]; ok {
			return true
		}
		// same-origin pages are always accepted
		if u, err := url.Parse(n); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		log.Warn().Str("module", "signal").Str("origin", origin).Msg("origin rejected")
		return false
	}
}
