// Package cors decides which cross-origin requests reach the tool endpoint
// and decorates responses with the matching allowance headers.
//
// The default policy is fully permissive (`*` for origins, methods and
// headers). That suits a local or demo deployment and is not a trust boundary.
// Configuration may narrow the origin list but never widens past `*`.
package cors

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Wildcard allows every origin, method or header.
const Wildcard = "*"

// Decision is the outcome of Authorize.
type Decision int

const (
	Allow Decision = iota
	Reject
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "reject"
}

// Policy describes the cross-origin allowances.
// An empty list is treated as Wildcard.
type Policy struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// Permissive returns the default policy: any origin, method and header.
func Permissive() Policy {
	return Policy{
		AllowedOrigins: []string{Wildcard},
		AllowedMethods: []string{Wildcard},
		AllowedHeaders: []string{Wildcard},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         10 * time.Minute,
	}
}

// WithOrigins returns a copy of p restricted to the given origins.
// An empty list keeps p unchanged.
func (p Policy) WithOrigins(origins ...string) Policy {
	if len(origins) == 0 {
		return p
	}
	p.AllowedOrigins = slices.Clone(origins)
	return p
}

// Authorize decides whether a request may proceed to dispatch.
// Requests without an Origin header are not cross-origin and are allowed.
func (p Policy) Authorize(r *http.Request) Decision {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return Allow
	}
	if !allows(p.AllowedOrigins, origin, true) {
		return Reject
	}
	if isPreflight(r) {
		method := r.Header.Get("Access-Control-Request-Method")
		if !allows(p.AllowedMethods, method, false) {
			return Reject
		}
		for _, h := range requestedHeaders(r) {
			if !allows(p.AllowedHeaders, h, true) {
				return Reject
			}
		}
	}
	return Allow
}

// Middleware applies the policy in front of next. Rejected requests get 403
// and preflights are answered directly; neither reaches next.
func (p Policy) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p.Authorize(r) == Reject {
				logger.Warn("CORS: request rejected", "origin", r.Header.Get("Origin"), "method", r.Method, "path", r.URL.Path)
				http.Error(w, "cross-origin request rejected", http.StatusForbidden)
				return
			}

			p.writeHeaders(w, r)
			if isPreflight(r) {
				logger.Debug("CORS: preflight answered", "origin", r.Header.Get("Origin"), "path", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p Policy) writeHeaders(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	if isWildcard(p.AllowedOrigins) {
		h.Set("Access-Control-Allow-Origin", Wildcard)
	} else if origin := r.Header.Get("Origin"); origin != "" {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
	h.Set("Access-Control-Allow-Methods", joinOrWildcard(p.AllowedMethods))
	h.Set("Access-Control-Allow-Headers", joinOrWildcard(p.AllowedHeaders))
	if len(p.ExposedHeaders) > 0 {
		h.Set("Access-Control-Expose-Headers", strings.Join(p.ExposedHeaders, ", "))
	}
	if isPreflight(r) && p.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(int(p.MaxAge.Seconds())))
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

func requestedHeaders(r *http.Request) []string {
	raw := r.Header.Get("Access-Control-Request-Headers")
	if raw == "" {
		return nil
	}
	var out []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func isWildcard(list []string) bool {
	return len(list) == 0 || slices.Contains(list, Wildcard)
}

func allows(list []string, value string, foldCase bool) bool {
	if isWildcard(list) {
		return true
	}
	for _, v := range list {
		if v == value || (foldCase && strings.EqualFold(v, value)) {
			return true
		}
	}
	return false
}

func joinOrWildcard(list []string) string {
	if isWildcard(list) {
		return Wildcard
	}
	return strings.Join(list, ", ")
}
