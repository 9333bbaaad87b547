// Package guard decides, per navigation event, whether a route is
// reachable given the current session, and where to send the user when
// it is not. Unauthorized navigation is never a user-visible error; it
// is a silent redirect.
package guard

import (
	"path"
	"strings"

	"github.com/ridersclub/clubauth/session"
)

// Decision classifies the outcome of evaluating one navigation.
type Decision uint8

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota
	// RedirectToLogin sends an anonymous user to the login route,
	// capturing a NavigationIntent for the post-login redirect.
	RedirectToLogin
	// RedirectAway sends the user to a non-privileged destination. Used
	// for authenticated users on guest-only routes, and for authenticated
	// users missing the admin claim: the failure there is authorization,
	// not authentication, so login is never the answer.
	RedirectAway
)

// Result is a decision plus, for the redirect cases, the destination.
type Result struct {
	Decision Decision
	Location string
}

// Config is the route table the guard evaluates against.
type Config struct {
	// ProtectedPrefixes are path prefixes that require an authenticated
	// session, e.g. "/booking".
	ProtectedPrefixes []string
	// GuestOnlyPaths are exact paths an authenticated user is redirected
	// away from, e.g. "/login", "/register".
	GuestOnlyPaths []string
	// AdminPrefix is the namespace that additionally requires AdminRole
	// on the identity. Empty disables the admin namespace.
	AdminPrefix string
	// AdminRole is the role claim required under AdminPrefix.
	AdminRole string
	// LoginPath is the RedirectToLogin destination.
	LoginPath string
	// HomePath is the RedirectAway destination.
	HomePath string
}

// DefaultConfig matches the club site's route layout.
func DefaultConfig() Config {
	return Config{
		ProtectedPrefixes: []string{"/booking", "/profile"},
		GuestOnlyPaths:    []string{"/login", "/register", "/forgot-password"},
		AdminPrefix:       "/admin",
		AdminRole:         "admin",
		LoginPath:         "/login",
		HomePath:          "/",
	}
}

// Guard evaluates navigations against a route table and the session
// store, capturing navigation intents as a side effect.
type Guard struct {
	cfg      Config
	sessions *session.Store
	intents  *IntentStore
}

// New creates a guard. sessions is required; a nil intents gets a fresh
// store.
func New(cfg Config, sessions *session.Store, intents *IntentStore) *Guard {
	if intents == nil {
		intents = NewIntentStore()
	}
	return &Guard{cfg: cfg, sessions: sessions, intents: intents}
}

// Intents exposes the intent store so the login flow can consume the
// captured target.
func (g *Guard) Intents() *IntentStore {
	return g.intents
}

// Evaluate decides whether the navigation from origin to target may
// proceed. Side effects: a RedirectToLogin captures a NavigationIntent;
// an anonymous user voluntarily navigating to an allowed page that is
// not part of the login flow discards any pending intent.
func (g *Guard) Evaluate(target, origin string) Result {
	target = normalizePath(target)
	sess := g.sessions.Current()

	if sess.Authenticated() {
		if g.isGuestOnly(target) {
			return Result{Decision: RedirectAway, Location: g.cfg.HomePath}
		}
		if g.inAdminNamespace(target) && !g.hasAdminClaim(sess) {
			return Result{Decision: RedirectAway, Location: g.cfg.HomePath}
		}
		return Result{Decision: Allow}
	}

	if g.inAdminNamespace(target) || g.isProtected(target) {
		g.intents.Capture(target, normalizePath(origin))
		return Result{Decision: RedirectToLogin, Location: g.cfg.LoginPath}
	}

	if target != g.cfg.LoginPath && !g.isGuestOnly(target) {
		g.intents.Discard()
	}
	return Result{Decision: Allow}
}

func (g *Guard) isProtected(p string) bool {
	for _, prefix := range g.cfg.ProtectedPrefixes {
		if hasPathPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (g *Guard) isGuestOnly(p string) bool {
	for _, guest := range g.cfg.GuestOnlyPaths {
		if p == normalizePath(guest) {
			return true
		}
	}
	return false
}

func (g *Guard) inAdminNamespace(p string) bool {
	return g.cfg.AdminPrefix != "" && hasPathPrefix(p, g.cfg.AdminPrefix)
}

func (g *Guard) hasAdminClaim(sess session.Session) bool {
	return sess.Identity != nil && sess.Identity.Role == g.cfg.AdminRole
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// hasPathPrefix matches whole path segments: "/admin" covers "/admin"
// and "/admin/users" but not "/administration".
func hasPathPrefix(p, prefix string) bool {
	prefix = normalizePath(prefix)
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}
