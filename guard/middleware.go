package guard

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ridersclub/clubauth/session"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity stashed by [Middleware] for
// an allowed, authenticated request.
func IdentityFromContext(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(session.Identity)
	return id, ok
}

// Middleware adapts the guard to net/http. Redirect decisions become
// 302 responses; allowed authenticated requests carry the identity in
// the request context.
func Middleware(g *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "misconfigured guard", http.StatusInternalServerError)
				return
			}

			res := g.Evaluate(r.URL.Path, refererPath(r))
			if res.Decision != Allow {
				http.Redirect(w, r, res.Location, http.StatusFound)
				return
			}

			sess := g.sessions.Current()
			if sess.Identity != nil {
				ctx := context.WithValue(r.Context(), identityContextKey{}, *sess.Identity)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func refererPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return u.Path
}
