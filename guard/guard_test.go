package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ridersclub/clubauth/session"
)

func anonymousStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(nil)
}

func authedStore(t *testing.T, role string) *session.Store {
	t.Helper()

	s := session.NewStore(nil)
	err := s.SetAuthenticated(context.Background(), session.Identity{
		UserID:   "u1",
		Email:    "alice@club.test",
		FullName: "Alice Rider",
		Role:     role,
	}, "tok", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SetAuthenticated failed: %v", err)
	}
	return s
}

func TestEvaluateDecisionTable(t *testing.T) {
	cases := []struct {
		name   string
		role   string // empty means anonymous
		target string
		want   Decision
		loc    string
	}{
		{"anonymous on public page", "", "/blogs", Allow, ""},
		{"anonymous on login", "", "/login", Allow, ""},
		{"anonymous on protected route", "", "/booking/track-day", RedirectToLogin, "/login"},
		{"anonymous on admin route", "", "/admin/riders", RedirectToLogin, "/login"},
		{"member on public page", "member", "/blogs", Allow, ""},
		{"member on protected route", "member", "/booking/track-day", Allow, ""},
		{"member on guest-only login", "member", "/login", RedirectAway, "/"},
		{"member on guest-only register", "member", "/register", RedirectAway, "/"},
		{"member on admin route", "member", "/admin/riders", RedirectAway, "/"},
		{"admin on admin route", "admin", "/admin/riders", Allow, ""},
		{"admin on admin root", "admin", "/admin", Allow, ""},
		{"member on lookalike path", "member", "/administration", Allow, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := anonymousStore(t)
			if tc.role != "" {
				store = authedStore(t, tc.role)
			}
			g := New(DefaultConfig(), store, nil)

			res := g.Evaluate(tc.target, "/")
			if res.Decision != tc.want {
				t.Fatalf("Decision = %v, want %v", res.Decision, tc.want)
			}
			if res.Location != tc.loc {
				t.Fatalf("Location = %q, want %q", res.Location, tc.loc)
			}
		})
	}
}

func TestRedirectToLoginCapturesIntent(t *testing.T) {
	g := New(DefaultConfig(), anonymousStore(t), nil)

	res := g.Evaluate("/booking/track-day", "/blogs")
	if res.Decision != RedirectToLogin {
		t.Fatalf("Decision = %v", res.Decision)
	}

	intent, ok := g.Intents().Consume()
	if !ok {
		t.Fatal("no intent captured")
	}
	if intent.TargetPath != "/booking/track-day" || intent.OriginatingRoute != "/blogs" {
		t.Fatalf("intent = %+v", intent)
	}

	// Consume is once only.
	if _, ok := g.Intents().Consume(); ok {
		t.Fatal("intent consumed twice")
	}
}

func TestNewCaptureReplacesPendingIntent(t *testing.T) {
	g := New(DefaultConfig(), anonymousStore(t), nil)

	g.Evaluate("/booking/track-day", "/")
	g.Evaluate("/profile/settings", "/")

	intent, ok := g.Intents().Consume()
	if !ok {
		t.Fatal("no intent captured")
	}
	if intent.TargetPath != "/profile/settings" {
		t.Fatalf("TargetPath = %q, want the later capture", intent.TargetPath)
	}
}

func TestVoluntaryNavigationDiscardsIntent(t *testing.T) {
	g := New(DefaultConfig(), anonymousStore(t), nil)

	g.Evaluate("/booking/track-day", "/")
	if !g.Intents().Pending() {
		t.Fatal("no intent captured")
	}

	// Heading to the login page keeps the intent alive.
	g.Evaluate("/login", "/")
	if !g.Intents().Pending() {
		t.Fatal("intent lost on the way to login")
	}

	// Wandering off to a public page abandons it.
	g.Evaluate("/blogs", "/login")
	if g.Intents().Pending() {
		t.Fatal("intent survived voluntary navigation")
	}
}

func TestEvaluateNormalizesPaths(t *testing.T) {
	g := New(DefaultConfig(), anonymousStore(t), nil)

	res := g.Evaluate("/booking/../booking/track-day/", "")
	if res.Decision != RedirectToLogin {
		t.Fatalf("Decision = %v, want RedirectToLogin", res.Decision)
	}
	intent, _ := g.Intents().Consume()
	if intent.TargetPath != "/booking/track-day" {
		t.Fatalf("TargetPath = %q, want cleaned path", intent.TargetPath)
	}
}

func TestMiddlewareRedirectsAndInjectsIdentity(t *testing.T) {
	store := authedStore(t, "member")
	g := New(DefaultConfig(), store, nil)

	var gotIdentity session.Identity
	var called bool
	handler := Middleware(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotIdentity, _ = IdentityFromContext(r.Context())
	}))

	// Allowed request carries the identity.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/booking/track-day", nil))
	if !called {
		t.Fatal("handler not called for allowed request")
	}
	if gotIdentity.UserID != "u1" {
		t.Fatalf("identity in context = %+v", gotIdentity)
	}

	// Guest-only request becomes a 302 to home.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("Location = %q, want %q", loc, "/")
	}
}

func TestMiddlewareRedirectsAnonymousToLogin(t *testing.T) {
	g := New(DefaultConfig(), anonymousStore(t), nil)

	handler := Middleware(g)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler called for blocked request")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Referer", "http://club.test/blogs")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("Location = %q", loc)
	}

	intent, ok := g.Intents().Consume()
	if !ok {
		t.Fatal("no intent captured by middleware")
	}
	if intent.OriginatingRoute != "/blogs" {
		t.Fatalf("OriginatingRoute = %q, want referer path", intent.OriginatingRoute)
	}
}
