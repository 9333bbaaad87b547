package clubauth

import "github.com/ridersclub/clubauth/session"

// RegistrationInput carries the registration form. FullName, Email, and
// Password are required; Profile is passed through to the service
// untouched (bike model, chapter, emergency contact, and so on).
type RegistrationInput struct {
	FullName string
	Email    string
	Password string
	Profile  map[string]string
}

// LoginResult is returned by [Engine.Login] on success. RedirectTo is
// the consumed NavigationIntent target when one was pending, else the
// configured post-login path.
type LoginResult struct {
	Identity   session.Identity
	RedirectTo string
}
