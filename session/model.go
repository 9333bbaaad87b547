package session

import "time"

// Identity is the authenticated user as the client knows it. Role
// carries the administrative claim consulted by the route guard's admin
// namespace; for regular members it is "member".
type Identity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Session is the client-held record of whether, and as whom, the
// current user is authenticated. A nil Identity means anonymous, and
// implies an empty Token and zero Expiry.
type Session struct {
	Identity *Identity
	Token    string
	Expiry   time.Time
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

func (s Session) clone() Session {
	out := s
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	return out
}
