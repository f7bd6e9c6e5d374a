package models

// PersistedVersion is the version of the persisted session envelope.
const PersistedVersion = 0

// Session is the client's view of who is logged in.
// The credential is an opaque bearer string issued by the external API.
type Session struct {
	User  *User
	Token string
}

// IsAuthenticated is derived from the credential and never stored on its own.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// IsAdmin returns true if the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin()
}

// PersistedState is the envelope the session store writes to durable storage:
// {"state":{"token":...,"user":...,"isAuthenticated":...},"version":0}.
type PersistedState struct {
	State   PersistedSession `json:"state"`
	Version int              `json:"version"`
}

// PersistedSession is the state portion of the envelope.
type PersistedSession struct {
	Token           string `json:"token"`
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// NewPersistedState builds the envelope for a session.
func NewPersistedState(s Session) PersistedState {
	return PersistedState{
		State: PersistedSession{
			Token:           s.Token,
			User:            s.User.Clone(),
			IsAuthenticated: s.IsAuthenticated(),
		},
		Version: PersistedVersion,
	}
}

// Session converts the envelope back into a session. The stored
// isAuthenticated flag is ignored and recomputed from the token.
func (p PersistedState) Session() Session {
	return Session{
		User:  p.State.User.Clone(),
		Token: p.State.Token,
	}
}
