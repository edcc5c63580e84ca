package huddle

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/ekv"
)

// sessionKey is the namespaced storage key for the persisted auth
// slice. It is the only state that survives a restart; chat and
// message data is never persisted.
const sessionKey = "huddle/auth/session"

// Session is the persisted auth slice restored at startup.
type Session struct {
	User                   User `json:"user"`
	IsAuthenticated        bool `json:"isAuthenticated"`
	HasCompletedOnboarding bool `json:"hasCompletedOnboarding"`
}

// SessionStore persists the auth slice through a key-value backend:
// an ekv Filestore in the app, a Memstore in tests.
type SessionStore struct {
	kv ekv.KeyValue
}

// NewSessionStore wraps a key-value backend.
func NewSessionStore(kv ekv.KeyValue) *SessionStore {
	return &SessionStore{kv: kv}
}

// Save writes the session.
func (ss *SessionStore) Save(s Session) error {
	return errors.Wrap(ss.kv.SetInterface(sessionKey, &s), "save session")
}

// Load restores the session. The second return is false when no
// session has ever been saved.
func (ss *SessionStore) Load() (Session, bool, error) {
	var s Session
	err := ss.kv.GetInterface(sessionKey, &s)
	if err != nil {
		if !ekv.Exists(err) {
			return Session{}, false, nil
		}
		return Session{}, false, errors.Wrap(err, "load session")
	}
	return s, true, nil
}

// Clear removes the persisted session (logout).
func (ss *SessionStore) Clear() error {
	err := ss.kv.Delete(sessionKey)
	if err != nil && !ekv.Exists(err) {
		return nil
	}
	return errors.Wrap(err, "clear session")
}
