package session

// UserSession is the base session type: one identity, one key bundle, no
// elevated or group-scoped roles.
type UserSession struct {
	IdentityName string
	UIDValue     *uint32
	OwnKeys      KeySet
}

func (s UserSession) Identity() string { return s.IdentityName }

func (s UserSession) UID() (uint32, bool) {
	if s.UIDValue == nil {
		return 0, false
	}
	return *s.UIDValue, true
}

func (s UserSession) Keys() KeySet { return s.OwnKeys }

func (s UserSession) Roles() []GroupRole { return nil }

// RoleSudo is the purpose name a SudoSession publishes its elevated key
// bundle under.
const RoleSudo RolePurpose = "sudo"

// SudoSession wraps a UserSession with an elevated key bundle, e.g. a root
// write key unlocked only after a successful step-up auth.
type SudoSession struct {
	UserSession
	SudoKeys KeySet
}

func (s SudoSession) Roles() []GroupRole {
	return []GroupRole{{Purpose: RoleSudo, Keys: s.SudoKeys}}
}
