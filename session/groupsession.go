package session

// GroupSession wraps a UserSession with one key bundle per group the caller
// belongs to, each scoped to its own RolePurpose (the group's name). Adding
// a caller to a group is, structurally, handing them a GroupRole whose keys
// were unwrapped from the group's delegated crypto.MultiEncryptedSecureData.
type GroupSession struct {
	UserSession
	GroupRoles []GroupRole
}

func (s GroupSession) Roles() []GroupRole { return s.GroupRoles }

// WithRole returns a copy of s with an additional role appended, e.g. after
// successfully unwrapping a newly-delegated group key.
func (s GroupSession) WithRole(role GroupRole) GroupSession {
	roles := make([]GroupRole, len(s.GroupRoles), len(s.GroupRoles)+1)
	copy(roles, s.GroupRoles)
	roles = append(roles, role)
	return GroupSession{UserSession: s.UserSession, GroupRoles: roles}
}
