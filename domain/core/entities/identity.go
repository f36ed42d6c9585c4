package entities

// Identity is the authenticated user as observed from the auth provider.
// It is immutable once observed; a nil *Identity denotes "no active
// session".
type Identity struct {
	ID          string
	DisplayName string
	Email       string
}

// Equals compares identities by id, which is the only field session
// scoping cares about
func (i *Identity) Equals(other *Identity) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.ID == other.ID
}
