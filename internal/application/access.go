package application

// AccessLevel is the minimum privilege an operation requires.
type AccessLevel int

const (
	// AccessPublic admits anonymous callers.
	AccessPublic AccessLevel = iota
	// AccessAuthenticated requires a session.
	AccessAuthenticated
	// AccessAdmin requires a session whose role is admin.
	AccessAdmin
)

// Authorize evaluates the gate for level. A missing session is always reported
// as ErrUnauthenticated before the role is considered.
func Authorize(principal Principal, level AccessLevel) error {
	if level >= AccessAuthenticated && !principal.Authenticated() {
		return ErrUnauthenticated
	}
	if level >= AccessAdmin && !principal.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
