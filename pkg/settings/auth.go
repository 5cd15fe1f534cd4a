package settings

// AuthLevel is the caller's authentication level. Levels are ordered:
// Guest < User < Admin.
type AuthLevel int

const (
	Guest AuthLevel = iota
	User
	Admin
)

// String returns the display name of the level.
func (a AuthLevel) String() string {
	switch a {
	case Guest:
		return "guest"
	case User:
		return "user"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}

// Permission gates entry access by authentication level.
type Permission int

const (
	// GuestReadWrite: readable and writable by anyone.
	GuestReadWrite Permission = iota

	// UserReadWrite: readable and writable by user and admin.
	UserReadWrite

	// AdminOnlyWrite: readable by user and admin, writable by admin.
	AdminOnlyWrite
)

// Tag returns the permission tag used in listing output.
func (p Permission) Tag() string {
	switch p {
	case GuestReadWrite:
		return "WG"
	case UserReadWrite:
		return "WU"
	case AdminOnlyWrite:
		return "WA"
	default:
		return "??"
	}
}

// RedactedValue is displayed in place of a value the caller may not read.
const RedactedValue = "<Authentication required>"

// AuthFailed decides whether the caller's level denies the operation.
// isWrite distinguishes set (value present) from display (value absent).
// When authentication is globally disabled the dispatcher passes Admin,
// so the gate always passes.
func AuthFailed(perm Permission, level AuthLevel, isWrite bool) bool {
	switch level {
	case Admin:
		return false
	case Guest:
		return perm != GuestReadWrite
	case User:
		if !isWrite {
			return false
		}
		return perm == AdminOnlyWrite
	default:
		return true
	}
}
