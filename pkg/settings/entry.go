// Package settings holds the registry of named dispatch targets:
// persistent Settings and transient Commands, with their permissions
// and machine-state restrictions.
package settings

// Entry is the common identity of a Setting or Command. Identity is
// immutable after registration; names are compared case-insensitively.
type Entry struct {
	name        string
	legacyName  string // optional compatible alias, "" when absent
	permission  Permission
	guard       *StateGuard
	description string
}

// NewEntry builds an entry. legacyName may be empty.
func NewEntry(name, legacyName string, perm Permission, guard *StateGuard, description string) Entry {
	return Entry{
		name:        name,
		legacyName:  legacyName,
		permission:  perm,
		guard:       guard,
		description: description,
	}
}

// Name returns the canonical name.
func (e *Entry) Name() string { return e.name }

// LegacyName returns the compatible alias, "" when absent.
func (e *Entry) LegacyName() string { return e.legacyName }

// Permission returns the access permission.
func (e *Entry) Permission() Permission { return e.permission }

// Guard returns the allowed-state predicate; nil means unrestricted.
func (e *Entry) Guard() *StateGuard { return e.guard }

// Description returns the optional description, "" when absent.
func (e *Entry) Description() string { return e.description }
