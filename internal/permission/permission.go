package permission

import "fmt"

// Permission is the access level a caller holds on a calendar or
// sub-calendar. Values serialize as lowercase snake_case and are stored
// as-is in the database.
type Permission string

const (
	NoAccess          Permission = "no_access"
	ReadOnlyNoDetails Permission = "read_only_no_details"
	ReadOnly          Permission = "read_only"
	AddOnly           Permission = "add_only"
	ModifyOwn         Permission = "modify_own"
	Modify            Permission = "modify"
	Administrator     Permission = "administrator"
)

// order is the total order over levels, lowest first.
var order = []Permission{
	NoAccess,
	ReadOnlyNoDetails,
	ReadOnly,
	AddOnly,
	ModifyOwn,
	Modify,
	Administrator,
}

var ranks = func() map[Permission]int {
	m := make(map[Permission]int, len(order))
	for i, p := range order {
		m[p] = i
	}
	return m
}()

// Level returns the stable integer rank of p. Unknown values rank below
// NoAccess so a corrupted stored value never grants anything.
func Level(p Permission) int {
	if r, ok := ranks[p]; ok {
		return r
	}
	return -1
}

// Valid reports whether p is one of the seven known levels.
func Valid(p Permission) bool {
	_, ok := ranks[p]
	return ok
}

// Parse converts a wire string into a Permission.
func Parse(s string) (Permission, error) {
	p := Permission(s)
	if !Valid(p) {
		return NoAccess, fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// Highest reduces a set of permissions to the maximum by rank.
// An empty set yields NoAccess.
func Highest(perms []Permission) Permission {
	best := NoAccess
	for _, p := range perms {
		if Level(p) > Level(best) {
			best = p
		}
	}
	return best
}

// CanReadLimited reports whether p allows seeing that events exist
// (times only, details masked).
func CanReadLimited(p Permission) bool {
	return Level(p) >= Level(ReadOnlyNoDetails)
}

// CanRead reports whether p allows full read access.
func CanRead(p Permission) bool {
	return Level(p) >= Level(ReadOnly)
}

// CanAdd reports whether p allows creating events and signups.
func CanAdd(p Permission) bool {
	return Level(p) >= Level(AddOnly)
}

// CanModifyOwn reports whether p allows editing entities the caller authored.
func CanModifyOwn(p Permission) bool {
	return Level(p) >= Level(ModifyOwn)
}

// CanModify reports whether p allows editing any entity in scope.
func CanModify(p Permission) bool {
	return Level(p) >= Level(Modify)
}

// IsAdministrator reports whether p is exactly Administrator. This is an
// identity check, not a threshold, so adding levels above Administrator
// would not silently widen it.
func IsAdministrator(p Permission) bool {
	return p == Administrator
}
