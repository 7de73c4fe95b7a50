package rbac

// Role identifies a class of actor. Roles carry no rank: access is granted by
// explicit membership in an allow-list only.
type Role string

// Known roles.
const (
	RoleAdmin         Role = "ADMIN"
	RoleDealerManager Role = "DEALER_MANAGER"
	RoleDealerStaff   Role = "DEALER_STAFF"
	RoleEVMStaff      Role = "EVM_STAFF"
)

var knownRoles = []Role{RoleAdmin, RoleDealerManager, RoleDealerStaff, RoleEVMStaff}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(knownRoles))
	copy(out, knownRoles)
	return out
}

// ParseRole matches raw against the known roles by exact equality.
func ParseRole(raw string) (Role, bool) {
	for _, r := range knownRoles {
		if string(r) == raw {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string {
	return string(r)
}
