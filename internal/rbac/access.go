package rbac

// HasAccess reports whether role may use an area guarded by allowed.
//
// An empty or nil allow-list is unrestricted: every role passes. Registry
// rows are checked by Validate so that no area ends up fail-open by omission.
func HasAccess(role Role, allowed []Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

// CanAccess applies HasAccess to the registered allow-list of c.
func CanAccess(role Role, c Capability) bool {
	return HasAccess(role, AllowedRoles(c))
}

// CanPerform applies HasAccess to the registered allow-list of an in-page action.
func CanPerform(role Role, a Action) bool {
	return HasAccess(role, actionTable[a])
}
