package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAccessMembership(t *testing.T) {
	for _, c := range Capabilities() {
		allowed := AllowedRoles(c)
		for _, role := range Roles() {
			want := false
			for _, a := range allowed {
				if a == role {
					want = true
				}
			}
			assert.Equal(t, want, HasAccess(role, allowed), "role %s on %s", role, c)
		}
	}
}

func TestHasAccessFailsOpenOnEmptyAllowList(t *testing.T) {
	for _, role := range append(Roles(), Role("SOMETHING_ELSE"), Role("")) {
		assert.True(t, HasAccess(role, nil), "nil allow-list for %q", role)
		assert.True(t, HasAccess(role, []Role{}), "empty allow-list for %q", role)
	}
}

func TestHasAccessIsExactEquality(t *testing.T) {
	allowed := []Role{RoleAdmin}
	assert.False(t, HasAccess(Role("admin"), allowed))
	assert.False(t, HasAccess(Role("ADMIN "), allowed))
	assert.True(t, HasAccess(RoleAdmin, allowed))
}

func TestCanAccessUnknownCapabilityIsUnrestricted(t *testing.T) {
	assert.True(t, CanAccess(RoleDealerStaff, Capability("reports")))
}

func TestEVMStaffOnCategories(t *testing.T) {
	assert.True(t, HasAccess(RoleEVMStaff, AllowedRoles(CapCategories)))
	assert.Equal(t, DecisionRender, Decide(RoleEVMStaff, true, CapCategories))
}

func TestCanPerform(t *testing.T) {
	assert.True(t, CanPerform(RoleDealerStaff, ActionOrderVehicle))
	assert.False(t, CanPerform(RoleEVMStaff, ActionOrderVehicle))
	assert.False(t, CanPerform(RoleEVMStaff, ActionCreateContract))
	assert.True(t, CanPerform(RoleAdmin, ActionCreateContract))
}
