package rbac

import (
	"errors"
	"fmt"
)

// Capability names a protected area of the dashboard. The value doubles as
// the URL segment under /dashboard.
type Capability string

// Dashboard areas.
const (
	CapVehicles   Capability = "car"
	CapCategories Capability = "category"
	CapContracts  Capability = "contract"
	CapCustomers  Capability = "customer"
	CapTestDrives Capability = "testDrive"
	CapAccounts   Capability = "accounts"
)

// DefaultCapability is where a bare /dashboard visit lands.
const DefaultCapability = CapVehicles

// Action names an operation inside an area that is gated separately from
// entering the area.
type Action string

// In-page actions.
const (
	ActionOrderVehicle   Action = "vehicle.order"
	ActionCreateContract Action = "contract.create"
)

// accessTable is the single capability to allow-list mapping consumed by both
// the navigation guard and the menu builder.
var accessTable = map[Capability][]Role{
	CapVehicles:   {RoleAdmin, RoleDealerManager, RoleDealerStaff, RoleEVMStaff},
	CapCategories: {RoleAdmin, RoleEVMStaff},
	CapContracts:  {RoleAdmin, RoleDealerManager, RoleDealerStaff},
	CapCustomers:  {RoleAdmin, RoleDealerManager, RoleDealerStaff},
	CapTestDrives: {RoleAdmin, RoleDealerManager, RoleDealerStaff},
	CapAccounts:   {RoleAdmin},
}

// menuPriority fixes the display order of the areas.
var menuPriority = []Capability{
	CapVehicles,
	CapCategories,
	CapContracts,
	CapCustomers,
	CapTestDrives,
	CapAccounts,
}

var labels = map[Capability]string{
	CapVehicles:   "Manage Car",
	CapCategories: "Manage Category",
	CapContracts:  "Manage Contract",
	CapCustomers:  "Manage Customers",
	CapTestDrives: "Manage TestDrive",
	CapAccounts:   "Manage Accounts",
}

var actionTable = map[Action][]Role{
	ActionOrderVehicle:   {RoleAdmin, RoleDealerManager, RoleDealerStaff},
	ActionCreateContract: {RoleAdmin, RoleDealerManager, RoleDealerStaff},
}

// Area is a registry row prepared for display.
type Area struct {
	Capability Capability
	Label      string
	Allowed    []Role
}

// AllowedRoles returns a copy of the allow-list registered for c, in
// declaration order. Unknown areas yield nil.
func AllowedRoles(c Capability) []Role {
	roles, ok := accessTable[c]
	if !ok {
		return nil
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// Capabilities returns the areas in menu priority order.
func Capabilities() []Capability {
	out := make([]Capability, len(menuPriority))
	copy(out, menuPriority)
	return out
}

// Areas returns every registry row in menu priority order.
func Areas() []Area {
	areas := make([]Area, 0, len(menuPriority))
	for _, c := range menuPriority {
		areas = append(areas, Area{Capability: c, Label: Label(c), Allowed: AllowedRoles(c)})
	}
	return areas
}

// Label returns the menu label of c.
func Label(c Capability) string {
	if label, ok := labels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCapability matches raw against the registered areas.
func ParseCapability(raw string) (Capability, bool) {
	c := Capability(raw)
	if _, ok := accessTable[c]; ok {
		return c, true
	}
	return "", false
}

// ErrInvalidRegistry wraps every registry consistency failure.
var ErrInvalidRegistry = errors.New("rbac: invalid registry")

// Validate checks that the registry is total and that no area is fail-open by
// omission.
func Validate() error {
	return validateTable(accessTable, menuPriority)
}

func validateTable(table map[Capability][]Role, priority []Capability) error {
	var errs []error
	seen := make(map[Capability]struct{}, len(priority))
	for _, c := range priority {
		if _, dup := seen[c]; dup {
			errs = append(errs, fmt.Errorf("%w: %q listed twice in menu priority", ErrInvalidRegistry, c))
			continue
		}
		seen[c] = struct{}{}
		roles, ok := table[c]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q has no allow-list", ErrInvalidRegistry, c))
			continue
		}
		if len(roles) == 0 {
			errs = append(errs, fmt.Errorf("%w: %q has an empty allow-list", ErrInvalidRegistry, c))
		}
		for _, r := range roles {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("%w: %q allows unknown role %q", ErrInvalidRegistry, c, r))
			}
		}
	}
	for c := range table {
		if _, ok := seen[c]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q missing from menu priority", ErrInvalidRegistry, c))
		}
	}
	return errors.Join(errs...)
}
