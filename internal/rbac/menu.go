package rbac

import "strings"

// DashboardPrefix is the mount point of every capability area.
const DashboardPrefix = "/dashboard"

// MenuEntry is one navigation link of the dashboard sidebar.
type MenuEntry struct {
	Capability Capability
	Label      string
	Href       string
	Active     bool
}

// Href returns the dashboard path of c.
func Href(c Capability) string {
	return DashboardPrefix + "/" + string(c)
}

// Menu lists the areas role may enter, in priority order. currentPath marks
// the active entry and may be empty.
func Menu(role Role, currentPath string) []MenuEntry {
	entries := make([]MenuEntry, 0, len(menuPriority))
	for _, c := range menuPriority {
		if !CanAccess(role, c) {
			continue
		}
		href := Href(c)
		entries = append(entries, MenuEntry{
			Capability: c,
			Label:      Label(c),
			Href:       href,
			Active:     currentPath == href || strings.HasPrefix(currentPath, href+"/"),
		})
	}
	return entries
}
