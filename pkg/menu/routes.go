package menu

import "strings"

// LeafRoutes returns the navigable routes of a tree in display order.
// Children of groups contribute their routes; a group's own route is
// ignored. Childless top-level nodes contribute their own route.
func LeafRoutes(tree Tree) []string {
	var routes []string
	for _, node := range tree {
		if node.IsGroup() {
			for _, child := range node.Children {
				if child.Route != "" {
					routes = append(routes, child.Route)
				}
			}
			continue
		}
		if node.Route != "" {
			routes = append(routes, node.Route)
		}
	}
	return routes
}

// SelectedKey returns the leaf route that should be highlighted for path:
// the longest leaf route that is a prefix of path. The first route seen
// wins a tie. Returns "" when nothing matches.
func SelectedKey(tree Tree, path string) string {
	selected := ""
	for _, route := range LeafRoutes(tree) {
		if !strings.HasPrefix(path, route) {
			continue
		}
		if len(route) > len(selected) {
			selected = route
		}
	}
	return selected
}

// OpenKeys returns the ids of every group that has at least one child
// whose route is a prefix of path
func OpenKeys(tree Tree, path string) []string {
	var keys []string
	for _, node := range tree {
		for _, child := range node.Children {
			if child.Route != "" && strings.HasPrefix(path, child.Route) {
				keys = append(keys, node.ID.String())
				break
			}
		}
	}
	return keys
}
