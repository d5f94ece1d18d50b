// Package access decides whether a role may open a dashboard route.
//
// The decision is a pure function of the role-annotated menu tree, so the
// route gate and the navigation renderer can share it and agree on what a
// session may reach. It is a navigation convenience only; the remote API
// still enforces permissions on every call.
package access

import "github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"

// IsAuthorized reports whether role may navigate to path.
//
// A top-level node matches when its own route equals path and it allows
// role; otherwise any of its children may match the same way. Matching is
// exact, with no prefix semantics. An empty tree or role never matches.
func IsAuthorized(tree menu.Tree, role, path string) bool {
	if role == "" {
		return false
	}
	for _, node := range tree {
		if matches(node, role, path) {
			return true
		}
		for _, child := range node.Children {
			if matches(child, role, path) {
				return true
			}
		}
	}
	return false
}

func matches(node menu.Node, role, path string) bool {
	return node.Route != "" && node.Route == path && node.AllowsRole(role)
}

// Reachable lists every route role may navigate to, in tree order
func Reachable(tree menu.Tree, role string) []string {
	var routes []string
	seen := make(map[string]bool)
	add := func(node menu.Node) {
		if node.Route == "" || seen[node.Route] || !node.AllowsRole(role) {
			return
		}
		seen[node.Route] = true
		routes = append(routes, node.Route)
	}
	for _, node := range tree {
		add(node)
		for _, child := range node.Children {
			add(child)
		}
	}
	return routes
}
