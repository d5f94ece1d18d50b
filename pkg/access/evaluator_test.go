package access

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
)

func adminTree() menu.Tree {
	return menu.Tree{
		{ID: menu.StringID("1"), Name: "Dashboard", Route: "/", Roles: []string{"admin", "employee"}},
		{ID: menu.StringID("2"), Name: "Setting", Children: []menu.Node{
			{ID: menu.StringID("3"), Name: "Users", Route: "/setting/users", Roles: []string{"admin"}},
			{ID: menu.StringID("4"), Name: "Menus", Route: "/setting/menus"},
		}},
		{ID: menu.StringID("5"), Name: "Employee", Route: "/employee", Roles: []string{"hr"}, Children: []menu.Node{
			{ID: menu.StringID("6"), Name: "My tasks", Route: "/employee/mytasks", Roles: []string{"employee"}},
		}},
	}
}

func TestIsAuthorized(t *testing.T) {
	tree := adminTree()

	tests := []struct {
		name     string
		role     string
		path     string
		expected bool
	}{
		{"top level route with role", "admin", "/", true},
		{"child route with role", "admin", "/setting/users", true},
		{"child route without role", "employee", "/setting/users", false},
		{"child with no roles denies everyone", "admin", "/setting/menus", false},
		{"route not in tree", "admin", "/setting/roles", false},
		{"no prefix matching", "admin", "/setting/users/1", false},
		{"no prefix matching on parent", "admin", "/setting", false},
		{"parent route checked when it has children", "hr", "/employee", true},
		{"child of parent with other roles", "employee", "/employee/mytasks", true},
		{"parent roles do not leak to children", "hr", "/employee/mytasks", false},
		{"empty role", "", "/", false},
		{"trailing slash is a different path", "admin", "/setting/users/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAuthorized(tree, tt.role, tt.path))
		})
	}
}

func TestIsAuthorized_EmptyTree(t *testing.T) {
	for _, role := range []string{"admin", "employee", ""} {
		for _, path := range []string{"/", "/setting/users", ""} {
			assert.False(t, IsAuthorized(nil, role, path))
			assert.False(t, IsAuthorized(menu.Tree{}, role, path))
		}
	}
}

func TestIsAuthorized_SingleLeaf(t *testing.T) {
	tree := menu.Tree{{ID: menu.StringID("1"), Route: "/setting/users", Roles: []string{"admin"}}}
	assert.True(t, IsAuthorized(tree, "admin", "/setting/users"))
	assert.False(t, IsAuthorized(tree, "admin", "/setting/roles"))
}

// IsAuthorized must agree with a brute force scan of every node and child.
func TestIsAuthorized_MatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	routes := []string{"", "/", "/a", "/a/b", "/b", "/c"}
	roles := []string{"admin", "hr", "employee"}

	randomNode := func(id int) menu.Node {
		n := menu.Node{ID: menu.StringID(string(rune('a' + id%26))), Route: routes[rng.Intn(len(routes))]}
		for _, r := range roles {
			if rng.Intn(2) == 0 {
				n.Roles = append(n.Roles, r)
			}
		}
		return n
	}

	for i := 0; i < 200; i++ {
		var tree menu.Tree
		for j := 0; j < rng.Intn(4); j++ {
			parent := randomNode(j)
			for k := 0; k < rng.Intn(3); k++ {
				parent.Children = append(parent.Children, randomNode(k))
			}
			tree = append(tree, parent)
		}

		for _, role := range roles {
			for _, path := range routes[1:] {
				expected := false
				for _, n := range tree {
					if n.Route == path && contains(n.Roles, role) {
						expected = true
					}
					for _, c := range n.Children {
						if c.Route == path && contains(c.Roles, role) {
							expected = true
						}
					}
				}
				got := IsAuthorized(tree, role, path)
				assert.Equal(t, expected, got, "tree=%v role=%s path=%s", tree, role, path)
				assert.Equal(t, got, IsAuthorized(tree, role, path), "second evaluation must agree")
			}
		}
	}
}

func TestReachable(t *testing.T) {
	tree := adminTree()
	assert.Equal(t, []string{"/", "/setting/users"}, Reachable(tree, "admin"))
	assert.Equal(t, []string{"/", "/employee/mytasks"}, Reachable(tree, "employee"))
	assert.Equal(t, []string{"/employee"}, Reachable(tree, "hr"))
	assert.Empty(t, Reachable(tree, "guest"))

	for _, role := range []string{"admin", "employee", "hr"} {
		for _, route := range Reachable(tree, role) {
			assert.True(t, IsAuthorized(tree, role, route), "%s should reach %s", role, route)
		}
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
