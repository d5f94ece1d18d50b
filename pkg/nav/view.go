package nav

import (
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
)

// Item is one rendered navigation entry
type Item struct {
	Key      string
	Name     string
	Route    string
	Icon     *menu.Icon
	Selected bool
	Open     bool
	Children []Item
}

// IsGroup reports whether the item renders as an expandable submenu
func (i Item) IsGroup() bool {
	return len(i.Children) > 0
}

// View is the navigation for one page: the items plus which leaf is
// highlighted and which groups are expanded
type View struct {
	Items       []Item
	SelectedKey string
	OpenKeys    []string

	tree menu.Tree
}

// BuildView lays out tree for the page at path. Items are keyed the way the
// menu widget expects: groups by id, leaves by route.
func BuildView(tree menu.Tree, icons menu.IconSet, path string) *View {
	view := &View{
		SelectedKey: menu.SelectedKey(tree, path),
		OpenKeys:    menu.OpenKeys(tree, path),
	}

	open := make(map[string]bool, len(view.OpenKeys))
	for _, key := range view.OpenKeys {
		open[key] = true
	}

	view.Items = make([]Item, 0, len(tree))
	for _, node := range tree {
		if !node.IsGroup() {
			view.Items = append(view.Items, leaf(node, icons, view.SelectedKey))
			continue
		}
		group := Item{
			Key:  node.ID.String(),
			Name: node.Name,
			Icon: resolve(icons, node.Icon),
			Open: open[node.ID.String()],
		}
		for _, child := range node.Children {
			group.Children = append(group.Children, leaf(child, icons, view.SelectedKey))
		}
		view.Items = append(view.Items, group)
	}
	return view
}

func leaf(node menu.Node, icons menu.IconSet, selected string) Item {
	return Item{
		Key:      node.Route,
		Name:     node.Name,
		Route:    node.Route,
		Icon:     resolve(icons, node.Icon),
		Selected: node.Route != "" && node.Route == selected,
	}
}

func resolve(icons menu.IconSet, name string) *menu.Icon {
	icon, ok := icons.Resolve(name)
	if !ok {
		return nil
	}
	return &icon
}
