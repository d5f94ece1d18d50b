// Package menu models the role-annotated navigation tree served by the
// dashboard API.
//
// # Overview
//
// A Tree is an ordered list of Nodes. A Node with children is a group whose
// own route and roles are never used for navigation; only its children are.
// Trees are read-only once decoded.
//
// # Serialization
//
// The same tree travels three ways:
//
//	tree, err := menu.Parse(body)          // API response body
//	value, err := menu.EncodeCookie(tree)  // login snapshot cookie
//	tree, err = menu.DecodeCookie(value)   // snapshot read back by the route gate
//
// Decoding failures wrap ErrMalformedTree.
//
// # Route Helpers
//
// SelectedKey picks the longest leaf route prefixing the current path, so
// "/employee/tasks/5" highlights "/employee/tasks" rather than "/employee".
// OpenKeys lists the groups to expand for the current path.
//
// # Icons
//
// Icon names are resolved against an explicit IconSet. Unknown names render
// without an icon; IconSet.UnknownIcons reports them for logging.
package menu
