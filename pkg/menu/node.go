package menu

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedTree is returned when serialized menu data cannot be decoded
var ErrMalformedTree = errors.New("malformed menu tree")

// ID identifies a node within a tree. The remote API emits numeric ids,
// older payloads use strings. The JSON kind is kept so a snapshot encodes
// back exactly as it was received.
type ID struct {
	value  string
	number bool
}

// StringID returns an id that encodes as a JSON string
func StringID(s string) ID {
	return ID{value: s}
}

// NumberID returns an id that encodes as a JSON number
func NumberID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10), number: true}
}

// UnmarshalJSON accepts both JSON numbers and strings
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("menu id must be a number or string: %w", err)
	}
	*id = ID{value: n.String(), number: true}
	return nil
}

// MarshalJSON emits the id in the kind it was decoded or built with
func (id ID) MarshalJSON() ([]byte, error) {
	if id.number {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// IsNumber reports whether the id encodes as a JSON number
func (id ID) IsNumber() bool {
	return id.number
}

// String returns the id as a string
func (id ID) String() string {
	return id.value
}

// Node is a single navigation entry annotated with the roles allowed to see it.
// A node with children is a group; its own Route and Roles are not used for
// navigation decisions.
type Node struct {
	ID       ID       `json:"id"`
	Name     string   `json:"name"`
	Route    string   `json:"route,omitempty"`
	Icon     string   `json:"icon,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

// IsGroup reports whether the node has children
func (n Node) IsGroup() bool {
	return len(n.Children) > 0
}

// AllowsRole reports whether role is listed in the node's roles.
// A node without roles allows nobody.
func (n Node) AllowsRole(role string) bool {
	if role == "" {
		return false
	}
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Tree is the ordered top level of a menu
type Tree []Node

// Parse decodes a JSON menu tree
func Parse(data []byte) (Tree, error) {
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	if tree == nil {
		// "null" decodes cleanly but is not a menu
		return nil, fmt.Errorf("%w: null tree", ErrMalformedTree)
	}
	return tree, nil
}

// Encode serializes a tree to JSON
func Encode(tree Tree) ([]byte, error) {
	if tree == nil {
		tree = Tree{}
	}
	return json.Marshal(tree)
}

// EncodeCookie serializes a tree into a value safe for a cookie.
// Raw JSON cannot be stored directly because net/http strips quotes and
// commas from cookie values.
func EncodeCookie(tree Tree) (string, error) {
	data, err := Encode(tree)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCookie reverses EncodeCookie
func DecodeCookie(value string) (Tree, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	return Parse(data)
}
