// Package nav renders the role-filtered sidebar and handles logout.
//
// The renderer always asks the remote API for the current menu tree rather
// than reading the login snapshot the route gate uses, so the two can
// disagree until the next login. Config.SyncSnapshot narrows that window by
// writing each live tree back into the snapshot.
//
// Highlighting follows the URL: the selected entry is the longest leaf
// route that prefixes the current path, and every group holding a matching
// child is expanded.
//
// CachedSource can sit in front of the API to absorb the fetch each page
// view makes.
package nav
