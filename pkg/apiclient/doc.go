// Package apiclient is the dashboard's client for the remote REST API.
//
// The API is authoritative for everything: it authenticates logins, filters
// the menu tree by role and enforces permissions on every CRUD call. The
// dashboard only relays.
//
//	client, err := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, metrics)
//	result, err := client.Login(ctx, email, password)
//	tree, err := client.MenuRole(ctx, token)
//
// Failures are *APIError values; a 401 also matches ErrUnauthorized.
package apiclient
