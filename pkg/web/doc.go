// Package web is the dashboard shell: the HTML pages, the login form and
// the authenticated API proxy, served through gorilla/mux.
//
// # Layouts
//
// The login page renders in a bare layout. Every other page renders inside
// the shell: sidebar from the navigation renderer, header, content and
// footer.
//
// # Request Flow
//
// Pages pass the route gate first and the presence guard second:
//
//	request -> RouteGate -> PresenceGuard -> page -> nav.Renderer.Build
//
// A failed menu fetch ends the session and sends the user to login.
// Notifications queued before a redirect are shown on the page the
// redirect lands on.
//
// # Usage Example
//
//	server, err := web.NewServer(web.Config{
//		Store:    store,
//		Flasher:  flasher,
//		Auth:     client,
//		Renderer: renderer,
//		Gate:     gate,
//		Guard:    guard,
//		Routes:   web.DefaultRoutes(),
//		Logger:   logger,
//	})
//	http.ListenAndServe(":3000", server.Handler())
package web
