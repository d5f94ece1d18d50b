// Package notify carries one-shot user notifications across redirects.
//
// Handlers that redirect queue a Flash; the page the browser lands on pops
// it and renders it as a toast:
//
//	flasher.Set(w, notify.Error("Access Denied", ""))
//	httputil.Redirect(w, r, "/login")
//
//	if flash, ok := flasher.Pop(w, r); ok { ... }
package notify
