package web

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/apiclient"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/nav"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

// Login notification texts
const (
	LoginSuccessTitle   = "Login Berhasil"
	LoginSuccessMessage = "Selamat Datang Kembali!"
	LoginFailedTitle    = "Login Gagal"
	LoginFailedMessage  = "Terjadi kesalahan saat login."
	MissingFieldsText   = "Email dan password wajib diisi."
)

// loginPage handles GET /login
func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, http.StatusOK, "login", &pageData{
		Title:     "Login",
		LoginPath: s.routes.LoginPath,
		Flash:     s.popFlash(w, r),
	})
}

// submitLogin handles POST /login
func (s *Server) submitLogin(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		s.recordLogin("invalid")
		s.loginFailed(w, http.StatusBadRequest, email, MissingFieldsText)
		return
	}

	result, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		status, message := http.StatusBadGateway, LoginFailedMessage
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			status = http.StatusUnauthorized
			if apiErr.Message != "" {
				message = apiErr.Message
			}
		}
		logger.WithError(err).WithField("email", email).Warn("login failed")
		s.recordLogin("failure")
		s.loginFailed(w, status, email, message)
		return
	}

	sess := &session.Session{
		Token: result.Token,
		Auth:  &session.Authorization{Role: result.User.Role, Menus: result.User.Menus},
	}
	if err := s.store.Save(w, r, sess); err != nil {
		logger.WithError(err).Error("failed to save session after login")
		s.recordLogin("failure")
		s.loginFailed(w, http.StatusBadGateway, email, LoginFailedMessage)
		return
	}

	s.recordLogin("success")
	logger.WithField("role", result.User.Role).Info("user logged in")
	s.setFlash(w, r, notify.Success(LoginSuccessTitle, LoginSuccessMessage))
	httputil.Redirect(w, r, s.routes.HomePath)
}

func (s *Server) loginFailed(w http.ResponseWriter, status int, email, message string) {
	flash := notify.Error(LoginFailedTitle, message)
	s.pages.render(w, status, "login", &pageData{
		Title:     "Login",
		LoginPath: s.routes.LoginPath,
		Email:     email,
		Flash:     &flash,
	})
}

func (s *Server) recordLogin(status string) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues(status).Inc()
	}
}

// logout handles GET and POST /logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.renderer.Logout(r.Context(), w, r)
}

// homePage handles GET /
func (s *Server) homePage(w http.ResponseWriter, r *http.Request) {
	view, ok := s.navigation(w, r)
	if !ok {
		return
	}
	s.pages.render(w, http.StatusOK, "home", &pageData{
		Title:   "Dashboard",
		Nav:     view,
		Flash:   s.popFlash(w, r),
		Welcome: WelcomeText,
	})
}

// notFoundPage handles GET /404 and every unmatched path
func (s *Server) notFoundPage(w http.ResponseWriter, r *http.Request) {
	view, ok := s.navigation(w, r)
	if !ok {
		return
	}
	s.pages.render(w, http.StatusNotFound, "notfound", &pageData{
		Title: "404",
		Nav:   view,
		Flash: s.popFlash(w, r),
	})
}

// sectionPage handles the pages under the protected prefixes. The route
// gate has already decided the role may open this path.
func (s *Server) sectionPage(w http.ResponseWriter, r *http.Request) {
	view, ok := s.navigation(w, r)
	if !ok {
		return
	}
	s.pages.render(w, http.StatusOK, "section", &pageData{
		Title:    sectionTitle(view, r.URL.Path),
		Nav:      view,
		Flash:    s.popFlash(w, r),
		Section:  r.URL.Path,
		Resource: path.Base(r.URL.Path),
		APIPath:  "/api" + r.URL.Path,
	})
}

// navigation builds the sidebar for the current page. On failure the
// renderer has already answered the request.
func (s *Server) navigation(w http.ResponseWriter, r *http.Request) (*nav.View, bool) {
	if s.renderer == nil {
		return nil, true
	}
	view, err := s.renderer.Build(r.Context(), session.TokenFromContext(r.Context()), r.URL.Path)
	if err != nil {
		s.renderer.FetchFailed(w, r, err)
		return nil, false
	}
	s.renderer.SyncSnapshot(w, r, view)
	return view, true
}

func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *notify.Flash {
	if s.flasher == nil {
		return nil
	}
	flash, ok := s.flasher.Pop(w, r)
	if !ok {
		return nil
	}
	return flash
}

func (s *Server) setFlash(w http.ResponseWriter, r *http.Request, flash notify.Flash) {
	if s.flasher == nil {
		return
	}
	if err := s.flasher.Set(w, flash); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("failed to queue notification")
	}
}

// sectionTitle names a page after the menu entry that owns it
func sectionTitle(view *nav.View, p string) string {
	if view != nil && view.SelectedKey != "" {
		for _, item := range view.Items {
			if item.Key == view.SelectedKey {
				return item.Name
			}
			for _, child := range item.Children {
				if child.Key == view.SelectedKey {
					return child.Name
				}
			}
		}
	}
	return path.Base(p)
}
