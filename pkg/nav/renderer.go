package nav

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/httputil"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/notify"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/session"
)

// Notification texts
const (
	LogoutTitle        = "Logout Berhasil!"
	MenuLoadErrorTitle = "Gagal Memuat Menu"
)

// MenuSource returns the menu tree the remote API allows for token
type MenuSource interface {
	MenuRole(ctx context.Context, token string) (menu.Tree, error)
}

// RemoteLogout invalidates a token on the remote side
type RemoteLogout interface {
	Logout(ctx context.Context, token string) error
}

// invalidator is implemented by sources that cache per token
type invalidator interface {
	Invalidate(token string)
}

// Config wires a Renderer
type Config struct {
	Source  MenuSource
	Remote  RemoteLogout
	Store   session.Store
	Flasher *notify.Flasher
	Icons   menu.IconSet
	// LoginPath is where logout and fetch failures send the user
	LoginPath string
	// SyncSnapshot rewrites the gate's authorization snapshot from every
	// successful live fetch
	SyncSnapshot bool
	Metrics      *observability.Metrics
}

// Renderer builds the role-filtered navigation from a live fetch and owns
// logout
type Renderer struct {
	source       MenuSource
	remote       RemoteLogout
	store        session.Store
	flasher      *notify.Flasher
	icons        menu.IconSet
	loginPath    string
	syncSnapshot bool
	metrics      *observability.Metrics
}

// NewRenderer creates a navigation renderer
func NewRenderer(cfg Config) *Renderer {
	if cfg.Icons == nil {
		cfg.Icons = menu.DefaultIcons
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	return &Renderer{
		source:       cfg.Source,
		remote:       cfg.Remote,
		store:        cfg.Store,
		flasher:      cfg.Flasher,
		icons:        cfg.Icons,
		loginPath:    cfg.LoginPath,
		syncSnapshot: cfg.SyncSnapshot,
		metrics:      cfg.Metrics,
	}
}

// Build fetches the live menu tree for token and lays it out for path. The
// tree is used as returned; the API has already filtered it by role.
func (r *Renderer) Build(ctx context.Context, token, path string) (*View, error) {
	if token == "" {
		return nil, session.ErrNoSession
	}

	ctx, span := observability.Tracer().Start(ctx, "nav.Build", trace.WithAttributes(attribute.String("dashboard.path", path)))
	defer span.End()

	tree, err := r.source.MenuRole(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "menu fetch failed")
		return nil, fmt.Errorf("fetch menu: %w", err)
	}

	if unknown := r.icons.UnknownIcons(tree); len(unknown) > 0 {
		observability.FromContext(ctx).WithField("icons", unknown).Debug("menu references unknown icons")
	}

	view := BuildView(tree, r.icons, path)
	view.tree = tree
	span.SetAttributes(attribute.String("dashboard.menu.selected", view.SelectedKey))
	return view, nil
}

// SyncSnapshot replaces the gate's menu snapshot with the live tree when
// enabled and the role is still known. Returns whether it wrote anything.
func (r *Renderer) SyncSnapshot(w http.ResponseWriter, req *http.Request, view *View) bool {
	if !r.syncSnapshot || view == nil || view.tree == nil {
		return false
	}
	auth, err := r.store.LoadAuthorization(req)
	if err != nil || !auth.Complete() {
		return false
	}
	if sameTree(auth.Menus, view.tree) {
		return false
	}
	if err := r.store.SaveAuthorization(w, req, &session.Authorization{Role: auth.Role, Menus: view.tree}); err != nil {
		observability.FromContext(req.Context()).WithError(err).Warn("failed to refresh menu snapshot")
		return false
	}
	return true
}

// FetchFailed handles a failed Build: the local session is dropped so the
// login page does not bounce the user straight back, the user is told, and
// sent to login
func (r *Renderer) FetchFailed(w http.ResponseWriter, req *http.Request, err error) {
	observability.FromContext(req.Context()).WithError(err).Warn("menu fetch failed, ending session")

	if invalidate, ok := r.source.(invalidator); ok {
		invalidate.Invalidate(session.TokenFromContext(req.Context()))
	}
	if clearErr := r.store.Clear(w, req); clearErr != nil {
		observability.FromContext(req.Context()).WithError(clearErr).Error("failed to clear session")
	}
	r.flash(w, req, notify.Error(MenuLoadErrorTitle, "Silakan login kembali."))
	httputil.Redirect(w, req, r.loginPath)
}

// Logout ends the session. The remote call is best effort: whatever it
// returns, local session state is cleared and the user lands on login.
func (r *Renderer) Logout(ctx context.Context, w http.ResponseWriter, req *http.Request) {
	logger := observability.FromContext(ctx)

	token := session.TokenFromContext(ctx)
	if token == "" {
		token, _ = r.store.LoadToken(req)
	}

	result := "skipped"
	if token != "" {
		if err := r.remote.Logout(ctx, token); err != nil {
			logger.WithError(err).Warn("remote logout failed, clearing local session anyway")
			result = "error"
		} else {
			result = "ok"
		}
		if invalidate, ok := r.source.(invalidator); ok {
			invalidate.Invalidate(token)
		}
	}
	if r.metrics != nil {
		r.metrics.LogoutTotal.WithLabelValues(result).Inc()
	}

	if err := r.store.Clear(w, req); err != nil {
		logger.WithError(err).Error("failed to clear session")
	}
	r.flash(w, req, notify.Success(LogoutTitle, ""))
	httputil.Redirect(w, req, r.loginPath)
}

func (r *Renderer) flash(w http.ResponseWriter, req *http.Request, f notify.Flash) {
	if r.flasher == nil {
		return
	}
	if err := r.flasher.Set(w, f); err != nil {
		observability.FromContext(req.Context()).WithError(err).Warn("failed to queue notification")
	}
}

func sameTree(a, b menu.Tree) bool {
	encodedA, errA := menu.Encode(a)
	encodedB, errB := menu.Encode(b)
	return errA == nil && errB == nil && bytes.Equal(encodedA, encodedB)
}
