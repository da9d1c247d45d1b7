package frontend

import (
	"errors"
	"log/slog"
	"net/http"

	g "maragu.dev/gomponents"

	"github.com/jdholdren/porch/internal/backend"
	perrs "github.com/jdholdren/porch/internal/errors"
	"github.com/jdholdren/porch/internal/logger"
	"github.com/jdholdren/porch/internal/profile"
	"github.com/jdholdren/porch/internal/serverutil"
	"github.com/jdholdren/porch/internal/session"
	"github.com/jdholdren/porch/internal/views"
)

const maxFormBytes = 64 << 10

// Serving the page is what mounts the view: a new id, a new draft.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) error {
	v := s.mounts.Mount()
	token, err := s.mountToken(v.ID)
	if err != nil {
		return perrs.E(err, http.StatusInternalServerError)
	}
	slog.DebugContext(logger.Ctx(r.Context(), slog.String("mount", v.ID)), "mounted profile view")

	page := views.Page{
		Title:   "My Profile",
		HTMXSrc: s.htmxSrc,
		Nav:     views.Nav(session.State{}, s.backend.Logout()),
		Body:    s.profileView(v.Snapshot(), token),
	}

	return serverutil.WriteHTML(w, http.StatusOK, page.Render())
}

func (s *Server) getProfileFragment(w http.ResponseWriter, r *http.Request) error {
	token := r.URL.Query().Get("mount")
	id, err := s.mountFromToken(token)
	if err != nil {
		return err
	}
	v, ok := s.mounts.Lookup(id)
	if !ok {
		// Nothing typed yet, so a reload that mounts afresh loses nothing
		w.Header().Set("HX-Refresh", "true")
		return perrs.E(perrs.KindInvalid, http.StatusGone, "mount expired")
	}
	ctx := logger.Ctx(r.Context(), slog.String("mount", v.ID))

	snap := v.Load(ctx, s.backend, backend.CredentialsFromRequest(r))
	return serverutil.WriteHTML(w, http.StatusOK, s.profileView(snap, token))
}

func (s *Server) postProfile(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return perrs.E(perrs.KindInvalid, http.StatusBadRequest, err)
	}

	token := r.PostFormValue("mount")
	id, err := s.mountFromToken(token)
	if err != nil {
		return err
	}
	ctx := logger.Ctx(r.Context(), slog.String("mount", id))
	creds := backend.CredentialsFromRequest(r)

	draft := profile.Draft{
		DisplayName: r.PostFormValue("displayName"),
		Bio:         r.PostFormValue("bio"),
	}

	v, ok := s.mounts.Lookup(id)
	if !ok {
		// The mount was dropped while the user was typing. Bring it back
		// with what they typed rather than reloading over it.
		slog.InfoContext(ctx, "remounting dropped profile view")
		v = s.mounts.Remount(id)
		v.Load(ctx, s.backend, creds)
		return serverutil.WriteHTML(w, http.StatusOK, s.profileView(v.Restore(draft), token))
	}

	snap, err := v.Submit(ctx, s.backend, creds, draft)
	switch {
	case errors.Is(err, profile.ErrSaveInFlight):
		slog.DebugContext(ctx, "ignored submit while a save is in flight")
	case errors.Is(err, profile.ErrNotEditing):
		slog.DebugContext(ctx, "ignored submit for a view that isn't editable", "phase", snap.Phase)
	case err != nil:
		return err
	}

	return serverutil.WriteHTML(w, http.StatusOK, s.profileView(snap, token))
}

// Checks a mount token's signature and returns the mount id it carries.
func (s *Server) mountFromToken(token string) (string, error) {
	if token == "" {
		return "", perrs.E(perrs.KindInvalid, http.StatusBadRequest, "missing mount",
			perrs.Detail{Field: "mount", Error: "required"})
	}
	id, err := s.mountID(token)
	if err != nil {
		return "", perrs.E(perrs.KindInvalid, http.StatusBadRequest, "invalid mount",
			perrs.Detail{Field: "mount", Error: err.Error()})
	}

	return id, nil
}

func (s *Server) profileView(snap profile.Snapshot, token string) g.Node {
	return views.Profile(views.ProfileData{
		Snapshot: snap,
		Token:    token,
		Avatar:   profile.AvatarURL(s.avatarService, snap.Session),
	})
}
