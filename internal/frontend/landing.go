package frontend

import (
	"log/slog"
	"net/http"

	"github.com/jdholdren/porch/internal/backend"
	"github.com/jdholdren/porch/internal/logger"
	"github.com/jdholdren/porch/internal/serverutil"
	"github.com/jdholdren/porch/internal/session"
	"github.com/jdholdren/porch/internal/views"
)

func (s *Server) getLanding(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if nav, ok := s.takeNavState(w, r); ok {
		ctx = logger.Ctx(ctx, slog.String("from", nav.From))
		slog.InfoContext(ctx, "landed after redirect from unknown path")
	}

	// Set by the backend when it sends the browser back after a logout
	loggedOut := r.URL.Query().Get("logout") == "1"

	page := views.Page{
		Title:   "Welcome",
		HTMXSrc: s.htmxSrc,
		Nav:     views.Nav(session.State{}, s.backend.Logout()),
		Body:    views.Landing(loggedOut, views.LandingStatus(session.State{}, s.providerLinks())),
	}

	return serverutil.WriteHTML(w, http.StatusOK, page.Render())
}

func (s *Server) getLandingStatus(w http.ResponseWriter, r *http.Request) error {
	st := session.Load(r.Context(), s.backend, backend.CredentialsFromRequest(r))
	return serverutil.WriteHTML(w, http.StatusOK, views.LandingStatus(st, s.providerLinks()))
}

func (s *Server) providerLinks() []views.ProviderLink {
	links := make([]views.ProviderLink, 0, len(backend.Providers))
	for _, p := range backend.Providers {
		links = append(links, views.ProviderLink{Provider: p, Redirect: s.backend.Login(p)})
	}

	return links
}
