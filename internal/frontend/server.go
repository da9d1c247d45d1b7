// Package frontend is the browser-facing server.
//
// It serves the landing and profile pages, the htmx fragments that resolve
// them, and optionally passes the backend's own endpoints through so sign-in
// and the backend's session cookie stay on one origin.
package frontend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"

	"github.com/jdholdren/porch/internal/backend"
	"github.com/jdholdren/porch/internal/profile"
	"github.com/jdholdren/porch/internal/serverutil"
	"github.com/jdholdren/porch/internal/session"
	"github.com/jdholdren/porch/internal/views"
)

// Backend is the slice of the backend client the pages use.
type Backend interface {
	FetchSession(ctx context.Context, creds backend.Credentials) (backend.Session, error)
	SaveProfile(ctx context.Context, creds backend.Credentials, d backend.Draft) (backend.ProfileUpdate, error)
	Logout() backend.Redirect
	Login(p backend.Provider) backend.Redirect
}

var (
	_ Backend         = (*backend.Client)(nil)
	_ session.Fetcher = Backend(nil)
	_ profile.Saver   = Backend(nil)
)

type (
	// Server serves porch's pages and fragments.
	Server struct {
		*http.Server

		backend Backend
		mounts  *profile.Registry

		secureCookie  *securecookie.SecureCookie
		httpsCookies  bool // Whether or not HTTPS should be used for cookies
		avatarService string
		htmxSrc       string
	}

	ServerConfig struct {
		Port             int
		CookieHashKey    []byte
		CookieBlockKey   []byte
		HttpsCookies     bool
		AvatarServiceURL string
		HTMXSrc          string
		MountCacheSize   int
	}
)

// NewServer wires up the routes. proxy may be nil, in which case the backend's
// endpoints are expected to be reachable by the browser some other way.
func NewServer(config ServerConfig, be Backend, proxy http.Handler) (*Server, error) {
	size := config.MountCacheSize
	if size <= 0 {
		size = 1024
	}
	mounts, err := profile.NewRegistry(size)
	if err != nil {
		return nil, err
	}
	if len(config.CookieHashKey) == 0 {
		return nil, fmt.Errorf("cookie hash key is required")
	}

	r := serverutil.ErrRouter{Router: mux.NewRouter()}
	sc := securecookie.New(config.CookieHashKey, config.CookieBlockKey)
	sc.MaxAge(int((12 * time.Hour).Seconds()))

	srvr := Server{
		backend:       be,
		mounts:        mounts,
		secureCookie:  sc,
		httpsCookies:  config.HttpsCookies,
		avatarService: config.AvatarServiceURL,
		htmxSrc:       config.HTMXSrc,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			Handler: handlers.RecoveryHandler(
				handlers.RecoveryLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError)),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.HandleFuncE("/healthz", srvr.getHealth).Methods(http.MethodGet)

	// The backend's own surface, passed through untouched
	if proxy != nil {
		for _, prefix := range backend.ProxiedPrefixes {
			r.PathPrefix(prefix).Handler(proxy)
		}
		r.Handle("/logout", proxy)
	}

	pages := serverutil.ErrRouter{Router: r.NewRoute().Subrouter()}
	pages.Use(handlers.CompressHandler, noStore)

	// Full pages: each one is a fresh mount with every view still loading
	pages.HandleFuncE("/", srvr.getLanding).Methods(http.MethodGet)
	pages.HandleFuncE("/profile", srvr.getProfile).Methods(http.MethodGet)

	// Fragments that resolve a loading view
	pages.HandleFuncE(views.NavFragmentPath, srvr.getNav).Methods(http.MethodGet)
	pages.HandleFuncE(views.LandingFragmentPath, srvr.getLandingStatus).Methods(http.MethodGet)
	pages.HandleFuncE(views.ProfileFragmentPath, srvr.getProfileFragment).Methods(http.MethodGet)
	pages.HandleFuncE(views.ProfileFragmentPath, srvr.postProfile).Methods(http.MethodPost)

	r.NotFoundHandler = serverutil.AccessLogMiddleware(http.HandlerFunc(srvr.redirectUnknown))

	slog.Debug("configured frontend server", "port", config.Port, "proxy", proxy != nil)

	return &srvr, nil
}

// Session-dependent output must never be cached.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Anything that isn't a known page goes back to the landing page. Where the
// browser was trying to go rides along in a short-lived cookie.
func (s *Server) redirectUnknown(w http.ResponseWriter, r *http.Request) {
	s.setNavState(w, navState{From: r.URL.RequestURI()})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) getNav(w http.ResponseWriter, r *http.Request) error {
	st := session.Load(r.Context(), s.backend, backend.CredentialsFromRequest(r))
	return serverutil.WriteHTML(w, http.StatusOK, views.Nav(st, s.backend.Logout()))
}
