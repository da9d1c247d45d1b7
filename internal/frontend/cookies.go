package frontend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jdholdren/porch/internal/backend"
)

const (
	mountTokenName = backend.OwnCookiePrefix + "mount"
	navCookieName  = backend.OwnCookiePrefix + "nav"
)

// Context carried across a redirect off an unknown path. Nothing reads it yet
// beyond logging.
type navState struct {
	From string
}

func (s *Server) mountToken(id string) (string, error) {
	return s.secureCookie.Encode(mountTokenName, id)
}

func (s *Server) mountID(token string) (string, error) {
	var id string
	if err := s.secureCookie.Decode(mountTokenName, token, &id); err != nil {
		return "", err
	}

	return id, nil
}

func (s *Server) setNavState(w http.ResponseWriter, st navState) {
	encoded, err := s.secureCookie.Encode(navCookieName, st)
	if err != nil {
		slog.Error("error encoding cookie", "err", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     navCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   60,
		Secure:   s.httpsCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Reads the redirect context off the request, if any, and clears it so it's
// only ever seen once.
func (s *Server) takeNavState(w http.ResponseWriter, r *http.Request) (navState, bool) {
	cookie, err := r.Cookie(navCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return navState{}, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "error fetching cookie", "err", err)
		return navState{}, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     navCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.httpsCookies,
		HttpOnly: true,
	})

	var st navState
	if err := s.secureCookie.Decode(navCookieName, cookie.Value, &st); err != nil {
		slog.WarnContext(r.Context(), "error decoding cookie", "err", err)
		return navState{}, false
	}

	return st, true
}
