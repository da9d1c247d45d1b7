package backend

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
)

// ProxiedPrefixes are the backend paths porch passes straight through, so the
// provider handshake and the backend's session cookie live on porch's origin.
var ProxiedPrefixes = []string{"/api/", "/oauth2/", "/login/"}

// NewProxy returns a reverse proxy onto the backend's server-side address.
func NewProxy(baseURL string) (http.Handler, error) {
	target, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.ErrorContext(r.Context(), "error proxying to backend", "err", err)
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}, nil
}
