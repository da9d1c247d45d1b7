// Package backend is the client for the identity/profile service porch sits in
// front of.
//
// The backend owns authentication, sessions, and persistence. This package
// only knows its HTTP surface: fetch the current session, save profile edits,
// and where to send the browser to sign in or out.
package backend

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Prefix of the cookies porch sets for itself. These never get forwarded.
const OwnCookiePrefix = "porch_"

type (
	// Session is the backend's view of the current browser.
	//
	// The backend sends null or "" for fields it doesn't have; both decode
	// to the empty string and mean "absent".
	Session struct {
		Authenticated bool   `json:"authenticated"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Bio           string `json:"bio"`
		Picture       string `json:"picture"`
	}

	// Draft is the editable part of a profile, sent as a unit on save.
	Draft struct {
		DisplayName string `json:"displayName"`
		Bio         string `json:"bio"`
	}

	// ProfileUpdate is what the backend echoes back after a save. A nil field
	// was left out of the response.
	ProfileUpdate struct {
		DisplayName *string `json:"displayName"`
		Bio         *string `json:"bio"`
	}

	// Redirect is a full-page navigation the browser has to perform. porch
	// never follows these itself: the side effect is the navigation.
	Redirect struct {
		URL string
	}

	// Provider is an identity provider the backend can start a login with.
	Provider string
)

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// Providers lists the providers offered on the landing page, in display order.
var Providers = []Provider{ProviderGoogle, ProviderGitHub}

// Label is the human name for the provider.
func (p Provider) Label() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderGitHub:
		return "GitHub"
	default:
		return string(p)
	}
}

type (
	// Client talks to the backend on behalf of a browser.
	Client struct {
		base      string // Server-side address of the backend
		public    string // Address the browser navigates to; empty for same-origin
		httpCli   *http.Client
		retries   uint64
		retryBase time.Duration
	}

	Config struct {
		BaseURL   string
		PublicURL string
		Timeout   time.Duration

		// How many extra attempts a session fetch gets when the transport
		// fails. Non-success statuses are never retried.
		FetchRetries uint64
		RetryBase    time.Duration

		// Optional, mostly for tests.
		HTTPClient *http.Client
	}
)

func New(cfg Config) (*Client, error) {
	if _, err := parseBase(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if cfg.PublicURL != "" {
		if _, err := parseBase(cfg.PublicURL); err != nil {
			return nil, fmt.Errorf("invalid public backend url: %w", err)
		}
	}

	httpCli := cfg.HTTPClient
	if httpCli == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpCli = &http.Client{Timeout: timeout}
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 100 * time.Millisecond
	}

	return &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		public:    strings.TrimRight(cfg.PublicURL, "/"),
		httpCli:   httpCli,
		retries:   cfg.FetchRetries,
		retryBase: retryBase,
	}, nil
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}

	return u, nil
}

func (c *Client) endpoint(path string) string {
	return c.base + path
}

func (c *Client) publicEndpoint(path string) string {
	return c.public + path
}

// Logout is where the browser goes to end its session. The backend clears it
// and sends the browser back to the landing page with `?logout=1`.
func (c *Client) Logout() Redirect {
	return Redirect{URL: c.publicEndpoint("/logout")}
}

// Login is where the browser goes to start a provider's sign-in flow.
func (c *Client) Login(p Provider) Redirect {
	return Redirect{URL: c.publicEndpoint("/oauth2/authorization/" + url.PathEscape(string(p)))}
}

// Credentials are the browser's cookies, forwarded so the backend sees the
// same session the browser holds.
type Credentials struct {
	cookies []*http.Cookie
}

// CredentialsFromRequest collects the cookies of an incoming request, minus
// the ones porch sets for itself.
func CredentialsFromRequest(r *http.Request) Credentials {
	var creds Credentials
	for _, c := range r.Cookies() {
		if strings.HasPrefix(c.Name, OwnCookiePrefix) {
			continue
		}
		creds.cookies = append(creds.cookies, c)
	}

	return creds
}

func (c Credentials) apply(req *http.Request) {
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
}
