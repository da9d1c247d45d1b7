package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrs "github.com/jdholdren/porch/internal/errors"
)

func newTestClient(t *testing.T, h http.Handler, retries uint64) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:      srv.URL,
		FetchRetries: retries,
		RetryBase:    time.Millisecond,
	})
	require.NoError(t, err)

	return c
}

func browserCreds(t *testing.T) Credentials {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: "abc123"})
	req.AddCookie(&http.Cookie{Name: OwnCookiePrefix + "nav", Value: "internal"})

	return CredentialsFromRequest(req)
}

func TestFetchSession_Authenticated(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/me", r.URL.Path)

		cookie, err := r.Cookie("JSESSIONID")
		require.NoError(t, err)
		assert.Equal(t, "abc123", cookie.Value)

		_, err = r.Cookie(OwnCookiePrefix + "nav")
		assert.ErrorIs(t, err, http.ErrNoCookie, "porch's own cookies stay home")

		w.Write([]byte(`{"authenticated":true,"email":"u@x.com","name":"Ann","bio":"","picture":"https://img/a.png"}`))
	}), 0)

	sess, err := c.FetchSession(context.Background(), browserCreds(t))
	require.NoError(t, err)

	assert.Equal(t, Session{
		Authenticated: true,
		Email:         "u@x.com",
		Name:          "Ann",
		Picture:       "https://img/a.png",
	}, sess)
}

func TestFetchSession_NullFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"authenticated":true,"email":"a@x.com","name":null,"bio":null,"picture":null}`))
	}), 0)

	sess, err := c.FetchSession(context.Background(), Credentials{})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", sess.Email)
	assert.Empty(t, sess.Name)
	assert.Empty(t, sess.Picture)
}

func TestFetchSession_StatusIsNetworkErrorAndNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), 3)

	_, err := c.FetchSession(context.Background(), Credentials{})
	require.Error(t, err)

	assert.True(t, perrs.IsKind(err, perrs.KindNetwork))
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchSession_BadBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login page</html>`))
	}), 0)

	_, err := c.FetchSession(context.Background(), Credentials{})
	assert.True(t, perrs.IsKind(err, perrs.KindNetwork))
}

// Fails the first n round trips, then defers to the real transport.
type flakyTransport struct {
	failures atomic.Int32
	n        int32
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if f.failures.Add(1) <= f.n {
		return nil, errors.New("connection reset")
	}
	return http.DefaultTransport.RoundTrip(r)
}

func TestFetchSession_RetriesTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"authenticated":false}`))
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		fail    int32
		retries uint64
		wantErr bool
	}{
		{name: "recovers within budget", fail: 2, retries: 2, wantErr: false},
		{name: "gives up past budget", fail: 3, retries: 2, wantErr: true},
		{name: "no retries configured", fail: 1, retries: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{
				BaseURL:      srv.URL,
				FetchRetries: tt.retries,
				RetryBase:    time.Millisecond,
				HTTPClient:   &http.Client{Transport: &flakyTransport{n: tt.fail}},
			})
			require.NoError(t, err)

			sess, err := c.FetchSession(context.Background(), Credentials{})
			if tt.wantErr {
				assert.True(t, perrs.IsKind(err, perrs.KindNetwork))
				return
			}
			require.NoError(t, err)
			assert.False(t, sess.Authenticated)
		})
	}
}

func TestSaveProfile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/profile", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		cookie, err := r.Cookie("JSESSIONID")
		require.NoError(t, err)
		assert.Equal(t, "abc123", cookie.Value)

		byts, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"displayName":"Ann","bio":"hello"}`, string(byts))

		// Leaves bio out on purpose
		w.Write([]byte(`{"ok":true,"displayName":"Ann"}`))
	}), 0)

	upd, err := c.SaveProfile(context.Background(), browserCreds(t), Draft{DisplayName: "Ann", Bio: "hello"})
	require.NoError(t, err)

	require.NotNil(t, upd.DisplayName)
	assert.Equal(t, "Ann", *upd.DisplayName)
	assert.Nil(t, upd.Bio)
}

func TestSaveProfile_FailureIsSaveErrorAndSentOnce(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unauthorized"})
	}), 5)

	_, err := c.SaveProfile(context.Background(), Credentials{}, Draft{DisplayName: "Ann"})
	require.Error(t, err)

	assert.True(t, perrs.IsKind(err, perrs.KindSave))
	assert.EqualValues(t, 1, hits.Load())
}

func TestRedirects(t *testing.T) {
	tests := []struct {
		name       string
		public     string
		wantLogout string
		wantGitHub string
	}{
		{
			name:       "same origin",
			public:     "",
			wantLogout: "/logout",
			wantGitHub: "/oauth2/authorization/github",
		},
		{
			name:       "separate public origin",
			public:     "https://auth.example.com/",
			wantLogout: "https://auth.example.com/logout",
			wantGitHub: "https://auth.example.com/oauth2/authorization/github",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{BaseURL: "http://backend:8080", PublicURL: tt.public})
			require.NoError(t, err)

			assert.Equal(t, tt.wantLogout, c.Logout().URL)
			assert.Equal(t, tt.wantGitHub, c.Login(ProviderGitHub).URL)
		})
	}
}

func TestNew_RejectsBadURLs(t *testing.T) {
	_, err := New(Config{BaseURL: "backend:8080"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://backend:8080", PublicURL: "ftp://nope"})
	assert.Error(t, err)
}

func TestProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Path", r.URL.Path)
		http.Redirect(w, r, "https://accounts.google.com/o/oauth2/auth", http.StatusFound)
	}))
	defer srv.Close()

	proxy, err := NewProxy(srv.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2/authorization/google", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/oauth2/authorization/google", rec.Header().Get("X-Seen-Path"))
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth", rec.Header().Get("Location"))
}

func TestProviderLabels(t *testing.T) {
	assert.Equal(t, "Google", ProviderGoogle.Label())
	assert.Equal(t, "GitHub", ProviderGitHub.Label())
	assert.Equal(t, []Provider{ProviderGoogle, ProviderGitHub}, Providers)
}
