// Porch is the browser-facing half of the app: it renders the landing and
// profile pages and talks to the identity backend on the browser's behalf.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/porch/internal/backend"
	"github.com/jdholdren/porch/internal/frontend"
	"github.com/jdholdren/porch/internal/logger"
	"github.com/jdholdren/porch/internal/profile"
	"github.com/jdholdren/porch/internal/views"
)

type config struct {
	Port int `env:"PORT, default=4000"`

	// Where porch reaches the backend
	BackendURL string `env:"BACKEND_URL, required"`
	// Where the browser reaches the backend, if not through porch
	BackendPublicURL string `env:"BACKEND_PUBLIC_URL"`
	ProxyBackend     bool   `env:"PROXY_BACKEND, default=true"`

	BackendTimeout      time.Duration `env:"BACKEND_TIMEOUT, default=5s"`
	SessionFetchRetries uint64        `env:"SESSION_FETCH_RETRIES, default=2"`

	HTTPSCookies   bool   `env:"HTTPS_COOKIES, default=false"`
	CookieHashKey  string `env:"COOKIE_HASH_KEY"`
	CookieBlockKey string `env:"COOKIE_BLOCK_KEY"`
	MountCacheSize int    `env:"MOUNT_CACHE_SIZE, default=1024"`

	AvatarServiceURL string `env:"AVATAR_SERVICE_URL, default=https://ui-avatars.com/api/"`
	HTMXSrc          string `env:"HTMX_SRC"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	LogLevel     string `env:"LOG_LEVEL, default=info"`
}

func main() {
	ctx := context.Background()

	// A .env is a convenience for local runs; the real environment wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("error loading .env: %s", err)
	}

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	slog.SetDefault(logger.New(os.Stdout, cfg.LoggerFormat, cfg.LogLevel))

	// Start the application
	if err := runServer(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg config) error {
	be, err := backend.New(backend.Config{
		BaseURL:      cfg.BackendURL,
		PublicURL:    cfg.BackendPublicURL,
		Timeout:      cfg.BackendTimeout,
		FetchRetries: cfg.SessionFetchRetries,
	})
	if err != nil {
		return err
	}

	var proxy http.Handler
	if cfg.ProxyBackend {
		if proxy, err = backend.NewProxy(cfg.BackendURL); err != nil {
			return err
		}
	} else if cfg.BackendPublicURL == "" {
		slog.Warn("backend isn't proxied and has no public url; sign-in links will point at porch itself")
	}

	hashKey, blockKey := []byte(cfg.CookieHashKey), []byte(cfg.CookieBlockKey)
	if len(hashKey) == 0 {
		// Tokens won't survive a restart, which only costs a page reload
		slog.Warn("no cookie keys configured, generating ephemeral ones")
		hashKey = securecookie.GenerateRandomKey(32)
		blockKey = securecookie.GenerateRandomKey(32)
	}

	htmxSrc := cfg.HTMXSrc
	if htmxSrc == "" {
		htmxSrc = views.DefaultHTMXSrc
	}
	avatars := cfg.AvatarServiceURL
	if avatars == "" {
		avatars = profile.DefaultAvatarService
	}

	s, err := frontend.NewServer(frontend.ServerConfig{
		Port:             cfg.Port,
		CookieHashKey:    hashKey,
		CookieBlockKey:   blockKey,
		HttpsCookies:     cfg.HTTPSCookies,
		AvatarServiceURL: avatars,
		HTMXSrc:          htmxSrc,
		MountCacheSize:   cfg.MountCacheSize,
	}, be, proxy)
	if err != nil {
		return err
	}

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	g.Add(func() error {
		slog.Info("listening", "port", cfg.Port, "backend", cfg.BackendURL, "proxy", cfg.ProxyBackend)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}, func(error) {
		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
	})

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		slog.Info("shutting down", "signal", sig.Signal.String())
		return nil
	}

	return err
}
