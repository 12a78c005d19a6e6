// Package bootstrap assembles the portal from configuration: it opens the
// store, applies migrations, seeds the initial administrator, and wires the
// services behind the HTTP router.
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/study-portal/internal/application"
	"github.com/example/study-portal/internal/config"
	httptransport "github.com/example/study-portal/internal/http"
	"github.com/example/study-portal/internal/persistence/sqlite"
	"github.com/example/study-portal/internal/storage"
)

// Option overrides a default collaborator. Tests use options to inject cheap
// hash parameters and a controllable clock.
type Option func(*options)

type options struct {
	hasher      application.PasswordHasher
	now         func() time.Time
	idGenerator func() string
	tokens      func() string
}

// WithHasher replaces the Argon2id hasher derived from the configuration.
func WithHasher(hasher application.PasswordHasher) Option {
	return func(o *options) { o.hasher = hasher }
}

// WithClock replaces time.Now for every service.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the UUID generator used for record identifiers.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.idGenerator = gen }
}

// WithTokenGenerator replaces the random session identifier generator.
func WithTokenGenerator(gen func() string) Option {
	return func(o *options) { o.tokens = gen }
}

func resolveOptions(cfg config.Config, opts []Option) options {
	o := options{
		now:         time.Now,
		idGenerator: uuid.NewString,
		tokens:      func() string { return randomHex(32) },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.hasher == nil {
		o.hasher = application.NewArgon2Hasher(application.DefaultArgon2idParams, cfg.HashConcurrency)
	}
	return o
}

// Store bundles the migrated SQLite pool with the adapted repositories.
type Store struct {
	pool          *sqlite.ConnectionPool
	users         *userStoreAdapter
	sessions      *sessionStoreAdapter
	materials     *materialStoreAdapter
	announcements *announcementStoreAdapter
}

// OpenStore opens the database named by dsn and applies pending migrations.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := sqlite.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{
		pool:          pool,
		users:         newUserStoreAdapter(sqlite.NewUserRepository(pool)),
		sessions:      newSessionStoreAdapter(sqlite.NewSessionRepository(pool)),
		materials:     newMaterialStoreAdapter(sqlite.NewMaterialRepository(pool)),
		announcements: newAnnouncementStoreAdapter(sqlite.NewAnnouncementRepository(pool)),
	}, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// NewAccountService builds the trusted account service used by start-up
// seeding and the operator CLI.
func NewAccountService(store *Store, cfg config.Config, logger *slog.Logger, opts ...Option) *application.AccountService {
	o := resolveOptions(cfg, opts)
	return application.NewAccountServiceWithLogger(store.users, o.hasher, o.idGenerator, o.now, logger)
}

// App is a fully wired portal instance.
type App struct {
	store    *Store
	handler  http.Handler
	Sessions *application.SessionManager
	Accounts *application.AccountService
}

// New opens the store, seeds the administrator, and builds the HTTP handler.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}
	o := resolveOptions(cfg, opts)

	store, err := OpenStore(ctx, cfg.SQLiteDSN)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewFileStore(cfg.UploadDir, cfg.MaxUploadBytes, uuid.NewString)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sessions := application.NewSessionManagerWithLogger(store.sessions, o.tokens, o.now, cfg.SessionTTL, logger)
	auth := application.NewAuthServiceWithLogger(store.users, sessions, o.hasher, o.now, logger)
	students := application.NewStudentServiceWithLogger(store.users, o.hasher, o.idGenerator, o.now, logger)
	accounts := application.NewAccountServiceWithLogger(store.users, o.hasher, o.idGenerator, o.now, logger)
	announcements := application.NewAnnouncementServiceWithLogger(store.announcements, o.idGenerator, o.now, logger)
	materials := application.NewMaterialServiceWithLogger(store.materials, newFileStoreAdapter(files), o.idGenerator, o.now, cfg.MaxUploadBytes, logger)

	if cfg.AdminUsername != "" {
		if _, err := accounts.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed administrator: %w", err)
		}
	}
	if err := sessions.PruneExpired(ctx); err != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", err)
	}

	cookies := httptransport.NewSessionCookies(httptransport.CookieConfig{
		Secret:     cfg.SessionSecret,
		TTL:        sessions.TTL(),
		Production: cfg.Production(),
		Domain:     cfg.CookieDomain,
	})
	metrics := httptransport.NewMetrics()

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(auth, cookies, metrics, logger),
		Students:       httptransport.NewStudentHandler(students, logger),
		Announcements:  httptransport.NewAnnouncementHandler(announcements, logger),
		Materials:      httptransport.NewMaterialHandler(materials, logger),
		Health:         httptransport.NewHealthHandler(store, logger),
		Metrics:        metrics,
		Sessions:       sessions,
		Cookies:        cookies,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		StaticDir:      cfg.StaticDir,
		Logger:         logger,
	})

	return &App{
		store:    store,
		handler:  handler,
		Sessions: sessions,
		Accounts: accounts,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Close releases the underlying store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.store.Close()
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		panic(fmt.Sprintf("session token entropy unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
