package app

import (
	"fmt"
	"time"

	"datadesk/pkg/ai"
	"datadesk/pkg/storage"
	"datadesk/pkg/store"
)

const (
	defaultHistoryLimit   = 20
	defaultMaxFileContext = 64 << 10
	defaultPresignExpiry  = 15 * time.Minute
	datasetStoragePrefix  = "project-datasets"
	defaultSessionTTL     = 24 * time.Hour
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	Store          store.Store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	Objects        storage.ObjectStore
	Generator      ai.TextGenerator
	RedisAddr      string
	RedisPassword  string
	SessionSecret  string
	SessionTTL     time.Duration
	Sessions       store.SessionStore
	HistoryLimit   int
	MaxFileContext int
}

// App is the core application service wiring together storage, tenancy,
// and chat logic.
type App struct {
	store          store.Store
	objects        storage.ObjectStore
	generator      ai.TextGenerator
	sessions       store.SessionStore
	attachments    *attachmentCache
	historyLimit   int
	maxFileContext int
	presignExpiry  time.Duration
}

// New constructs the application with database-backed metadata storage and
// object-backed dataset storage.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}

	if cfg.Generator == nil {
		return nil, fmt.Errorf("text generator required")
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		ttl := cfg.SessionTTL
		if ttl <= 0 {
			ttl = defaultSessionTTL
		}
		if cfg.SessionSecret == "" {
			return nil, fmt.Errorf("session secret required")
		}
		var revoker store.TokenRevoker
		if cfg.RedisAddr != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
		sessionStore = store.NewJWTSessionStore(cfg.SessionSecret, ttl, revoker)
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	maxFileContext := cfg.MaxFileContext
	if maxFileContext <= 0 {
		maxFileContext = defaultMaxFileContext
	}

	return &App{
		store:          dataStore,
		objects:        objects,
		generator:      cfg.Generator,
		sessions:       sessionStore,
		attachments:    newAttachmentCache(),
		historyLimit:   historyLimit,
		maxFileContext: maxFileContext,
		presignExpiry:  defaultPresignExpiry,
	}, nil
}

// Sessions exposes the session store for request authentication middleware.
func (a *App) Sessions() store.SessionStore {
	return a.sessions
}
