package config

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ConfigService wires together the dependencies needed to load config at
// startup and keep GA defaults fresh from a remote source thereafter.
type ConfigService struct {
	Logger *slog.Logger
	Client *http.Client
	Config *Config
	store  *BackoffStore
}

// NewConfigService builds a ConfigService over the given logger, HTTP
// client and Config.
func NewConfigService(logger *slog.Logger, client *http.Client, cfg *Config) *ConfigService {
	return &ConfigService{
		Logger: logger,
		Client: client,
		Config: cfg,
		store:  NewBackoffStore(),
	}
}

// RefreshConfig starts the background remote-config refresh loop; it
// blocks until ctx is canceled, so callers run it in its own goroutine.
func (cs *ConfigService) RefreshConfig(ctx context.Context, url, authUser, authPass string, interval time.Duration, maxRetries int) {
	refreshConfig(ctx, cs.Client, cs.store, url, authUser, authPass, cs.Config, cs.Logger, interval, maxRetries)
}
