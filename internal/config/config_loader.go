package config

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"log/slog"

	"github.com/getsentry/sentry-go"
	"gopkg.in/yaml.v3"

	"github.com/routify-transit/routify/internal/report"
	"github.com/routify-transit/routify/internal/utils"
)

// remoteConfigSourceID is the BackoffStore key for the single remote config
// endpoint Routify supports. BackoffStore tracks backoff per numeric source
// id; Routify has exactly one remote config source, so it's keyed by a
// constant.
const remoteConfigSourceID = 0

// fileConfig mirrors the on-disk/remote YAML shape, following
// ttpr0-go-routing's config.go pattern of a plain struct decoded with
// gopkg.in/yaml.v3.
type fileConfig struct {
	TCPAddr       string     `yaml:"tcp_addr"`
	AdminAddr     string     `yaml:"admin_addr"`
	StopsFile     string     `yaml:"stops_file"`
	StopTimesFile string     `yaml:"stop_times_file"`
	GA            GADefaults `yaml:"ga"`
}

// ValidateConfigFlags ensures exactly one configuration source is
// specified: either a local file (--config-file) or a remote URL
// (--config-url).
func ValidateConfigFlags(configFile, configURL *string) error {
	if *configFile == "" && *configURL == "" {
		return fmt.Errorf("no configuration provided, either --config-file or --config-url must be specified")
	}
	if (*configFile != "" && *configURL != "") || (*configFile != "" && len(flag.Args()) > 0) || (*configURL != "" && len(flag.Args()) > 0) {
		return fmt.Errorf("only one of --config-file or --config-url can be specified")
	}
	return nil
}

// LoadConfigFromFile reads a YAML configuration file from disk and builds a
// Config from it.
func LoadConfigFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return NewConfig(fc.TCPAddr, fc.AdminAddr, fc.StopsFile, fc.StopTimesFile, fc.GA), nil
}

// LoadConfigFromURL fetches the full YAML configuration document from a
// remote endpoint and builds a Config from it. Unlike the periodic
// refresh loop (which only ever touches GADefaults), this is a one-shot,
// unretried fetch used at startup when --config-url is the only
// configuration source.
func LoadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string) (*Config, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := client.Do(req)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to fetch remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote config returned status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote config body: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return NewConfig(fc.TCPAddr, fc.AdminAddr, fc.StopsFile, fc.StopTimesFile, fc.GA), nil
}

// loadGADefaultsFromURL fetches the YAML-encoded GA defaults document from a
// remote endpoint, retrying through a BackoffStore on failure.
func loadGADefaultsFromURL(ctx context.Context, client *http.Client, store *BackoffStore, url, authUser, authPass string, maxRetries int) (GADefaults, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GADefaults{}, fmt.Errorf("failed to create request: %w", err)
	}
	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := doWithBackoff(ctx, client, req, store, remoteConfigSourceID, maxRetries)
	if err != nil {
		return GADefaults{}, fmt.Errorf("failed to fetch remote GA defaults: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GADefaults{}, fmt.Errorf("remote config returned status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return GADefaults{}, fmt.Errorf("failed to read remote config body: %w", err)
	}

	var ga GADefaults
	if err := yaml.Unmarshal(data, &ga); err != nil {
		return GADefaults{}, fmt.Errorf("failed to unmarshal remote GA defaults: %w", err)
	}
	return ga, nil
}

// doWithBackoff performs req up to maxRetries times, consulting store
// between attempts for the per-source backoff delay. A response is
// considered successful as soon as it comes back with a sub-500 status.
func doWithBackoff(ctx context.Context, client *http.Client, req *http.Request, store *BackoffStore, sourceID, maxRetries int) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if nextRetry, scheduled := store.NextRetryAt(sourceID); scheduled {
			if wait := time.Until(nextRetry); wait > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(wait):
				}
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			store.ResetBackoff(sourceID)
			return resp, nil
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("server error status: %d", resp.StatusCode)
		}
		lastErr = err
		store.UpdateBackoff(sourceID)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed after %d attempts", maxRetries)
	}
	return nil, lastErr
}

// refreshConfig periodically refetches the remote GA defaults and applies
// them to cfg, until ctx is canceled. Fetch errors are logged and reported
// to Sentry; the loop continues regardless.
func refreshConfig(ctx context.Context, client *http.Client, store *BackoffStore, url, authUser, authPass string, cfg *Config, logger *slog.Logger, interval time.Duration, maxRetries int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping config refresh routine")
			return
		case <-ticker.C:
			ga, err := loadGADefaultsFromURL(ctx, client, store, url, authUser, authPass, maxRetries)
			if err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Tags:  utils.MakeMap("config_url", url),
					Level: sentry.LevelError,
				})
				logger.Error("failed to refresh remote GA defaults", "error", err)
				continue
			}
			cfg.UpdateGADefaults(ga)
			logger.Info("refreshed GA defaults from remote config", "generations", ga.Generations, "population_size", ga.PopulationSize)
		}
	}
}
