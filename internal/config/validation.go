package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidateConfig validates a normalized configuration with defaults applied.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateServer,
		cv.validateStorage,
		cv.validateRecords,
		cv.validateDeploy,
		cv.validateAlerts,
		cv.validatePublish,
		cv.validateIdentity,
		cv.validatePathsCache,
		cv.validateSite,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	s := cv.config.Server
	for field, v := range map[string]string{
		"server.read_timeout":     s.ReadTimeout,
		"server.write_timeout":    s.WriteTimeout,
		"server.shutdown_timeout": s.ShutdownTimeout,
	} {
		if err := validateDuration(field, v, false); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateStorage() error {
	s := cv.config.Storage
	if _, err := storageKindNormalizer.Parse(string(s.Kind)); err != nil {
		return err
	}
	switch s.Kind {
	case StorageFS:
		if strings.TrimSpace(s.Dir) == "" {
			return errors.New("storage.dir is required for fs storage")
		}
	case StorageS3:
		if s.Bucket == "" {
			return errors.New("storage.bucket is required for s3 storage")
		}
	}
	return nil
}

func (cv *configurationValidator) validateAlerts() error {
	a := cv.config.Alerts
	if _, err := backoffNormalizer.Parse(string(a.Backoff)); err != nil {
		return err
	}
	if a.MaxRetries < 0 {
		return errors.New("alerts.max_retries cannot be negative")
	}
	return nil
}

func (cv *configurationValidator) validatePublish() error {
	if cv.config.Publish.MaxThumbnailBytes < 0 {
		return errors.New("publish.max_thumbnail_bytes cannot be negative")
	}
	return nil
}

func (cv *configurationValidator) validateRecords() error {
	r := cv.config.Records
	if _, err := recordsKindNormalizer.Parse(string(r.Kind)); err != nil {
		return err
	}
	switch r.Kind {
	case RecordsSQLite:
		if strings.TrimSpace(r.Path) == "" {
			return errors.New("records.path is required for sqlite records")
		}
	case RecordsDynamo:
		if r.Table == "" || r.UserIndex == "" {
			return errors.New("records.table and records.user_index are required for dynamo records")
		}
	}
	return nil
}

func (cv *configurationValidator) validateDeploy() error {
	d := cv.config.Deploy
	if !d.Enabled() {
		return nil
	}
	if d.Repo == "" {
		return errors.New("deploy.repo is required when deploy.owner is set")
	}
	if d.BaseURL != "" {
		if err := validateAbsoluteURL("deploy.base_url", d.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateIdentity() error {
	for token, ti := range cv.config.Identity.Tokens {
		if strings.TrimSpace(token) == "" {
			return errors.New("identity.tokens contains an empty token")
		}
		if ti.ID == "" {
			return fmt.Errorf("identity.tokens entry for %s has no id", ti.Email)
		}
	}
	return nil
}

func (cv *configurationValidator) validatePathsCache() error {
	p := cv.config.PathsCache
	if err := validateDuration("paths_cache.ttl", p.TTL, false); err != nil {
		return err
	}
	return validateDuration("paths_cache.refresh_interval", p.RefreshInterval, true)
}

func (cv *configurationValidator) validateSite() error {
	s := cv.config.Site
	if s.BaseURL == "" {
		return errors.New("site.base_url is required")
	}
	if err := validateAbsoluteURL("site.base_url", s.BaseURL); err != nil {
		return err
	}
	if strings.Contains(s.BundleName, "/") {
		return fmt.Errorf("site.bundle_name must be a file name, got %q", s.BundleName)
	}
	return nil
}

// validateDuration requires a positive duration; optional values may be empty.
func validateDuration(field, v string, optional bool) error {
	if v == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("%s is required", field)
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, v)
	}
	return nil
}

func validateAbsoluteURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}
