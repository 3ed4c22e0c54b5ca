package config

import (
	"git.home.luguber.info/inful/docpublish/internal/deploy"
	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/retry"
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// DefaultApplierRegistry runs every domain applier in order.
type DefaultApplierRegistry struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the registry with all domains.
func NewDefaultApplier() *DefaultApplierRegistry {
	return &DefaultApplierRegistry{appliers: []DefaultApplier{
		&ServerDefaultApplier{},
		&LoggingDefaultApplier{},
		&BackendDefaultApplier{},
		&IntegrationDefaultApplier{},
		&SiteDefaultApplier{},
	}}
}

// ApplyDefaults applies all domains.
func (r *DefaultApplierRegistry) ApplyDefaults(cfg *Config) error {
	for _, a := range r.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// ServerDefaultApplier handles server defaults.
type ServerDefaultApplier struct{}

func (ServerDefaultApplier) Domain() string { return "server" }

func (ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	s := &cfg.Server
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.ReadTimeout == "" {
		s.ReadTimeout = "30s"
	}
	if s.WriteTimeout == "" {
		s.WriteTimeout = "120s"
	}
	if s.ShutdownTimeout == "" {
		s.ShutdownTimeout = "30s"
	}
	return nil
}

// LoggingDefaultApplier handles logging defaults.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// BackendDefaultApplier handles storage and records defaults.
type BackendDefaultApplier struct{}

func (BackendDefaultApplier) Domain() string { return "backends" }

func (BackendDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.Kind == "" {
		cfg.Storage.Kind = StorageMemory
	}
	if cfg.Storage.Kind == StorageFS && cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "./data/objects"
	}
	if cfg.Records.Kind == "" {
		cfg.Records.Kind = RecordsSQLite
	}
	if cfg.Records.Kind == RecordsSQLite && cfg.Records.Path == "" {
		cfg.Records.Path = "./data/records.db"
	}
	if cfg.Records.Kind == RecordsDynamo {
		if cfg.Records.Table == "" {
			cfg.Records.Table = "extensions"
		}
		if cfg.Records.UserIndex == "" {
			cfg.Records.UserIndex = "user-index"
		}
	}
	return nil
}

// IntegrationDefaultApplier handles payments, deploy, alerts and paths cache.
type IntegrationDefaultApplier struct{}

func (IntegrationDefaultApplier) Domain() string { return "integrations" }

func (IntegrationDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "usd"
	}
	if cfg.Deploy.Enabled() {
		if cfg.Deploy.Workflow == "" {
			cfg.Deploy.Workflow = deploy.DefaultWorkflow
		}
		if cfg.Deploy.Ref == "" {
			cfg.Deploy.Ref = "main"
		}
		if cfg.Deploy.Input == "" {
			cfg.Deploy.Input = "extension"
		}
		if cfg.Deploy.Rate == 0 {
			cfg.Deploy.Rate = deploy.DefaultRate
		}
	}
	if cfg.Alerts.Subject == "" {
		cfg.Alerts.Subject = "docpublish.alerts"
	}
	if cfg.Alerts.Backoff == "" {
		def := retry.DefaultPolicy()
		cfg.Alerts.Backoff = def.Mode
		if cfg.Alerts.MaxRetries == 0 {
			cfg.Alerts.MaxRetries = def.MaxRetries
		}
	}
	if cfg.PathsCache.TTL == "" {
		cfg.PathsCache.TTL = "5m"
	}
	return nil
}

// SiteDefaultApplier handles site defaults.
type SiteDefaultApplier struct{}

func (SiteDefaultApplier) Domain() string { return "site" }

func (SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.BundleName == "" {
		cfg.Site.BundleName = publish.DefaultBundleName
	}
	if cfg.Publish.MaxThumbnailBytes == 0 {
		cfg.Publish.MaxThumbnailBytes = publish.DefaultMaxThumbnailBytes
	}
	return nil
}
