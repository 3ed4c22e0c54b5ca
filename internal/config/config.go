// Package config loads the docpublish configuration file.
package config

import (
	"time"

	"git.home.luguber.info/inful/docpublish/internal/identity"
	"git.home.luguber.info/inful/docpublish/internal/retry"
)

// Version is the only configuration format version accepted by Load.
const Version = "1.0"

// Config is the root of the configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Records    RecordsConfig    `yaml:"records"`
	Payments   PaymentsConfig   `yaml:"payments"`
	Deploy     DeployConfig     `yaml:"deploy"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Identity   IdentityConfig   `yaml:"identity"`
	PathsCache PathsCacheConfig `yaml:"paths_cache"`
	Publish    PublishConfig    `yaml:"publish"`
	Site       SiteConfig       `yaml:"site"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	// ShutdownTimeout bounds graceful shutdown of in-flight publishes.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MetricsEnabled  bool   `yaml:"metrics_enabled"`
}

// LoggingConfig configures the process-wide slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// StorageConfig selects the object storage holding documents and bundles.
type StorageConfig struct {
	Kind   StorageKind `yaml:"kind"`
	Dir    string      `yaml:"dir"`    // fs
	Bucket string      `yaml:"bucket"` // s3
	Region string      `yaml:"region"` // s3
	// Endpoint overrides the S3 endpoint (MinIO, localstack).
	Endpoint string `yaml:"endpoint"`
}

// RecordsConfig selects the extension metadata store.
type RecordsConfig struct {
	Kind      RecordsKind `yaml:"kind"`
	Path      string      `yaml:"path"`       // sqlite
	Table     string      `yaml:"table"`      // dynamo
	UserIndex string      `yaml:"user_index"` // dynamo
	Region    string      `yaml:"region"`     // dynamo
	Endpoint  string      `yaml:"endpoint"`   // dynamo
}

// PaymentsConfig configures the payment platform. An empty SecretKey disables
// premium provisioning.
type PaymentsConfig struct {
	SecretKey         string `yaml:"secret_key"`
	Currency          string `yaml:"currency"`
	MaxNetworkRetries int64  `yaml:"max_network_retries"`
	URL               string `yaml:"url"`
}

// Enabled reports whether a payment platform is configured.
func (p PaymentsConfig) Enabled() bool { return p.SecretKey != "" }

// DeployConfig configures the site redeploy webhook. An empty Owner disables
// it.
type DeployConfig struct {
	Owner    string  `yaml:"owner"`
	Repo     string  `yaml:"repo"`
	Workflow string  `yaml:"workflow"`
	Ref      string  `yaml:"ref"`
	Input    string  `yaml:"input"`
	Token    string  `yaml:"token"`
	BaseURL  string  `yaml:"base_url"`
	Rate     float64 `yaml:"rate"`
}

// Enabled reports whether a deploy target is configured.
func (d DeployConfig) Enabled() bool { return d.Owner != "" }

// AlertsConfig configures the operator alert channel. Alerts are always
// logged; NATS is added when URL is set.
type AlertsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
	// Backoff and MaxRetries shape redelivery of failed NATS publishes.
	Backoff    retry.BackoffMode `yaml:"backoff"`
	MaxRetries int               `yaml:"max_retries"`
}

// RetryPolicy returns the publish retry policy for the alert channel.
func (a AlertsConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(a.Backoff, 0, 0, a.MaxRetries)
}

// IdentityConfig maps bearer tokens to callers.
type IdentityConfig struct {
	Tokens map[string]TokenIdentity `yaml:"tokens"`
}

// TokenIdentity is the caller a bearer token resolves to.
type TokenIdentity struct {
	ID            string `yaml:"id"`
	Email         string `yaml:"email"`
	PayoutAccount string `yaml:"payout_account"`
}

// Identities converts the token table for identity.NewStaticResolver.
func (c IdentityConfig) Identities() map[string]identity.Identity {
	out := make(map[string]identity.Identity, len(c.Tokens))
	for token, ti := range c.Tokens {
		out[token] = identity.Identity{ID: ti.ID, Email: ti.Email, PayoutAccount: ti.PayoutAccount}
	}
	return out
}

// PathsCacheConfig configures the owner-to-paths cache.
type PathsCacheConfig struct {
	TTL             string `yaml:"ttl"`
	RefreshInterval string `yaml:"refresh_interval"`
}

// PublishConfig tunes the publish pipeline.
type PublishConfig struct {
	SerializePerPath bool `yaml:"serialize_per_path"`
	// MaxThumbnailBytes caps a fetched thumbnail; larger ones fail the upload.
	MaxThumbnailBytes int64 `yaml:"max_thumbnail_bytes"`
}

// SiteConfig describes the documentation site the entry URL points at.
type SiteConfig struct {
	BaseURL    string `yaml:"base_url"`
	BundleName string `yaml:"bundle_name"`
}

// ReadTimeoutDuration returns the parsed server read timeout.
func (s ServerConfig) ReadTimeoutDuration() time.Duration { return mustDuration(s.ReadTimeout) }

// WriteTimeoutDuration returns the parsed server write timeout.
func (s ServerConfig) WriteTimeoutDuration() time.Duration { return mustDuration(s.WriteTimeout) }

// ShutdownTimeoutDuration returns the parsed graceful shutdown bound.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(s.ShutdownTimeout)
}

// TTLDuration returns the parsed cache TTL.
func (p PathsCacheConfig) TTLDuration() time.Duration { return mustDuration(p.TTL) }

// RefreshDuration returns the parsed refresh interval; zero disables the job.
func (p PathsCacheConfig) RefreshDuration() time.Duration { return mustDuration(p.RefreshInterval) }

// mustDuration parses a duration already checked by validation.
func mustDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
