package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpublish/internal/retry"
)

// Load reads, normalizes, defaults and validates a configuration file.
// Variables from .env and .env.local are available to ${VAR} expansion.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil && !isNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration content after environment expansion.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Version != Version {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected %s)", config.Version, Version)
	}

	if nres, nerr := NormalizeConfig(&config); nerr != nil {
		return nil, fmt.Errorf("normalize: %w", nerr)
	} else if len(nres.Warnings) > 0 {
		for _, w := range nres.Warnings {
			fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
		}
	}
	if err := NewDefaultApplier().ApplyDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Version: Version,
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "30s",
			WriteTimeout:    "120s",
			ShutdownTimeout: "30s",
			MetricsEnabled:  true,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Storage: StorageConfig{Kind: StorageS3, Bucket: "${DOCPUBLISH_BUCKET}", Region: "us-east-1"},
		Records: RecordsConfig{Kind: RecordsSQLite, Path: "./data/records.db"},
		Payments: PaymentsConfig{
			SecretKey:         "${STRIPE_SECRET_KEY}",
			Currency:          "usd",
			MaxNetworkRetries: 2,
		},
		Deploy: DeployConfig{
			Owner: "your-org",
			Repo:  "docs-site",
			Token: "${GITHUB_TOKEN}",
		},
		Alerts: AlertsConfig{
			NATSURL:    "${NATS_URL}",
			Subject:    "docpublish.alerts",
			Backoff:    retry.BackoffExponential,
			MaxRetries: 2,
		},
		Identity: IdentityConfig{Tokens: map[string]TokenIdentity{
			"${DOCPUBLISH_DEV_TOKEN}": {ID: "developer-1", Email: "dev@example.com"},
		}},
		PathsCache: PathsCacheConfig{TTL: "5m", RefreshInterval: "1m"},
		Site:       SiteConfig{BaseURL: "https://docs.example.com/extensions", BundleName: "main.js"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
