package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/deploy"
	"git.home.luguber.info/inful/docpublish/internal/identity"
	"git.home.luguber.info/inful/docpublish/internal/metrics"
	"git.home.luguber.info/inful/docpublish/internal/monetization"
	"git.home.luguber.info/inful/docpublish/internal/notify"
	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/records"
	"git.home.luguber.info/inful/docpublish/internal/storage"
)

// Runtime is the set of services built from a configuration.
type Runtime struct {
	Bucket   storage.Bucket
	Records  records.Store
	Paths    *identity.PathsCache
	Resolver *identity.StaticResolver
	Pipeline *publish.Pipeline
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases every backend connection in reverse creation order.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// MetricsHandler returns the /metrics handler, or nil when metrics are off.
func (rt *Runtime) MetricsHandler() http.Handler {
	if rt.Registry == nil {
		return nil
	}
	return metrics.HTTPHandler(rt.Registry)
}

// BuildRuntime wires storage, records, payments, deploy, alerts, identity and
// metrics from cfg. The caller must Close the runtime.
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Runtime, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	var awsCfg *aws.Config
	loadAWS := func(region string) (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		var opts []func(*awsconfig.LoadOptions) error
		if region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		c, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	if rt.Bucket, err = buildBucket(cfg.Storage, loadAWS); err != nil {
		return nil, err
	}
	if rt.Records, err = buildRecords(cfg.Records, loadAWS); err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, rt.Records.Close)

	sink, err := buildSink(cfg.Alerts, logger, rt)
	if err != nil {
		return nil, err
	}

	trigger, err := buildTrigger(cfg.Deploy, logger)
	if err != nil {
		return nil, err
	}

	var provisioner publish.Provisioner
	if cfg.Payments.Enabled() {
		platform := monetization.NewStripePlatform(monetization.StripeConfig{
			SecretKey:         cfg.Payments.SecretKey,
			MaxNetworkRetries: cfg.Payments.MaxNetworkRetries,
			URL:               cfg.Payments.URL,
			Logger:            logger,
		})
		provisioner = monetization.NewProvisioner(platform, cfg.Payments.Currency, logger)
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Server.MetricsEnabled {
		rt.Registry = prometheus.NewRegistry()
		rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(rt.Registry)
	}

	rt.Resolver = identity.NewStaticResolver(cfg.Identity.Identities())
	rt.Paths = identity.NewPathsCache(rt.Records, cfg.PathsCache.TTLDuration())
	rt.closers = append(rt.closers, rt.Paths.Stop)

	rt.Pipeline, err = publish.New(publish.Dependencies{
		Bucket:      rt.Bucket,
		Records:     rt.Records,
		Ownership:   rt.Paths,
		Provisioner: provisioner,
		Deploy:      trigger,
		Sink:        sink,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	},
		publish.WithRecorder(recorder),
		publish.WithLogger(logger),
		publish.WithSite(cfg.Site.BaseURL, cfg.Site.BundleName),
		publish.WithSerializePerPath(cfg.Publish.SerializePerPath),
		publish.WithMaxThumbnailBytes(cfg.Publish.MaxThumbnailBytes),
	)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func buildBucket(cfg config.StorageConfig, loadAWS func(string) (aws.Config, error)) (storage.Bucket, error) {
	switch cfg.Kind {
	case config.StorageMemory:
		return storage.NewMemoryBucket(), nil
	case config.StorageFS:
		return storage.NewFSBucket(cfg.Dir)
	case config.StorageS3:
		awsCfg, err := loadAWS(cfg.Region)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			}
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
		return storage.NewS3Bucket(client, cfg.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported storage kind %q", cfg.Kind)
	}
}

func buildRecords(cfg config.RecordsConfig, loadAWS func(string) (aws.Config, error)) (records.Store, error) {
	switch cfg.Kind {
	case config.RecordsSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
				return nil, fmt.Errorf("create records directory: %w", err)
			}
		}
		return records.NewSQLiteStore(cfg.Path)
	case config.RecordsDynamo:
		awsCfg, err := loadAWS(cfg.Region)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			}
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
		return records.NewDynamoStore(client, cfg.Table, cfg.UserIndex), nil
	default:
		return nil, fmt.Errorf("unsupported records kind %q", cfg.Kind)
	}
}

// buildSink always logs alerts and also publishes them to NATS when configured.
func buildSink(cfg config.AlertsConfig, logger *slog.Logger, rt *Runtime) (notify.Sink, error) {
	logSink := notify.LogSink{Logger: logger}
	if cfg.NATSURL == "" {
		return logSink, nil
	}
	natsSink, err := notify.NewNATSSink(cfg.NATSURL, cfg.Subject, cfg.RetryPolicy())
	if err != nil {
		return nil, fmt.Errorf("connect alert channel: %w", err)
	}
	rt.closers = append(rt.closers, natsSink.Close)
	return notify.MultiSink{logSink, natsSink}, nil
}

func buildTrigger(cfg config.DeployConfig, logger *slog.Logger) (deploy.Trigger, error) {
	if !cfg.Enabled() {
		return deploy.NoopTrigger{Logger: logger}, nil
	}
	return deploy.NewGitHubTrigger(deploy.GitHubConfig{
		Owner:         cfg.Owner,
		Repo:          cfg.Repo,
		Workflow:      cfg.Workflow,
		Ref:           cfg.Ref,
		InputName:     cfg.Input,
		Token:         cfg.Token,
		BaseURL:       cfg.BaseURL,
		RatePerSecond: cfg.Rate,
		Logger:        logger,
	})
}
