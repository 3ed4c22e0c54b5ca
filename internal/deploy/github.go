package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultWorkflow is the workflow file dispatched per publish.
	DefaultWorkflow = "isr.yaml"

	// DefaultRate throttles dispatches well below the authenticated API quota.
	DefaultRate = 1.0
)

// GitHubConfig configures GitHubTrigger.
type GitHubConfig struct {
	Owner    string
	Repo     string
	Workflow string
	Ref      string
	// InputName is the workflow input carrying the extension path.
	InputName string
	Token     string
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string
	// RatePerSecond caps dispatches; zero means DefaultRate.
	RatePerSecond float64
	Logger        *slog.Logger
}

// GitHubTrigger dispatches a GitHub Actions workflow per publish.
type GitHubTrigger struct {
	gh      *gh.Client
	cfg     GitHubConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGitHubTrigger creates an authenticated dispatcher.
func NewGitHubTrigger(cfg GitHubConfig) (*GitHubTrigger, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("deploy: owner and repo are required")
	}
	if cfg.Workflow == "" {
		cfg.Workflow = DefaultWorkflow
	}
	if cfg.Ref == "" {
		cfg.Ref = "main"
	}
	if cfg.InputName == "" {
		cfg.InputName = "extension"
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(context.Background(), ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = DefaultTimeout

	client := gh.NewClient(hc)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("deploy: parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHubTrigger{
		gh:      client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:  logger,
	}, nil
}

// Trigger dispatches the workflow with the extension path as input.
func (t *GitHubTrigger) Trigger(ctx context.Context, path string) (Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := t.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, t.cfg.Owner, t.cfg.Repo, t.cfg.Workflow,
		gh.CreateWorkflowDispatchEventRequest{
			Ref:    t.cfg.Ref,
			Inputs: map[string]any{t.cfg.InputName: path},
		})
	var res Result
	if resp != nil && resp.Response != nil {
		res.Status = resp.StatusCode
		res.ETag = resp.Header.Get("ETag")
	}
	if err != nil {
		return res, fmt.Errorf("dispatch %s on %s/%s: %w", t.cfg.Workflow, t.cfg.Owner, t.cfg.Repo, err)
	}

	t.logger.InfoContext(ctx, "Site rebuild dispatched",
		logfields.Path(path), logfields.Status(res.Status), slog.String("workflow", t.cfg.Workflow))
	return res, nil
}
