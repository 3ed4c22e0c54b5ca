package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpublish/internal/deploy"
	"git.home.luguber.info/inful/docpublish/internal/identity"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/metrics"
	"git.home.luguber.info/inful/docpublish/internal/monetization"
	"git.home.luguber.info/inful/docpublish/internal/notify"
	"git.home.luguber.info/inful/docpublish/internal/observability"
	"git.home.luguber.info/inful/docpublish/internal/records"
	"git.home.luguber.info/inful/docpublish/internal/storage"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Ownership answers whether an owner may publish a path.
type Ownership interface {
	Owns(ctx context.Context, owner, path string) (bool, error)
}

// Provisioner drives the premium tier of a path.
type Provisioner interface {
	Apply(ctx context.Context, path, currentRef string, desired *monetization.Descriptor) (monetization.Outcome, error)
}

// Dependencies are the collaborators of a Pipeline.
type Dependencies struct {
	Bucket      storage.Bucket
	Records     records.Store
	Ownership   Ownership
	Provisioner Provisioner
	Deploy      deploy.Trigger
	Sink        notify.Sink
	// HTTPClient fetches thumbnails. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithClock sets the time source used for versions and durations.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// WithSite sets the public base URL and the bundle file name.
func WithSite(baseURL, bundle string) Option {
	return func(p *Pipeline) {
		p.baseURL = baseURL
		if bundle != "" {
			p.bundle = bundle
		}
	}
}

// WithSerializePerPath makes concurrent publishes of the same path run one
// after the other inside this process.
func WithSerializePerPath(on bool) Option {
	return func(p *Pipeline) {
		if on {
			p.locks = newPathLocks()
		} else {
			p.locks = nil
		}
	}
}

// WithMaxThumbnailBytes caps the size of a fetched thumbnail.
func WithMaxThumbnailBytes(n int64) Option { return func(p *Pipeline) { p.maxThumb = n } }

// Pipeline publishes documentation.
type Pipeline struct {
	deps     Dependencies
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
	baseURL  string
	bundle   string
	locks    *pathLocks
	maxThumb int64
}

// New returns a Pipeline. Bucket, Records and Ownership are required; a
// missing deploy trigger, provisioner or sink is replaced by a no-op.
func New(deps Dependencies, opts ...Option) (*Pipeline, error) {
	if deps.Bucket == nil || deps.Records == nil || deps.Ownership == nil {
		return nil, derrors.ConfigError("publish pipeline requires a bucket, a record store and an ownership source").Build()
	}
	p := &Pipeline{
		deps:     deps,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
		bundle:   DefaultBundleName,
		maxThumb: DefaultMaxThumbnailBytes,
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = slog.New(observability.NewContextHandler(p.logger.Handler()))
	if p.deps.Deploy == nil {
		p.deps.Deploy = deploy.NoopTrigger{Logger: p.logger}
	}
	if p.deps.Sink == nil {
		p.deps.Sink = notify.LogSink{Logger: p.logger}
	}
	return p, nil
}

// Publish runs the pipeline for req on behalf of who. The returned error is
// classified: validation (400), forbidden (403) or anything else (500, with
// the operator alert id attached). The report is returned in every case.
func (p *Pipeline) Publish(ctx context.Context, who identity.Identity, req Request) (*Report, error) {
	start := p.now()
	rep := &Report{
		PublishID: uuid.NewString(),
		Path:      req.Path,
		Version:   Version(start),
		Start:     start,
	}
	ctx = observability.WithOwner(observability.WithPublishID(ctx, rep.PublishID), who.ID)
	logger := p.logger.With(logfields.Path(req.Path))

	err := p.publish(ctx, logger, who, req, rep)

	result := metrics.OutcomeSuccess
	if err != nil {
		result = metrics.OutcomeFailed
		if isCallerError(err) {
			result = metrics.OutcomeRejected
		} else {
			err = p.alert(ctx, rep, err)
		}
	}
	rep.finish(p.now(), result)
	p.recorder.IncPublishOutcome(result)
	p.recorder.ObservePublishDuration(rep.Duration())

	if err != nil {
		logger.WarnContext(ctx, "Publish failed", slog.String("outcome", rep.Outcome), logfields.Error(err))
		return rep, err
	}
	logger.InfoContext(ctx, "Published documentation",
		logfields.Version(rep.Version),
		logfields.Count(len(rep.Uploaded)),
		logfields.DurationMS(float64(rep.Duration().Milliseconds())))
	return rep, nil
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, who identity.Identity, req Request, rep *Report) error {
	if err := p.stage(ctx, logger, rep, StageValidate, func(context.Context) error {
		return Validate(req)
	}); err != nil {
		return err
	}
	if err := p.stage(ctx, logger, rep, StageAuthorize, func(ctx context.Context) error {
		return p.authorize(ctx, who, req)
	}); err != nil {
		return err
	}

	if p.locks != nil {
		unlock := p.locks.lock(req.Path)
		defer unlock()
	}

	if err := p.stage(ctx, logger, rep, StageArchive, func(ctx context.Context) error {
		raw, err := req.Raw()
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "Failed to encode publish request").Build()
		}
		_, err = Archive(ctx, p.deps.Bucket, req.Path, rep.Version, raw)
		return err
	}); err != nil {
		return err
	}

	var current records.Record
	if err := p.stage(ctx, logger, rep, StageFetchRecord, func(ctx context.Context) error {
		rec, err := p.deps.Records.Get(ctx, req.Path)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryRecords, "Failed to fetch extension record").
				WithContext("path", req.Path).Build()
		}
		current = rec
		return nil
	}); err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error { return p.metadataBranch(ctx, logger, req, current, rep) })
	g.Go(func() error { return p.assetBranch(ctx, logger, req, rep) })
	if err := g.Wait(); err != nil {
		return err
	}

	if !req.PublishesBundle() {
		p.skip(rep, StageBundle)
		return nil
	}
	return p.stage(ctx, logger, rep, StageBundle, func(ctx context.Context) error {
		res, err := p.uploader(logger).publishBundle(ctx, req.Path, rep.Version, p.bundle, CodeFromBlock(req.Implementation))
		rep.Uploaded = append(rep.Uploaded, res.keys(BundleAssets(req.Path, rep.Version, p.bundle, ""))...)
		return err
	})
}

func (p *Pipeline) authorize(ctx context.Context, who identity.Identity, req Request) error {
	owns, err := p.deps.Ownership.Owns(ctx, who.ID, req.Path)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRecords, "Failed to get the user's current extensions").Build()
	}
	if !owns {
		return derrors.ForbiddenError("User does not have access to path " + req.Path).Build()
	}
	if req.Premium != nil && !who.CanMonetize() {
		return derrors.ForbiddenError("User must connect a payout account before publishing premium extensions").Build()
	}
	return nil
}

// metadataBranch provisions the premium tier, then syncs the record.
// Provisioning failures are reported and absorbed.
func (p *Pipeline) metadataBranch(ctx context.Context, logger *slog.Logger, req Request, current records.Record, rep *Report) error {
	desired := records.Desired{
		Description: req.Description,
		Src:         req.Entry,
	}
	if desired.Src == "" {
		desired.Src = EntryURL(p.baseURL, req.Path, p.bundle)
	}

	if p.deps.Provisioner == nil {
		p.skip(rep, StageMonetization)
	} else {
		t0 := p.now()
		o, err := p.deps.Provisioner.Apply(ctx, req.Path, current.PriceRef, req.Premium)
		if err != nil {
			sr := StageReport{Stage: StageMonetization, Result: StageResultWarning, Duration: p.now().Sub(t0), Error: err.Error()}
			a := p.newAlert(rep, StageMonetization, fmt.Sprintf("Failed to provision premium tier for %s.", req.Path), err)
			if id, rerr := p.deps.Sink.Report(ctx, a); rerr == nil {
				sr.AlertID = id
			} else {
				logger.ErrorContext(ctx, "Failed to report provisioning failure", logfields.Error(rerr))
			}
			logger.ErrorContext(ctx, "Premium provisioning failed", logfields.Stage(string(StageMonetization)), logfields.Error(err))
			p.record(rep, sr)
		} else {
			rep.Transition = o.Transition
			desired.PriceRef = o.PriceRef
			if o.Transition != monetization.TransitionNone {
				p.recorder.IncProvisioningTransition(string(o.Transition))
			}
			p.record(rep, StageReport{Stage: StageMonetization, Result: StageResultSuccess, Duration: p.now().Sub(t0)})
		}
	}

	return p.stage(ctx, logger, rep, StageMetadata, func(ctx context.Context) error {
		changes, err := SyncMetadata(ctx, p.deps.Records, current, desired)
		for _, c := range changes {
			rep.MetadataChanges = append(rep.MetadataChanges, string(c.Field))
		}
		return err
	})
}

// assetBranch deletes stale subpages, uploads every asset, then triggers
// the site rebuild.
func (p *Pipeline) assetBranch(ctx context.Context, logger *slog.Logger, req Request, rep *Report) error {
	docs := Render(req)
	rep.LinkWarnings = docs.LinkWarnings(req.Path)
	for _, w := range rep.LinkWarnings {
		logger.WarnContext(ctx, "Link to unknown subpage", logfields.Subpage(w.Document), logfields.URL(w.Destination))
	}

	if err := p.stage(ctx, logger, rep, StageReconcile, func(ctx context.Context) error {
		deleted, err := Reconcile(ctx, p.deps.Bucket, req.Path, docs.Keys())
		rep.DeletedSubpages = deleted
		p.recorder.AddStaleSubpagesDeleted(len(deleted))
		if len(deleted) > 0 {
			logger.InfoContext(ctx, "Deleted stale subpages", logfields.Count(len(deleted)))
		}
		return err
	}); err != nil {
		return err
	}

	assets := DocumentAssets(req.Path, docs)
	if u := req.ThumbnailURL(); u != "" {
		assets = append(assets, ThumbnailAsset(p.deps.HTTPClient, req.Path, u, p.maxThumb))
	}
	if err := p.stage(ctx, logger, rep, StageUpload, func(ctx context.Context) error {
		res, err := p.uploader(logger).upload(ctx, assets)
		rep.Uploaded = res.keys(assets)
		rep.ETag = res.ETags[DocumentKey(req.Path)]
		return err
	}); err != nil {
		return err
	}

	return p.stage(ctx, logger, rep, StageDeploy, func(ctx context.Context) error {
		res, err := p.deps.Deploy.Trigger(ctx, req.Path)
		p.recorder.IncDeployTrigger(err == nil)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryDeploy, "Failed to redeploy").
				WithContext("path", req.Path).Build()
		}
		rep.DeployStatus = res.Status
		rep.DeployETag = res.ETag
		return nil
	})
}

func (p *Pipeline) uploader(logger *slog.Logger) uploader {
	return uploader{bucket: p.deps.Bucket, observe: p.recorder.ObserveUpload, logger: logger}
}

// stage runs fn as stage name and records its outcome. A failure is fatal.
func (p *Pipeline) stage(ctx context.Context, logger *slog.Logger, rep *Report, name StageName, fn func(context.Context) error) error {
	logger.DebugContext(ctx, "Stage started", logfields.Stage(string(name)))
	t0 := p.now()
	err := fn(ctx)
	sr := StageReport{Stage: name, Result: StageResultSuccess, Duration: p.now().Sub(t0)}
	if err != nil {
		sr.Result = StageResultFatal
		sr.Error = err.Error()
		level := slog.LevelError
		if isCallerError(err) {
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, "Stage failed", logfields.Stage(string(name)), logfields.Error(err))
	} else {
		logger.DebugContext(ctx, "Stage finished", logfields.Stage(string(name)),
			logfields.DurationMS(float64(sr.Duration.Microseconds())/1000))
	}
	p.record(rep, sr)
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

func (p *Pipeline) skip(rep *Report, name StageName) {
	p.record(rep, StageReport{Stage: name, Result: StageResultSkipped})
}

func (p *Pipeline) record(rep *Report, sr StageReport) {
	rep.addStage(sr)
	p.recorder.IncStageResult(string(sr.Stage), sr.Result.label())
	if sr.Result != StageResultSkipped {
		p.recorder.ObserveStageDuration(string(sr.Stage), sr.Duration)
	}
}

func (p *Pipeline) newAlert(rep *Report, stage StageName, subject string, err error) notify.Alert {
	a := notify.NewAlert(subject, err)
	a.Path = rep.Path
	a.Stage = string(stage)
	a.PublishID = rep.PublishID
	a.Category = string(derrors.GetCategory(err))
	return a
}

// alert reports a failed publish to the operator sink and returns the error
// the caller sees: classified, with the alert id attached.
func (p *Pipeline) alert(ctx context.Context, rep *Report, err error) error {
	stage := StageName("")
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}

	c, ok := derrors.AsClassified(err)
	if !ok {
		c = derrors.WrapError(err, derrors.CategoryInternal, "Unexpected publish failure").Build()
	}

	a := p.newAlert(rep, stage, fmt.Sprintf("Failed to publish documentation for %s.", rep.Path), err)
	id, rerr := p.deps.Sink.Report(ctx, a)
	if rerr != nil {
		p.logger.ErrorContext(ctx, "Failed to report publish failure", logfields.Path(rep.Path), logfields.Error(rerr))
		return c
	}
	if stage != "" {
		p.setAlertID(rep, stage, id)
	}
	return c.WithContext(derrors.ContextAlertID, id)
}

func (p *Pipeline) setAlertID(rep *Report, stage StageName, id string) {
	rep.mu.Lock()
	defer rep.mu.Unlock()
	for i := len(rep.Stages) - 1; i >= 0; i-- {
		if rep.Stages[i].Stage == stage {
			rep.Stages[i].AlertID = id
			return
		}
	}
}

func isCallerError(err error) bool {
	switch derrors.GetCategory(err) {
	case derrors.CategoryValidation, derrors.CategoryForbidden, derrors.CategoryAuth:
		return true
	default:
		return false
	}
}
