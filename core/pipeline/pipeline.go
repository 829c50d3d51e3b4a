// Package pipeline wires a full run: fetch, decode, normalize,
// validate, diff, and version, with the state tracker observing every
// stage. Any stage failure aborts the run as a whole; there are no
// retries and no partial results.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/santoshpalla27/aws-frontend-estimation/core/decode"
	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/core/diff"
	"github.com/santoshpalla27/aws-frontend-estimation/core/fetch"
	"github.com/santoshpalla27/aws-frontend-estimation/core/normalize"
	"github.com/santoshpalla27/aws-frontend-estimation/core/pricing"
	"github.com/santoshpalla27/aws-frontend-estimation/core/registry"
	"github.com/santoshpalla27/aws-frontend-estimation/core/state"
	"github.com/santoshpalla27/aws-frontend-estimation/core/validate"
	"github.com/santoshpalla27/aws-frontend-estimation/core/version"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/config"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// Result summarizes a successful run
type Result struct {
	RunID    string
	Version  string
	Previous string
	Services []string
	Report   *diff.Report
}

// Pipeline owns the per-run components. Build one per run; the state
// tracker inside it is single-use.
type Pipeline struct {
	cfg       *config.Config
	registry  *registry.Registry
	fetcher   *fetch.Fetcher
	decoder   *decode.Decoder
	engine    *normalize.Engine
	validator *validate.Validator
	differ    *diff.Differ
	writer    *version.Writer
	tracker   *state.Tracker
	log       *zap.Logger
}

// New assembles a pipeline from the configuration and service table
func New(cfg *config.Config, reg *registry.Registry) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		registry:  reg,
		fetcher:   fetch.New(cfg),
		decoder:   decode.NewDecoder(),
		engine:    normalize.NewEngine(normalize.DefaultProcessors(), cfg.Currency),
		validator: validate.New(),
		differ:    diff.New(),
		writer:    version.NewWriter(cfg.OutputDir, time.Now),
		tracker:   state.NewTracker(),
		log:       logging.Component("pipeline"),
	}
}

type serviceRun struct {
	code     string
	snapshot *pricing.ServicePricing
	diff     *diff.ServiceDiff
}

// Run executes one full pipeline run. Services are processed
// independently with bounded concurrency; the versioner acts as the
// barrier and runs only after every service has validated and the
// downloaded and processed sets have been proven equal.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if !pricing.KnownRegion(p.cfg.Region) {
		return nil, errors.Newf(errors.TypeConfig, "unknown pricing region %q", p.cfg.Region)
	}
	defs := p.registry.Enabled()
	if len(defs) == 0 {
		return nil, errors.Config("no services are enabled")
	}

	manifest, err := p.fetcher.FetchAll(ctx, defs)
	if err != nil {
		return nil, err
	}
	for _, code := range manifest.Downloaded {
		p.tracker.Register(code)
	}

	runs := make([]*serviceRun, len(defs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Fetch.Concurrency)
	for i, def := range defs {
		i, def := i, def
		if _, bound := p.engine.Resolve(def.Processor); !bound {
			p.log.Warn("no processor bound, service will fail the parity check",
				zap.String("service", def.Code),
				zap.String("processor", def.Processor))
			continue
		}
		group.Go(func() error {
			run, err := p.processService(groupCtx, def)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	processed := make([]string, 0, len(defs))
	diffs := make([]*diff.ServiceDiff, 0, len(defs))
	snapshots := make(map[string]*pricing.ServicePricing, len(defs))
	for _, run := range runs {
		if run == nil {
			continue
		}
		processed = append(processed, run.code)
		diffs = append(diffs, run.diff)
		snapshots[run.code] = run.snapshot
	}

	if err := state.CheckParity(manifest.Downloaded, processed); err != nil {
		return nil, err
	}

	report := diff.NewReport(diffs)
	plan, err := p.writer.Plan(report)
	if err != nil {
		return nil, err
	}
	if err := p.writer.Publish(plan, snapshots, report); err != nil {
		return nil, err
	}

	for _, code := range processed {
		if err := p.tracker.MarkOutput(code); err != nil {
			return nil, err
		}
		if err := p.tracker.MarkVersioned(code); err != nil {
			return nil, err
		}
	}
	if err := p.tracker.CheckComplete(); err != nil {
		return nil, err
	}

	p.log.Info("run complete",
		zap.String("runId", manifest.RunID),
		zap.String("version", plan.Next),
		zap.Int("services", len(processed)),
	)
	return &Result{
		RunID:    manifest.RunID,
		Version:  plan.Next,
		Previous: plan.Previous,
		Services: processed,
		Report:   report,
	}, nil
}

// processService carries one service from its raw document to a
// validated, diffed snapshot, advancing its state as it goes.
func (p *Pipeline) processService(ctx context.Context, def registry.ServiceDefinition) (*serviceRun, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	doc, err := p.decoder.DecodeFile(p.fetcher.RawPath(def.Code), def.Code, p.cfg.Region)
	if err != nil {
		return nil, err
	}

	snapshot, stats, err := p.engine.Normalize(def, doc)
	if err != nil {
		return nil, err
	}
	if err := p.tracker.MarkNormalized(def.Code); err != nil {
		return nil, err
	}

	data, err := determinism.MarshalCanonical(snapshot)
	if err != nil {
		return nil, err
	}
	if err := p.validator.Check(def.Code, data); err != nil {
		return nil, err
	}
	if err := p.tracker.MarkValidated(def.Code); err != nil {
		return nil, err
	}

	previous, _, err := p.writer.ReadLatestSnapshot(def.Code)
	if err != nil {
		return nil, err
	}
	serviceDiff, err := p.differ.Compare(def.Code, previous, data)
	if err != nil {
		return nil, err
	}

	p.log.Info("service processed",
		zap.String("service", def.Code),
		zap.String("bump", serviceDiff.Bump.String()),
		zap.Int("changes", len(serviceDiff.Changes)),
		zap.Int("components", stats.Components),
	)
	return &serviceRun{code: def.Code, snapshot: snapshot, diff: serviceDiff}, nil
}
