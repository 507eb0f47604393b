// Package pipeline orchestrates one reporting run: resolve the
// dataset, compute statistics, persist a fresh snapshot when the data
// came from a live fetch, deliver the report, archive the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
	"ledgerdash/internal/report"
	"ledgerdash/internal/resolve"
	"ledgerdash/internal/snapshot"
	"ledgerdash/internal/stats"
	"ledgerdash/internal/storage"
)

// DataResolver yields the run's dataset. Satisfied by *resolve.Resolver.
type DataResolver interface {
	Resolve(ctx context.Context) (resolve.Result, error)
}

// Archive records run outcomes. Satisfied by *storage.SQLiteRepository.
type Archive interface {
	RecordRun(ctx context.Context, run storage.RunRecord) error
}

// Deps wires the pipeline. LocalWriter and RemoteWriter persist
// snapshots after a live fetch; DriveSink runs before the concurrent
// sinks so the email can carry the dashboard link. Every field except
// Resolver may be nil.
type Deps struct {
	Resolver     DataResolver
	LocalWriter  snapshot.Writer
	RemoteWriter snapshot.Writer
	DriveSink    report.Sink
	Sinks        []report.Sink
	Archive      Archive
	Logger       *log.Logger

	Title         string
	TopCategories int
	Now           func() time.Time
}

type Pipeline struct {
	deps   Deps
	logger *log.Logger
}

func New(deps Deps) (*Pipeline, error) {
	if deps.Resolver == nil {
		return nil, errors.New("pipeline: resolver is required")
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.TopCategories <= 0 {
		deps.TopCategories = stats.DefaultTopCategories
	}
	return &Pipeline{
		deps:   deps,
		logger: deps.Logger.WithComponent(log.ComponentPipeline),
	}, nil
}

// Run executes one full cycle. A resolve failure aborts before any
// snapshot or report is written; a delivery failure is reported after
// the snapshot has been persisted.
func (p *Pipeline) Run(ctx context.Context) (core.StatisticsReport, error) {
	runID := uuid.NewString()
	started := p.deps.Now()
	p.logger.InfoContext(ctx, "Run started", log.FieldRunID, runID)

	res, err := p.deps.Resolver.Resolve(ctx)
	if err != nil {
		p.archive(ctx, runID, started, storage.RunRecord{
			Status: storage.StatusFailed,
			Error:  err.Error(),
		})
		return core.StatisticsReport{}, fmt.Errorf("resolve dataset: %w", err)
	}

	rep := stats.Compute(res.Dataset, p.deps.Now(), p.deps.TopCategories)

	dashboard, err := report.RenderDashboard(p.deps.Title, rep, res.Dataset)
	if err != nil {
		p.archive(ctx, runID, started, storage.RunRecord{
			Status:     storage.StatusFailed,
			Provenance: string(res.Dataset.Provenance),
			Error:      err.Error(),
		})
		return core.StatisticsReport{}, err
	}

	if res.Dataset.Provenance == core.LiveFetch {
		p.persistSnapshot(ctx, res)
	}

	bundle := &report.Bundle{
		RunID:     runID,
		Report:    rep,
		Dataset:   res.Dataset,
		Dashboard: dashboard,
	}

	var deliveryErr error
	if p.deps.DriveSink != nil {
		if err := p.deps.DriveSink.Deliver(ctx, bundle); err != nil {
			p.logger.ErrorContext(ctx, "Sink delivery failed",
				log.FieldSink, p.deps.DriveSink.Name(), log.FieldError, err)
			deliveryErr = fmt.Errorf("sink %s: %w", p.deps.DriveSink.Name(), err)
		}
	}
	if err := report.Deliver(ctx, p.deps.Logger, p.deps.Sinks, bundle); err != nil {
		deliveryErr = errors.Join(deliveryErr, err)
	}

	record := storage.RunRecord{
		Status:         storage.StatusSucceeded,
		Provenance:     string(res.Dataset.Provenance),
		RecordCount:    res.Dataset.Len(),
		RejectedCount:  len(res.Rejections),
		LastMonth:      rep.LastCompleteMonth.String(),
		LastMonthTotal: rep.LastMonthTotal.StringFixed(2),
		MonthlyAverage: rep.MonthlyAverage.StringFixed(2),
	}
	if deliveryErr != nil {
		record.Status = storage.StatusFailed
		record.Error = deliveryErr.Error()
	}
	p.archive(ctx, runID, started, record)

	if deliveryErr != nil {
		return rep, fmt.Errorf("deliver report: %w", deliveryErr)
	}
	p.logger.InfoContext(ctx, "Run finished",
		log.FieldRunID, runID,
		log.FieldProvenance, string(res.Dataset.Provenance),
		log.FieldRecordCount, res.Dataset.Len(),
		log.FieldRejected, len(res.Rejections))
	return rep, nil
}

// persistSnapshot backs up a live fetch to the local and remote
// writers. Failures are logged, never fatal: the report still goes
// out, the next run just falls back to an older snapshot.
func (p *Pipeline) persistSnapshot(ctx context.Context, res resolve.Result) {
	data, err := snapshot.Encode(res.RawEntries)
	if err != nil {
		p.logger.ErrorContext(ctx, "Snapshot encode failed", log.FieldError, err)
		return
	}
	name := snapshot.Name(p.deps.Now())

	for _, w := range []struct {
		writer snapshot.Writer
		tier   string
	}{
		{p.deps.LocalWriter, "local"},
		{p.deps.RemoteWriter, "remote"},
	} {
		if w.writer == nil {
			continue
		}
		if _, err := w.writer.Write(ctx, name, data); err != nil {
			p.logger.WarnContext(ctx, "Snapshot write failed",
				log.FieldTier, w.tier, log.FieldSnapshot, name, log.FieldError, err)
			continue
		}
		p.logger.InfoContext(ctx, "Snapshot persisted",
			log.FieldTier, w.tier, log.FieldSnapshot, name)
	}
}

func (p *Pipeline) archive(ctx context.Context, runID string, started time.Time, record storage.RunRecord) {
	if p.deps.Archive == nil {
		return
	}
	record.ID = runID
	record.StartedAt = started
	record.FinishedAt = p.deps.Now()
	if err := p.deps.Archive.RecordRun(ctx, record); err != nil {
		p.logger.WarnContext(ctx, "Run archive failed", log.FieldRunID, runID, log.FieldError, err)
	}
}
