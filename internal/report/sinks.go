package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
	"ledgerdash/internal/snapshot"
)

type (
	// Bundle carries everything a run produced to the sinks.
	Bundle struct {
		RunID     string
		Report    core.StatisticsReport
		Dataset   core.Dataset
		Dashboard []byte
		// ViewLink is the browser URL of the uploaded dashboard. Empty
		// until the Drive sink has run.
		ViewLink string
	}

	// Sink is one delivery target for a finished report.
	Sink interface {
		Name() string
		Deliver(ctx context.Context, b *Bundle) error
	}
)

// Deliver fans a bundle out to every sink concurrently. All sinks are
// attempted; the first error is returned after the group drains.
func Deliver(ctx context.Context, logger *log.Logger, sinks []Sink, b *Bundle) error {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentReport)

	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range sinks {
		g.Go(func() error {
			if err := sink.Deliver(gctx, b); err != nil {
				logger.ErrorContext(gctx, "Sink delivery failed",
					log.FieldSink, sink.Name(), log.FieldError, err)
				return fmt.Errorf("sink %s: %w", sink.Name(), err)
			}
			logger.InfoContext(gctx, "Sink delivered", log.FieldSink, sink.Name())
			return nil
		})
	}
	return g.Wait()
}

// FileSink writes the dashboard next to the local snapshots.
type FileSink struct {
	Dir string
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Deliver(_ context.Context, b *Bundle) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, DashboardName(b.Report))
	tmp, err := os.CreateTemp(s.Dir, ".dashboard-*")
	if err != nil {
		return fmt.Errorf("create temp dashboard: %w", err)
	}
	if _, err := tmp.Write(b.Dashboard); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write dashboard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close dashboard: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("place dashboard: %w", err)
	}
	return nil
}

// Uploader is the slice of the Drive store the dashboard sink needs.
type Uploader interface {
	Upload(ctx context.Context, name, mimeType string, data []byte) (snapshot.Ref, error)
	ViewLink(ctx context.Context, ref snapshot.Ref) (string, error)
}

// DriveSink uploads the dashboard and records its browser link on the
// bundle. Run it before the concurrent sinks so the email can carry
// the link.
type DriveSink struct {
	Store Uploader
}

func (s *DriveSink) Name() string { return "drive" }

func (s *DriveSink) Deliver(ctx context.Context, b *Bundle) error {
	ref, err := s.Store.Upload(ctx, DashboardName(b.Report), "text/html", b.Dashboard)
	if err != nil {
		return err
	}
	link, err := s.Store.ViewLink(ctx, ref)
	if err != nil {
		return err
	}
	b.ViewLink = link
	return nil
}

// EmailSink mails the summary with the dashboard attached.
type EmailSink struct {
	Sender     *EmailSender
	Recipients []string
	Title      string
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(_ context.Context, b *Bundle) error {
	summary := BuildSummary(s.Title, b.Report)
	subject := fmt.Sprintf("%s, %s", s.Title, b.Report.LastCompleteMonth.Name())
	return s.Sender.Send(subject, summary, b.ViewLink, b.Dashboard, s.Recipients)
}

// Publisher is the slice of the message broker client the event sink
// needs.
type Publisher interface {
	PublishReport(ctx context.Context, event Event) error
}

// Event is the message published when a run completes.
type Event struct {
	RunID          string `json:"run_id"`
	GeneratedAt    string `json:"generated_at"`
	Month          string `json:"month"`
	LastMonthTotal string `json:"last_month_total"`
	MonthlyAverage string `json:"monthly_average"`
	RecordCount    int    `json:"record_count"`
	Provenance     string `json:"provenance"`
	ViewLink       string `json:"view_link,omitempty"`
}

// EventSink announces the finished report on the broker.
type EventSink struct {
	Pub Publisher
}

func (s *EventSink) Name() string { return "event" }

func (s *EventSink) Deliver(ctx context.Context, b *Bundle) error {
	return s.Pub.PublishReport(ctx, Event{
		RunID:          b.RunID,
		GeneratedAt:    b.Report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Month:          b.Report.LastCompleteMonth.String(),
		LastMonthTotal: b.Report.LastMonthTotal.StringFixed(2),
		MonthlyAverage: b.Report.MonthlyAverage.StringFixed(2),
		RecordCount:    b.Dataset.Len(),
		Provenance:     string(b.Dataset.Provenance),
		ViewLink:       b.ViewLink,
	})
}
