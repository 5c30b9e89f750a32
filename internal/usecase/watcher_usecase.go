package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
	"github.com/user/dealwatch/pkg/metrics"
)

// notifyTimeout bounds one alert once the listing has been stored.
const notifyTimeout = 30 * time.Second

// CandidateExtractor parses search result markup.
type CandidateExtractor interface {
	Extract(markup string) ([]entity.RawCandidate, error)
}

// Watcher runs the fetch, extract, filter and reconcile stages of one pipeline cycle.
type Watcher struct {
	searchURL string
	fetcher   repository.PageFetcher
	extractor CandidateExtractor
	filter    PriceFilter
	store     repository.ListingRepository
	notifier  repository.Notifier
	logger    *zap.Logger
	status    *pipelineStatus
	now       func() time.Time
}

// NewWatcher creates a new instance of the pipeline cycle use case.
func NewWatcher(
	searchURL string,
	threshold float64,
	fetcher repository.PageFetcher,
	extractor CandidateExtractor,
	store repository.ListingRepository,
	notifier repository.Notifier,
	logger *zap.Logger,
) *Watcher {
	metrics.Init()
	return &Watcher{
		searchURL: searchURL,
		fetcher:   fetcher,
		extractor: extractor,
		filter:    PriceFilter{Threshold: threshold},
		store:     store,
		notifier:  notifier,
		logger:    logger,
		status:    newPipelineStatus(),
		now:       time.Now,
	}
}

// Status returns a reader for the pipeline state and the last cycle report.
func (w *Watcher) Status() StatusReader {
	return w.status
}

// ProcessListings runs one full cycle. Every failure is logged and counted; none is returned,
// so a bad cycle never stops the driver.
func (w *Watcher) ProcessListings(ctx context.Context) (report entity.CycleReport) {
	report = entity.CycleReport{CycleID: uuid.NewString(), StartedAt: w.now()}
	log := w.logger.With(zap.String("cycle_id", report.CycleID))
	defer func() {
		report.Duration = w.now().Sub(report.StartedAt)
		w.status.finish(report)
		w.observe(report)
		log.Info("cycle finished",
			zap.Int("extracted", report.Extracted),
			zap.Int("accepted", report.Accepted),
			zap.Int("new", report.Inserted),
			zap.Int("notified", report.Notified),
			zap.Int("errors", len(report.Errors)),
			zap.Duration("duration", report.Duration),
		)
	}()

	w.status.set(entity.StateFetching)
	fetchStart := time.Now()
	markup, err := w.fetcher.Fetch(ctx, w.searchURL)
	metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			w.abandon(ctx, log, &report, entity.StateFetching)
			return report
		}
		w.recordError(log, &report, fetchErrorKind(err), "error scraping listings", err)
		return report
	}

	w.status.set(entity.StateExtracting)
	raw, err := w.extractor.Extract(markup)
	if err != nil {
		w.recordError(log, &report, "parse", "error parsing search results", err)
		return report
	}
	report.Extracted = len(raw)

	w.status.set(entity.StateFiltering)
	accepted := w.filterCandidates(raw, log)
	report.Accepted = len(accepted)

	w.status.set(entity.StateReconciling)
	for i, l := range accepted {
		if ctx.Err() != nil {
			w.abandon(ctx, log, &report, entity.StateReconciling, zap.Int("remaining", len(accepted)-i))
			return report
		}
		w.reconcile(ctx, log, &report, l)
	}
	return report
}

func (w *Watcher) filterCandidates(raw []entity.RawCandidate, log *zap.Logger) []*entity.Listing {
	observedAt := w.now().UTC()
	out := make([]*entity.Listing, 0, len(raw))
	for _, c := range raw {
		l := &entity.Listing{
			ID:         c.ID,
			Title:      c.Title,
			Price:      ParsePrice(c.PriceText),
			Link:       c.Link,
			ObservedAt: observedAt,
		}
		if !w.filter.IsAcceptable(l) {
			log.Debug("candidate rejected by price",
				zap.String("id", c.ID), zap.String("price_text", c.PriceText))
			continue
		}
		out = append(out, l)
	}
	return out
}

// reconcile inserts and notifies a listing the store has not seen. A failed alert does not
// undo the insert: the listing counts as seen and is never alerted again. Insert and alert form
// one unit, so the alert runs on a context detached from cycle cancellation.
func (w *Watcher) reconcile(ctx context.Context, log *zap.Logger, report *entity.CycleReport, l *entity.Listing) {
	exists, err := w.store.Exists(ctx, l.ID)
	if err != nil {
		w.recordError(log, report, "store", "error checking listing", err, zap.String("id", l.ID))
		return
	}
	if exists {
		log.Debug("listing already seen", zap.String("id", l.ID))
		return
	}

	if err := w.store.Insert(ctx, l); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			log.Debug("listing inserted concurrently, skipping", zap.String("id", l.ID))
			return
		}
		w.recordError(log, report, "store", "error saving listing", err, zap.String("id", l.ID))
		return
	}
	report.Inserted++

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := w.notifier.Notify(notifyCtx, l); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		w.recordError(log, report, "notify", "error sending alert", err, zap.String("id", l.ID))
		return
	}
	report.Notified++
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	log.Info("alert sent for listing", zap.String("id", l.ID), zap.Float64("price", l.Price))
}

// abandon ends a cycle whose context is done. A cycle deadline counts as an error; operator
// cancellation does not.
func (w *Watcher) abandon(ctx context.Context, log *zap.Logger, report *entity.CycleReport, during entity.PipelineState, fields ...zap.Field) {
	fields = append(fields, zap.String("during", string(during)))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		w.recordError(log, report, "timeout", "cycle deadline exceeded", ctx.Err(), fields...)
		return
	}
	report.Cancelled = true
	log.Info("cycle abandoned", fields...)
}

func (w *Watcher) recordError(log *zap.Logger, report *entity.CycleReport, kind, msg string, err error, fields ...zap.Field) {
	report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", kind, err))
	metrics.ErrorsTotal.WithLabelValues(kind).Inc()
	log.Error(msg, append(fields, zap.String("kind", kind), zap.Error(err))...)
}

func (w *Watcher) observe(r entity.CycleReport) {
	metrics.CycleDuration.Observe(r.Duration.Seconds())
	metrics.CandidatesTotal.WithLabelValues("extracted").Add(float64(r.Extracted))
	metrics.CandidatesTotal.WithLabelValues("accepted").Add(float64(r.Accepted))
	metrics.NewListingsTotal.Add(float64(r.Inserted))

	switch {
	case r.Cancelled:
		metrics.CyclesTotal.WithLabelValues("cancelled").Inc()
	case r.Degraded():
		metrics.CyclesTotal.WithLabelValues("degraded").Inc()
	default:
		metrics.CyclesTotal.WithLabelValues("ok").Inc()
		metrics.LastSuccessfulCycle.Set(float64(r.StartedAt.Add(r.Duration).Unix()))
	}
}

func fetchErrorKind(err error) string {
	var fe *repository.FetchError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return repository.NetworkFailure.String()
}
