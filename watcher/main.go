package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/amendment-radar/internal/config"
	"github.com/DeafMist/amendment-radar/internal/congress"
	"github.com/DeafMist/amendment-radar/internal/dedupe"
	"github.com/DeafMist/amendment-radar/internal/digest"
	"github.com/DeafMist/amendment-radar/internal/logger"
	"github.com/DeafMist/amendment-radar/internal/models"
	"github.com/DeafMist/amendment-radar/internal/publish"
)

type digestBuilder interface {
	Build(ctx context.Context) (*models.Digest, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, congress int, records []models.AmendmentRecord) error
}

func main() {
	log := logger.New("watcher")
	cfg, err := config.LoadWatcher()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	client, err := congress.New(cfg.CongressAPIBaseURL, cfg.CongressAPIKey, cfg.Congress, cfg.UpstreamTimeout, log)
	if err != nil {
		log.Error("init congress client", slog.Any("err", err))
		os.Exit(1)
	}
	builder := digest.New(client, log, digest.WithConcurrency(cfg.EnrichConcurrency))

	writer := publish.NewWriter(cfg.KafkaBrokers, cfg.Topic)
	defer writer.Close()

	w := &watcher{
		log:       log,
		builder:   builder,
		publisher: publish.New(writer, log),
		announced: dedupe.NewAnnounced(cfg.DedupeCapacity, cfg.DedupeTTL),
		primed:    cfg.AnnounceExisting,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	log.Info("watcher started",
		slog.String("topic", cfg.Topic),
		slog.Int("congress", cfg.Congress),
		slog.Duration("interval", cfg.Interval),
		slog.Bool("announce_existing", cfg.AnnounceExisting),
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

type watcher struct {
	log       *slog.Logger
	builder   digestBuilder
	publisher eventPublisher
	announced *dedupe.Announced
	// primed is false until a pass has recorded the amendments that
	// already existed, when those should not be published.
	primed bool
}

// runOnce builds a digest and publishes amendments not announced before.
// Failures are logged and retried on the next tick.
func (w *watcher) runOnce(ctx context.Context) {
	d, err := w.builder.Build(ctx)
	if err != nil {
		w.log.Warn("build digest failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	fresh, known := w.partition(d.Amendments)

	// Bills stay listed for the whole session; refreshing their marks keeps
	// them from ageing out and being announced again.
	w.markAnnounced(known)

	if len(fresh) == 0 {
		// An empty digest may be an upstream outage, so it does not prime.
		w.log.Debug("no new amendments", slog.Int("total", d.Count))
		return
	}

	if !w.primed {
		w.markAnnounced(fresh)
		w.primed = true
		w.log.Info("primed announced set", slog.Int("amendments", len(fresh)))
		return
	}

	if err := w.publisher.Publish(ctx, d.Congress, fresh); err != nil {
		w.log.Error("publish amendments", slog.Any("err", err), slog.Int("pending", len(fresh)))
		return
	}
	w.markAnnounced(fresh)
}

// partition splits records into those not yet announced and those already known.
func (w *watcher) partition(records []models.AmendmentRecord) (fresh, known []models.AmendmentRecord) {
	for _, rec := range records {
		if w.announced.Has(rec.Number) {
			known = append(known, rec)
		} else {
			fresh = append(fresh, rec)
		}
	}
	return fresh, known
}

func (w *watcher) markAnnounced(records []models.AmendmentRecord) {
	if len(records) == 0 {
		return
	}
	numbers := make([]string, 0, len(records))
	for _, rec := range records {
		numbers = append(numbers, rec.Number)
	}
	w.announced.Mark(numbers...)
}
