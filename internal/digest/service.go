// Package digest runs the fetch, filter, enrich, assemble and sort pipeline
// that produces the amendment digest.
package digest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/amendment-radar/internal/congress"
	"github.com/DeafMist/amendment-radar/internal/models"
	"github.com/DeafMist/amendment-radar/internal/processing"
)

// Source is the upstream API surface the pipeline needs.
type Source interface {
	Congress() int
	ListBills(ctx context.Context, billType congress.BillType) ([]models.BillSummary, error)
	BillDetail(ctx context.Context, detailURL string) (*models.BillDetail, error)
	CosponsorCount(ctx context.Context, billType, number string) (int, error)
}

// Option customises a Service.
type Option func(*Service)

// WithConcurrency caps how many candidates are enriched at once. n <= 0 means no cap.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// WithClock overrides the time source used for lastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service builds digests. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	src         Source
	log         *slog.Logger
	concurrency int
	now         func() time.Time
}

// New constructs a Service.
func New(src Source, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{src: src, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build runs the pipeline once. Upstream failures are absorbed per the
// degradation rules; only cancellation of ctx is returned as an error.
func (s *Service) Build(ctx context.Context) (*models.Digest, error) {
	candidates, err := s.fetchCandidates(ctx)
	if err != nil {
		return nil, err
	}

	amendments := processing.FilterAmendments(candidates)
	s.log.Debug("filtered candidates",
		slog.Int("fetched", len(candidates)),
		slog.Int("amendments", len(amendments)),
	)

	records, err := s.enrichAll(ctx, amendments)
	if err != nil {
		return nil, err
	}

	processing.SortByIntroducedDesc(records)

	return &models.Digest{
		Count:       len(records),
		Congress:    s.src.Congress(),
		LastUpdated: s.now().UTC(),
		Amendments:  records,
	}, nil
}

// fetchCandidates lists every joint resolution type concurrently. A failed
// list contributes nothing.
func (s *Service) fetchCandidates(ctx context.Context) ([]models.BillSummary, error) {
	lists := make([][]models.BillSummary, len(congress.JointResolutionTypes))

	var g errgroup.Group
	for i, billType := range congress.JointResolutionTypes {
		i, billType := i, billType
		g.Go(func() error {
			bills, err := s.src.ListBills(ctx, billType)
			if err != nil {
				s.log.Warn("list bills failed",
					slog.String("type", string(billType)),
					slog.Any("err", err),
				)
				return nil
			}
			lists[i] = bills
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	var out []models.BillSummary
	for _, bills := range lists {
		out = append(out, bills...)
	}
	return out, nil
}

func (s *Service) enrichAll(ctx context.Context, candidates []models.BillSummary) ([]models.AmendmentRecord, error) {
	slots := make([]*models.AmendmentRecord, len(candidates))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			slots[i] = s.enrich(ctx, candidate)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich candidates: %w", err)
	}

	records := make([]models.AmendmentRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

// enrich fetches detail and cosponsors for one candidate. It returns nil when
// the detail cannot be fetched; a cosponsor failure only zeroes the count.
func (s *Service) enrich(ctx context.Context, summary models.BillSummary) *models.AmendmentRecord {
	var (
		detail     *models.BillDetail
		detailErr  error
		cosponsors int
	)

	var g errgroup.Group
	g.Go(func() error {
		detail, detailErr = s.src.BillDetail(ctx, summary.URL)
		return nil
	})
	g.Go(func() error {
		n, err := s.src.CosponsorCount(ctx, summary.Type, summary.Number)
		if err != nil {
			s.log.Debug("cosponsor count unavailable",
				slog.String("bill", processing.BillNumber(summary.Type, summary.Number)),
				slog.Any("err", err),
			)
			return nil
		}
		cosponsors = n
		return nil
	})
	_ = g.Wait()

	if detailErr != nil || detail == nil {
		s.log.Warn("bill detail failed, skipping",
			slog.String("bill", processing.BillNumber(summary.Type, summary.Number)),
			slog.Any("err", detailErr),
		)
		return nil
	}

	rec := processing.BuildRecord(s.src.Congress(), summary, *detail, cosponsors)
	return &rec
}
