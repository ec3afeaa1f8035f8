package digest_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DeafMist/amendment-radar/internal/congress"
	"github.com/DeafMist/amendment-radar/internal/digest"
	"github.com/DeafMist/amendment-radar/internal/models"
	"github.com/stretchr/testify/require"
)

const termLimits = "Proposing an amendment to the Constitution of the United States relative to term limits"

type stubSource struct {
	lists      map[congress.BillType][]models.BillSummary
	listErr    map[congress.BillType]error
	details    map[string]*models.BillDetail
	cosponsors map[string]int
	cosErr     map[string]error

	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *stubSource) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubSource) Congress() int { return 119 }

func (s *stubSource) ListBills(_ context.Context, billType congress.BillType) ([]models.BillSummary, error) {
	s.record("list:" + string(billType))
	if err := s.listErr[billType]; err != nil {
		return nil, err
	}
	return s.lists[billType], nil
}

func (s *stubSource) BillDetail(_ context.Context, detailURL string) (*models.BillDetail, error) {
	s.record("detail:" + detailURL)

	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if cur <= prev || s.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	d, ok := s.details[detailURL]
	if !ok {
		return nil, &congress.StatusError{StatusCode: 500, Path: detailURL}
	}
	return d, nil
}

func (s *stubSource) CosponsorCount(_ context.Context, billType, number string) (int, error) {
	key := billType + " " + number
	s.record("cosponsors:" + key)
	if err := s.cosErr[key]; err != nil {
		return 0, err
	}
	return s.cosponsors[key], nil
}

func fixedClock() time.Time {
	return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
}

func TestBuildEndToEndScenario(t *testing.T) {
	src := &stubSource{
		lists: map[congress.BillType][]models.BillSummary{
			congress.HouseJointResolution: {
				{Type: "HJRES", Number: "1", Title: termLimits, URL: "u/hjres/1"},
				{Type: "HJRES", Number: "2", Title: "Providing for congressional review", URL: "u/hjres/2"},
			},
		},
		details: map[string]*models.BillDetail{
			"u/hjres/1": {
				IntroducedDate: "2025-01-10",
				Sponsors:       []models.Sponsor{{FullName: "Jane Doe", Party: "D", State: "CA"}},
			},
		},
		cosponsors: map[string]int{"HJRES 1": 12},
	}

	d, err := digest.New(src, nil, digest.WithClock(fixedClock)).Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, d.Count)
	require.Equal(t, 119, d.Congress)
	require.Equal(t, fixedClock(), d.LastUpdated)
	require.Equal(t, []models.AmendmentRecord{{
		Number:          "HJRES 1",
		Title:           termLimits,
		IntroducedDate:  "2025-01-10",
		Sponsor:         models.SponsorRecord{Name: "Jane Doe", Party: "D", State: "CA"},
		Status:          "Introduced",
		StatusDate:      "2025-01-10",
		CosponsorsCount: 12,
		CongressURL:     "https://www.congress.gov/bill/119th-congress/hjres/1",
	}}, d.Amendments)

	// The non-amendment candidate is never enriched.
	require.NotContains(t, src.calls, "detail:u/hjres/2")
	require.NotContains(t, src.calls, "cosponsors:HJRES 2")
}

func TestBuildDropsDetailFailures(t *testing.T) {
	src := &stubSource{
		lists: map[congress.BillType][]models.BillSummary{
			congress.HouseJointResolution: {
				{Type: "HJRES", Number: "1", Title: termLimits, URL: "ok"},
				{Type: "HJRES", Number: "2", Title: termLimits, URL: "missing"},
			},
		},
		details: map[string]*models.BillDetail{
			"ok": {IntroducedDate: "2025-01-10"},
		},
	}

	d, err := digest.New(src, nil).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, d.Count)
	require.Len(t, d.Amendments, 1)
	require.Equal(t, "HJRES 1", d.Amendments[0].Number)
}

func TestBuildCosponsorFailureDefaultsToZero(t *testing.T) {
	src := &stubSource{
		lists: map[congress.BillType][]models.BillSummary{
			congress.SenateJointResolution: {
				{Type: "SJRES", Number: "5", Title: termLimits, URL: "s5"},
			},
		},
		details: map[string]*models.BillDetail{
			"s5": {IntroducedDate: "2025-03-03", LatestAction: &models.LatestAction{Text: "Read twice", ActionDate: "2025-03-04"}},
		},
		cosErr: map[string]error{"SJRES 5": errors.New("boom")},
	}

	d, err := digest.New(src, nil).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Amendments, 1)

	rec := d.Amendments[0]
	require.Zero(t, rec.CosponsorsCount)
	require.Equal(t, "Read twice", rec.Status)
	require.Equal(t, "2025-03-04", rec.StatusDate)
	require.Equal(t, models.SponsorRecord{Name: "Unknown", Party: "Unknown", State: "Unknown"}, rec.Sponsor)
}

func TestBuildListFailureIsolated(t *testing.T) {
	src := &stubSource{
		lists: map[congress.BillType][]models.BillSummary{
			congress.SenateJointResolution: {
				{Type: "SJRES", Number: "2", Title: termLimits, URL: "s2"},
			},
		},
		listErr: map[congress.BillType]error{
			congress.HouseJointResolution: &congress.StatusError{StatusCode: 503, Path: "/bill/119/hjres"},
		},
		details: map[string]*models.BillDetail{
			"s2": {IntroducedDate: "2025-01-20"},
		},
	}

	d, err := digest.New(src, nil).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, d.Count)
	require.Equal(t, "SJRES 2", d.Amendments[0].Number)
	require.Contains(t, src.calls, "list:hjres")
	require.Contains(t, src.calls, "list:sjres")
}

func TestBuildEmpty(t *testing.T) {
	d, err := digest.New(&stubSource{}, nil).Build(context.Background())
	require.NoError(t, err)
	require.Zero(t, d.Count)
	require.NotNil(t, d.Amendments)
	require.Empty(t, d.Amendments)
}

func TestBuildSortsDescending(t *testing.T) {
	src := &stubSource{
		lists: map[congress.BillType][]models.BillSummary{
			congress.HouseJointResolution: {
				{Type: "HJRES", Number: "1", Title: termLimits, URL: "h1"},
				{Type: "HJRES", Number: "7", Title: termLimits, URL: "h7"},
			},
			congress.SenateJointResolution: {
				{Type: "SJRES", Number: "3", Title: termLimits, URL: "s3"},
			},
		},
		details: map[string]*models.BillDetail{
			"h1": {IntroducedDate: "2025-01-03"},
			"h7": {IntroducedDate: "2025-04-15"},
			"s3": {IntroducedDate: "2025-02-11"},
		},
	}

	d, err := digest.New(src, nil).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, d.Count)
	require.True(t, sort.SliceIsSorted(d.Amendments, func(i, j int) bool {
		return d.Amendments[i].IntroducedDate > d.Amendments[j].IntroducedDate
	}))
	require.Equal(t, "HJRES 7", d.Amendments[0].Number)
}

func TestBuildRespectsConcurrencyLimit(t *testing.T) {
	src := &stubSource{
		lists:   map[congress.BillType][]models.BillSummary{},
		details: map[string]*models.BillDetail{},
	}
	for _, n := range []string{"1", "2", "3", "4", "5", "6"} {
		url := "h" + n
		src.lists[congress.HouseJointResolution] = append(src.lists[congress.HouseJointResolution],
			models.BillSummary{Type: "HJRES", Number: n, Title: termLimits, URL: url})
		src.details[url] = &models.BillDetail{IntroducedDate: "2025-01-0" + n}
	}

	d, err := digest.New(src, nil, digest.WithConcurrency(2)).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, d.Count)
	require.LessOrEqual(t, src.maxSeen.Load(), int32(2))
}

func TestBuildCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := digest.New(&stubSource{}, nil).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
