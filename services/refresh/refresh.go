package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/lock"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/metrics"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/workpool"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

// TopN is the number of countries handed to the summary renderer.
const TopN = 5

var (
	ErrNotConfigured       = errors.New("external data sources are not configured")
	ErrUpstreamUnavailable = errors.New("external data source unavailable")
	ErrInvalidPayload      = errors.New("external data source returned an invalid payload")
	ErrNoValidCountries    = errors.New("no valid countries to store")
	ErrRefreshInProgress   = errors.New("a refresh is already in progress")
)

type CountrySource interface {
	Configured() bool
	FetchData(ctx context.Context) ([]byte, error)
	ParseData(data []byte) ([]models.SourceCountry, error)
}

type RateSource interface {
	Configured() bool
	FetchData(ctx context.Context) ([]byte, error)
	ParseData(data []byte) (map[string]float64, error)
}

type CountryStore interface {
	UpsertMany(ctx context.Context, countries []models.Country) error
	Count(ctx context.Context) (int64, error)
	TopByGDP(ctx context.Context, n int) ([]models.Country, error)
}

type StatusStore interface {
	Set(ctx context.Context, refreshedAt time.Time) error
}

// SummaryGenerator renders and caches the summary image.
type SummaryGenerator interface {
	Generate(ctx context.Context, summary models.Summary) error
}

// Result describes a successful refresh cycle.
type Result struct {
	TotalCountries  int64     `json:"total_countries"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	Stored          int       `json:"-"`
	Skipped         int       `json:"-"`
}

type Deps struct {
	Countries  CountrySource
	Rates      RateSource
	Store      CountryStore
	Status     StatusStore
	Summary    SummaryGenerator
	Lock       lock.Locker
	Multiplier Multiplier
}

type Options struct {
	SourceTimeout time.Duration
	MergeWorkers  int
}

type Service struct {
	deps Deps
	opts Options
	now  func() time.Time
}

func New(deps Deps, opts Options) *Service {
	if deps.Lock == nil {
		deps.Lock = lock.NewLocal()
	}
	if deps.Multiplier == nil {
		deps.Multiplier = NewRandomMultiplier(uint64(time.Now().UnixNano()))
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 15 * time.Second
	}
	if opts.MergeWorkers <= 0 {
		opts.MergeWorkers = 1
	}
	return &Service{deps: deps, opts: opts, now: time.Now}
}

// Refresh runs one full fetch, merge, store, aggregate and render cycle.
func (s *Service) Refresh(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := s.refresh(ctx)
	metrics.ObserveRefresh(outcome(err), time.Since(start))
	return res, err
}

func (s *Service) refresh(ctx context.Context) (Result, error) {
	if !s.deps.Countries.Configured() || !s.deps.Rates.Configured() {
		return Result{}, ErrNotConfigured
	}

	release, err := s.deps.Lock.TryLock(ctx)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return Result{}, ErrRefreshInProgress
		}
		return Result{}, fmt.Errorf("acquire refresh lock: %w", err)
	}
	defer release()

	logger.Info("--- Refresh Started ---")
	defer logger.Info("--- Refresh Finished ---")

	countryData, rateData, err := s.fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	sources, err := s.deps.Countries.ParseData(countryData)
	if err != nil {
		return Result{}, fmt.Errorf("%w: countries: %w", ErrInvalidPayload, err)
	}
	rates, err := s.deps.Rates.ParseData(rateData)
	if err != nil {
		return Result{}, fmt.Errorf("%w: rates: %w", ErrInvalidPayload, err)
	}

	refreshedAt := s.now().UTC().Truncate(time.Millisecond)

	pool := workpool.New(s.opts.MergeWorkers, func(_ context.Context, src models.SourceCountry) (models.Country, bool) {
		return Merge(src, rates, s.deps.Multiplier, refreshedAt)
	})
	records := pool.Run(ctx, sources)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("merge countries: %w", err)
	}

	skipped := len(sources) - len(records)
	if len(records) == 0 {
		metrics.RecordsTotal.WithLabelValues("skipped").Add(float64(skipped))
		return Result{}, ErrNoValidCountries
	}

	if err := s.deps.Store.UpsertMany(ctx, records); err != nil {
		return Result{}, fmt.Errorf("upsert countries: %w", err)
	}
	metrics.RecordsTotal.WithLabelValues("upserted").Add(float64(len(records)))
	metrics.RecordsTotal.WithLabelValues("skipped").Add(float64(skipped))

	if err := s.deps.Status.Set(ctx, refreshedAt); err != nil {
		return Result{}, fmt.Errorf("update refresh status: %w", err)
	}

	total, err := s.deps.Store.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count countries: %w", err)
	}
	metrics.CountriesStored.Set(float64(total))

	top, err := s.deps.Store.TopByGDP(ctx, TopN)
	if err != nil {
		return Result{}, fmt.Errorf("top countries by gdp: %w", err)
	}

	s.generateSummary(ctx, total, top, refreshedAt)

	logger.WithFields(map[string]interface{}{
		"stored":  len(records),
		"skipped": skipped,
		"total":   total,
	}).Info("Refresh complete")

	return Result{
		TotalCountries:  total,
		LastRefreshedAt: refreshedAt,
		Stored:          len(records),
		Skipped:         skipped,
	}, nil
}

// fetch downloads both sources concurrently. The first failure cancels the
// other request.
func (s *Service) fetch(ctx context.Context) (countryData, rateData []byte, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, s.opts.SourceTimeout)
		defer cancel()
		data, err := s.deps.Countries.FetchData(fctx)
		if err != nil {
			return fmt.Errorf("%w: countries: %w", ErrUpstreamUnavailable, err)
		}
		countryData = data
		return nil
	})

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, s.opts.SourceTimeout)
		defer cancel()
		data, err := s.deps.Rates.FetchData(fctx)
		if err != nil {
			return fmt.Errorf("%w: exchange rates: %w", ErrUpstreamUnavailable, err)
		}
		rateData = data
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return countryData, rateData, nil
}

func (s *Service) generateSummary(ctx context.Context, total int64, top []models.Country, refreshedAt time.Time) {
	if s.deps.Summary == nil {
		return
	}

	entries := make([]models.GDPEntry, 0, len(top))
	for _, c := range top {
		if c.EstimatedGDP == nil {
			continue
		}
		entries = append(entries, models.GDPEntry{Name: c.Name, EstimatedGDP: *c.EstimatedGDP})
	}

	summary := models.Summary{Total: total, TopCountries: entries, Timestamp: refreshedAt}
	if err := s.deps.Summary.Generate(ctx, summary); err != nil {
		metrics.SummaryRenderFailures.Inc()
		logger.Error("Failed to generate summary image: %v", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrRefreshInProgress):
		return "in_progress"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrNoValidCountries):
		return "empty"
	default:
		return "error"
	}
}
