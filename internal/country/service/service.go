package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/countrydata/country-service/internal/country"
	"github.com/countrydata/country-service/internal/country/repository"
	"github.com/countrydata/country-service/pkg/logger"
	"github.com/countrydata/country-service/pkg/metrics"
)

var (
	// ErrRefreshInProgress is returned when another refresh holds the lock.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrBatchInvalid is the batch-level failure: zero records qualified
	// for either the insert or the update set.
	ErrBatchInvalid = errors.New("no records passed validation")
)

// maxReportedErrors bounds the per-record validation errors echoed back to
// the refresh caller. The batch itself continues past them.
const maxReportedErrors = 5

// Gateway is the outbound dependency of the refresh pipeline.
type Gateway interface {
	FetchCountries(ctx context.Context) ([]country.RawCountry, error)
	FetchRates(ctx context.Context) (map[string]float64, error)
}

// Reporter renders the post-commit summary artifact.
type Reporter interface {
	Generate(ctx context.Context, total int64, top []*country.Country, asOf time.Time) error
}

// Locker serializes refreshes across service instances. Acquire returns a
// release func on success and ErrRefreshInProgress when the lock is held.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// Service implements the refresh pipeline and the read-side query engine
// on top of a CountryRepository.
type Service struct {
	repo     repository.CountryRepository
	gw       Gateway
	reporter Reporter
	locker   Locker
	mult     country.MultiplierSource

	// serializes refreshes within this process; the optional Locker
	// extends that guarantee across instances
	refreshMu sync.Mutex
}

func New(repo repository.CountryRepository, gw Gateway, reporter Reporter, locker Locker, mult country.MultiplierSource) *Service {
	return &Service{repo: repo, gw: gw, reporter: reporter, locker: locker, mult: mult}
}

// RefreshResult summarizes one committed refresh batch.
type RefreshResult struct {
	LastRefreshedAt time.Time
	ValidCount      int
	Errors          []string
}

// Refresh runs the full fetch -> derive -> reconcile -> report pipeline.
// Both external fetches must succeed before the store is touched; the
// batch write is all-or-nothing. A reporter failure after commit is logged
// and does not fail the refresh.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	started := time.Now()
	raws, err := s.gw.FetchCountries(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("source_error").Inc()
		return nil, err
	}
	rates, err := s.gw.FetchRates(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("source_error").Inc()
		return nil, err
	}

	asOf := time.Now().UTC()

	existing, err := s.repo.All(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("load existing countries: %w", err)
	}
	byKey := make(map[string]*country.Country, len(existing))
	var maxSeq int64
	for _, c := range existing {
		byKey[c.NameKey] = c
		if c.Seq > maxSeq {
			maxSeq = c.Seq
		}
	}

	var inserts, updates []*country.Country
	staged := make(map[string]*country.Country)
	var valErrors []string
	for _, raw := range raws {
		rec, ok := country.Normalize(raw, rates, s.mult, asOf)
		if !ok {
			// nameless source entries are dropped silently
			continue
		}

		// a name may repeat within one source payload; the later entry
		// overwrites the staged one instead of producing a duplicate key
		if prev, seen := staged[rec.NameKey]; seen {
			seq := prev.Seq
			*prev = *rec
			prev.Seq = seq
			continue
		}

		if prevStored, found := byKey[rec.NameKey]; found {
			// existing records are overwritten wholesale without
			// re-validation; only new names are validated
			rec.Seq = prevStored.Seq
			updates = append(updates, rec)
			staged[rec.NameKey] = rec
			continue
		}

		if verr := rec.Validate(country.RefreshMode); verr != nil {
			if len(valErrors) < maxReportedErrors {
				valErrors = append(valErrors, validationSummary(rec.Name, verr))
			}
			continue
		}
		maxSeq++
		rec.Seq = maxSeq
		inserts = append(inserts, rec)
		staged[rec.NameKey] = rec
	}

	res := &RefreshResult{LastRefreshedAt: asOf, Errors: valErrors}
	if len(inserts)+len(updates) == 0 {
		metrics.RefreshTotal.WithLabelValues("invalid_batch").Inc()
		return res, ErrBatchInvalid
	}

	if err := s.repo.BulkUpsert(ctx, inserts, updates); err != nil {
		metrics.RefreshTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("commit refresh batch: %w", err)
	}
	res.ValidCount = len(inserts) + len(updates)

	total, err := s.repo.Count(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("count countries: %w", err)
	}
	top, err := s.topByGDP(ctx, 5)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	// policy: a reporter failure after a successful commit is non-fatal
	if s.reporter != nil {
		if err := s.reporter.Generate(ctx, total, top, asOf); err != nil {
			logger.Warnf("summary image generation failed: %v", err)
		}
	}

	metrics.RefreshTotal.WithLabelValues("success").Inc()
	metrics.CountriesUpserted.Add(float64(res.ValidCount))
	metrics.RefreshDuration.Observe(time.Since(started).Seconds())
	logger.Infof("refresh committed: %d upserted, %d validation errors, %d total", res.ValidCount, len(valErrors), total)
	return res, nil
}

func (s *Service) topByGDP(ctx context.Context, n int) ([]*country.Country, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load countries for ranking: %w", err)
	}
	withGDP := all[:0]
	for _, c := range all {
		if c.EstimatedGDP != nil {
			withGDP = append(withGDP, c)
		}
	}
	sort.SliceStable(withGDP, func(i, j int) bool {
		if *withGDP[i].EstimatedGDP != *withGDP[j].EstimatedGDP {
			return *withGDP[i].EstimatedGDP > *withGDP[j].EstimatedGDP
		}
		return withGDP[i].Seq < withGDP[j].Seq
	})
	if len(withGDP) > n {
		withGDP = withGDP[:n]
	}
	return withGDP, nil
}

// Get looks a country up by case-insensitive name.
func (s *Service) Get(ctx context.Context, name string) (*country.Country, error) {
	return s.repo.GetByName(ctx, name)
}

// Delete removes a country by case-insensitive name.
func (s *Service) Delete(ctx context.Context, name string) error {
	return s.repo.DeleteByName(ctx, name)
}

// Status describes the stored dataset as a whole. LastRefreshedAt is the
// maximum across all records, null when the store is empty.
type Status struct {
	TotalCountries  int64      `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{TotalCountries: int64(len(all))}
	for _, c := range all {
		if c.LastRefreshedAt == nil {
			continue
		}
		if st.LastRefreshedAt == nil || c.LastRefreshedAt.After(*st.LastRefreshedAt) {
			st.LastRefreshedAt = c.LastRefreshedAt
		}
	}
	return st, nil
}

func validationSummary(name string, err error) string {
	verr, ok := err.(*country.ValidationError)
	if !ok {
		return fmt.Sprintf("%s: %v", name, err)
	}
	fields := make([]string, 0, len(verr.Details))
	for f := range verr.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := name + ":"
	for _, f := range fields {
		out += " " + f + " " + verr.Details[f] + ";"
	}
	return out[:len(out)-1]
}
