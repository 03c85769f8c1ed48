package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ledgerline/ledgerline/internal/money"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// freshWindow is how long a cached rate counts as current.
const freshWindow = time.Hour

// Service resolves exchange rates through a cache-then-fetch-then-fallback
// chain. It satisfies the RateSource interface the invoice service uses.
type Service struct {
	repo    Repository
	fetcher Fetcher
	logger  *slog.Logger
	printer *message.Printer
	now     func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, fetcher Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		fetcher: fetcher,
		logger:  logger,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// Rate resolves the from→to exchange rate. A cached row fetched within the
// last hour is returned as-is; otherwise the API is consulted and the result
// cached. On fetch failure the stale cached row wins over the static table.
func (s *Service) Rate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	if !IsSupported(from) || !IsSupported(to) {
		return 0, fmt.Errorf("%w: unsupported currency pair %s/%s", httpx.ErrValidation, from, to)
	}

	now := s.now()
	cached, err := s.repo.Get(ctx, from, to)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	if cached != nil && cached.Fresh(now, freshWindow) {
		return cached.Rate, nil
	}

	fetched, fetchErr := s.fetchRate(ctx, from, to)
	if fetchErr == nil {
		row := &Rate{FromCurrency: from, ToCurrency: to, Rate: fetched, FetchedAt: now}
		if err := s.repo.Upsert(ctx, row); err != nil {
			s.logger.Warn("cache exchange rate", slog.Any("error", err))
		}
		return fetched, nil
	}

	if cached != nil {
		s.logger.Warn("rate fetch failed, using stale cache",
			slog.String("pair", from+"/"+to), slog.Any("error", fetchErr))
		return cached.Rate, nil
	}
	if rate, ok := staticRate(from, to); ok {
		s.logger.Warn("rate fetch failed, using static table",
			slog.String("pair", from+"/"+to), slog.Any("error", fetchErr))
		return rate, nil
	}
	return 0, fmt.Errorf("resolve rate %s/%s: %w", from, to, fetchErr)
}

func (s *Service) fetchRate(ctx context.Context, from, to string) (float64, error) {
	if s.fetcher == nil {
		return 0, errors.New("no rate fetcher configured")
	}
	rates, err := s.fetcher.Fetch(ctx, from)
	if err != nil {
		return 0, err
	}
	rate, ok := rates[to]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no rate for %s in %s response", to, from)
	}
	return rate, nil
}

// Convert turns an amount of one currency into another, rounded to cents.
func (s *Service) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	rate, err := s.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return money.Round2(amount * rate), nil
}

// RefreshAll re-fetches every supported pair against the base currency and
// caches the results. Pair failures are logged and skipped.
func (s *Service) RefreshAll(ctx context.Context, base string) (int, error) {
	if s.fetcher == nil {
		return 0, errors.New("no rate fetcher configured")
	}
	rates, err := s.fetcher.Fetch(ctx, base)
	if err != nil {
		return 0, fmt.Errorf("refresh rates: %w", err)
	}

	now := s.now()
	refreshed := 0
	for _, info := range Supported {
		if info.Code == base {
			continue
		}
		rate, ok := rates[info.Code]
		if !ok || rate <= 0 {
			s.logger.Warn("refresh skipped pair", slog.String("pair", base+"/"+info.Code))
			continue
		}
		row := &Rate{FromCurrency: base, ToCurrency: info.Code, Rate: rate, FetchedAt: now}
		if err := s.repo.Upsert(ctx, row); err != nil {
			s.logger.Warn("cache refreshed rate", slog.String("pair", base+"/"+info.Code), slog.Any("error", err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// CachedRates lists every cached rate row.
func (s *Service) CachedRates(ctx context.Context) ([]Rate, error) {
	return s.repo.List(ctx)
}

// Format renders an amount with its currency symbol using CLDR data, e.g.
// "$1,234.50". Unknown codes fall back to a plain two decimal rendering.
func (s *Service) Format(amount float64, code string) string {
	unit, err := xcurrency.ParseISO(code)
	if err != nil {
		return s.printer.Sprintf("%.2f %s", amount, code)
	}
	return s.printer.Sprintf("%v", xcurrency.NarrowSymbol(unit.Amount(amount)))
}
