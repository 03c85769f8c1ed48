package currency

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rates map[string]*Rate
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rates: make(map[string]*Rate)}
}

func key(from, to string) string { return from + "/" + to }

func (r *memoryRepo) Upsert(ctx context.Context, rate *Rate) error {
	cp := *rate
	r.rates[key(rate.FromCurrency, rate.ToCurrency)] = &cp
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, from, to string) (*Rate, error) {
	rate, ok := r.rates[key(from, to)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rate
	return &cp, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Rate, error) {
	var list []Rate
	for _, rate := range r.rates {
		list = append(list, *rate)
	}
	return list, nil
}

type fakeFetcher struct {
	rates map[string]float64
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, base string) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *fakeFetcher) {
	t.Helper()
	repo := newMemoryRepo()
	fetcher := &fakeFetcher{rates: map[string]float64{"EUR": 0.9, "GBP": 0.8}}
	svc := NewService(repo, fetcher, slog.New(slog.DiscardHandler))
	return svc, repo, fetcher
}

func TestSameCurrencyIsIdentity(t *testing.T) {
	svc, _, fetcher := newTestService(t)

	rate, err := svc.Rate(context.Background(), "USD", "USD")
	require.NoError(t, err)
	require.Equal(t, 1.0, rate)
	require.Zero(t, fetcher.calls)
}

func TestFetchCachesRate(t *testing.T) {
	svc, repo, fetcher := newTestService(t)
	ctx := context.Background()

	rate, err := svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, 0.9, rate)
	require.Equal(t, 1, fetcher.calls)

	cached, err := repo.Get(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, 0.9, cached.Rate)
}

func TestFreshCacheSkipsFetch(t *testing.T) {
	svc, _, fetcher := newTestService(t)
	ctx := context.Background()

	_, err := svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)

	// Half an hour later the row is still fresh.
	svc.now = func() time.Time { return time.Now().Add(30 * time.Minute) }
	rate, err := svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, 0.9, rate)
	require.Equal(t, 1, fetcher.calls)
}

func TestStaleCacheRefetches(t *testing.T) {
	svc, _, fetcher := newTestService(t)
	ctx := context.Background()

	_, err := svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)

	fetcher.rates["EUR"] = 0.95
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	rate, err := svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, 0.95, rate)
	require.Equal(t, 2, fetcher.calls)
}

func TestFetchFailureFallsBackToStaleCache(t *testing.T) {
	svc, _, fetcher := newTestService(t)
	ctx := context.Background()

	_, err := svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)

	fetcher.err = errors.New("api down")
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	rate, err := svc.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, 0.9, rate)
}

func TestFetchFailureFallsBackToStaticTable(t *testing.T) {
	svc, _, fetcher := newTestService(t)
	fetcher.err = errors.New("api down")

	rate, err := svc.Rate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, 0.92, rate)

	// Cross rate through the USD based table.
	rate, err = svc.Rate(context.Background(), "GBP", "EUR")
	require.NoError(t, err)
	require.InDelta(t, 0.92/0.79, rate, 1e-9)
}

func TestUnsupportedCurrencyRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Rate(context.Background(), "USD", "XXX")
	require.Error(t, err)
}

func TestConvertRounds(t *testing.T) {
	svc, _, _ := newTestService(t)

	converted, err := svc.Convert(context.Background(), 19.99, "USD", "EUR")
	require.NoError(t, err)
	// 19.99 * 0.9 = 17.991 -> 17.99
	require.Equal(t, 17.99, converted)
}

func TestRefreshAll(t *testing.T) {
	svc, repo, fetcher := newTestService(t)
	fetcher.rates = map[string]float64{"EUR": 0.91, "GBP": 0.78, "JPY": 150.2}

	refreshed, err := svc.RefreshAll(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, 3, refreshed)

	cached, err := repo.Get(context.Background(), "USD", "JPY")
	require.NoError(t, err)
	require.Equal(t, 150.2, cached.Rate)
}

func TestFormat(t *testing.T) {
	svc, _, _ := newTestService(t)

	require.Contains(t, svc.Format(10.5, "USD"), "10.50")
	require.Contains(t, svc.Format(10, "ZZZ"), "ZZZ")
}
