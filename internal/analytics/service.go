package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/ledgerline/internal/money"
)

// trendWindowMonths is the span of the monthly revenue series.
const trendWindowMonths = 12

// topClientLimit bounds the top-billed clients list.
const topClientLimit = 5

// Service coordinates rollup queries with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Invalidate bumps the cache version. Called after invoice writes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Revenue returns the revenue rollup with a zero-filled 12 month series.
func (s *Service) Revenue(ctx context.Context) (RevenueStats, error) {
	now := s.now()
	key, err := s.cache.BuildKey(ctx, "analytics", "revenue", now.Format("2006-01"))
	if err != nil {
		return RevenueStats{}, err
	}

	var stats RevenueStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		totals, err := s.repo.RevenueTotals(ctx, now)
		if err != nil {
			return nil, err
		}
		from := monthStart(now).AddDate(0, -(trendWindowMonths - 1), 0)
		raw, err := s.repo.MonthlyRevenue(ctx, from)
		if err != nil {
			return nil, err
		}
		monthly := fillMonths(raw, from, trendWindowMonths)
		return RevenueStats{
			TotalRevenue:         money.Round2(totals.Paid),
			PendingRevenue:       money.Round2(totals.Pending),
			OverdueRevenue:       money.Round2(totals.Overdue),
			ThisMonth:            money.Round2(totals.ThisMonth),
			ThisYear:             money.Round2(totals.ThisYear),
			MonthlyGrowthPercent: growthPercent(monthly),
			Monthly:              monthly,
		}, nil
	})
	return stats, err
}

// Invoices returns the invoice count rollup with status distribution.
func (s *Service) Invoices(ctx context.Context) (InvoiceStats, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "invoices")
	if err != nil {
		return InvoiceStats{}, err
	}

	var stats InvoiceStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		counts, err := s.repo.InvoiceCounts(ctx)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, n := range counts.ByStatus {
			total += n
		}
		distribution := make(map[string]float64, len(counts.ByStatus))
		for status, n := range counts.ByStatus {
			if total > 0 {
				distribution[status] = money.Round2(float64(n) / float64(total) * 100)
			}
		}
		return InvoiceStats{
			Total:              total,
			ByStatus:           counts.ByStatus,
			AverageValue:       money.Round2(counts.AverageValue),
			StatusDistribution: distribution,
		}, nil
	})
	return stats, err
}

// Clients returns the client rollup.
func (s *Service) Clients(ctx context.Context) (ClientStats, error) {
	now := s.now()
	key, err := s.cache.BuildKey(ctx, "analytics", "clients", now.Format("2006-01"))
	if err != nil {
		return ClientStats{}, err
	}

	var stats ClientStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		counts, err := s.repo.ClientCounts(ctx, monthStart(now))
		if err != nil {
			return nil, err
		}
		top, err := s.repo.TopClients(ctx, topClientLimit)
		if err != nil {
			return nil, err
		}
		return ClientStats{
			Total:        counts.Total,
			Active:       counts.Active,
			NewThisMonth: counts.NewThisMonth,
			TopClients:   top,
		}, nil
	})
	return stats, err
}

// Payments returns the payment rollup.
func (s *Service) Payments(ctx context.Context) (PaymentStats, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "payments")
	if err != nil {
		return PaymentStats{}, err
	}

	var stats PaymentStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		agg, err := s.repo.PaymentAggregates(ctx)
		if err != nil {
			return nil, err
		}
		return PaymentStats{
			Count:            agg.Count,
			TotalReceived:    money.Round2(agg.Total),
			AverageDaysToPay: money.Round2(agg.AverageDaysToPay),
			MethodBreakdown:  agg.ByMethod,
		}, nil
	})
	return stats, err
}

// Dashboard loads every rollup concurrently.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var dash Dashboard
	dash.GeneratedAt = s.now()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.Revenue(ctx)
		if err != nil {
			return err
		}
		dash.Revenue = stats
		return nil
	})
	g.Go(func() error {
		stats, err := s.Invoices(ctx)
		if err != nil {
			return err
		}
		dash.Invoices = stats
		return nil
	})
	g.Go(func() error {
		stats, err := s.Clients(ctx)
		if err != nil {
			return err
		}
		dash.Clients = stats
		return nil
	})
	g.Go(func() error {
		stats, err := s.Payments(ctx)
		if err != nil {
			return err
		}
		dash.Payments = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// fillMonths expands sparse SQL buckets into a contiguous series of n months
// starting at from, zero-filling months with no invoices.
func fillMonths(raw []MonthBucket, from time.Time, n int) []MonthBucket {
	byMonth := make(map[string]MonthBucket, len(raw))
	for _, b := range raw {
		byMonth[b.Month] = b
	}
	series := make([]MonthBucket, 0, n)
	for i := 0; i < n; i++ {
		month := from.AddDate(0, i, 0).Format("2006-01")
		if b, ok := byMonth[month]; ok {
			series = append(series, b)
			continue
		}
		series = append(series, MonthBucket{Month: month})
	}
	return series
}

// growthPercent compares the last two buckets of the series.
func growthPercent(series []MonthBucket) float64 {
	if len(series) < 2 {
		return 0
	}
	current := series[len(series)-1].Revenue
	previous := series[len(series)-2].Revenue
	if previous == 0 {
		return 0
	}
	return money.Round2((current - previous) / previous * 100)
}
