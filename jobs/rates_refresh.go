package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/currency"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
)

// RatesRefreshJob re-fetches exchange rates so conversions hit a warm cache
// instead of blocking on the external API.
type RatesRefreshJob struct {
	Currency *currency.Service
	Base     string
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewRatesRefreshJob wires dependencies for the rates refresh handler.
func NewRatesRefreshJob(svc *currency.Service, base string, logger *slog.Logger, metrics *jobmetrics.Metrics) *RatesRefreshJob {
	return &RatesRefreshJob{Currency: svc, Base: base, Logger: logger, Metrics: metrics}
}

// Handle processes rates refresh tasks.
func (j *RatesRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Currency == nil {
		return errors.New("rates refresh: handler not configured")
	}
	base := j.Base
	if len(t.Payload()) > 0 {
		var payload RatesRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Base != "" {
			base = payload.Base
		}
	}

	tracker := j.Metrics.Track(TaskTypeRatesRefresh)
	refreshed, err := j.Currency.RefreshAll(ctx, base)
	if err != nil {
		j.logger().Error("rates refresh", slog.String("base", base), slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("rates refreshed", slog.String("base", base), slog.Int("pairs", refreshed))
	return tracker.End(nil)
}

func (j *RatesRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
