package currency

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no cached rate exists for the pair.
var ErrNotFound = errors.New("currency: rate not found")

// Repository defines data access for cached rates.
type Repository interface {
	Upsert(ctx context.Context, rate *Rate) error
	Get(ctx context.Context, from, to string) (*Rate, error)
	List(ctx context.Context) ([]Rate, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Upsert(ctx context.Context, rate *Rate) error {
	const query = `
		INSERT INTO currency_rates (from_currency, to_currency, rate, fetched_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (from_currency, to_currency)
		DO UPDATE SET rate = EXCLUDED.rate, fetched_at = EXCLUDED.fetched_at`
	_, err := r.pool.Exec(ctx, query, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.FetchedAt)
	return err
}

func (r *repository) Get(ctx context.Context, from, to string) (*Rate, error) {
	var rate Rate
	err := r.pool.QueryRow(ctx,
		`SELECT from_currency, to_currency, rate, fetched_at FROM currency_rates
		 WHERE from_currency = $1 AND to_currency = $2`,
		from, to,
	).Scan(&rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rate, nil
}

func (r *repository) List(ctx context.Context) ([]Rate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT from_currency, to_currency, rate, fetched_at FROM currency_rates
		 ORDER BY from_currency, to_currency`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Rate
	for rows.Next() {
		var rate Rate
		if err := rows.Scan(&rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.FetchedAt); err != nil {
			return nil, err
		}
		list = append(list, rate)
	}
	return list, rows.Err()
}
