package bulk

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the operation record does not exist.
var ErrNotFound = errors.New("bulk: operation not found")

// Repository defines data access for operation records.
type Repository interface {
	Insert(ctx context.Context, op *Operation) error
	Update(ctx context.Context, op *Operation) error
	Get(ctx context.Context, id uuid.UUID) (*Operation, error)
	List(ctx context.Context, limit, offset int) ([]Operation, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const operationColumns = `id, operation_type, status, total_items, processed_items, failed_items, errors, created_at, updated_at, completed_at`

func scanOperation(row pgx.Row) (*Operation, error) {
	var op Operation
	var opType, status string
	err := row.Scan(&op.ID, &opType, &status, &op.TotalItems, &op.ProcessedItems, &op.FailedItems,
		&op.Errors, &op.CreatedAt, &op.UpdatedAt, &op.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	op.Type = OperationType(opType)
	op.Status = OperationStatus(status)
	return &op, nil
}

func (r *repository) Insert(ctx context.Context, op *Operation) error {
	const query = `
		INSERT INTO bulk_invoice_operations (id, operation_type, status, total_items, processed_items, failed_items, errors, created_at, updated_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW(),$8)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		op.ID, string(op.Type), string(op.Status), op.TotalItems, op.ProcessedItems, op.FailedItems,
		op.Errors, op.CompletedAt,
	).Scan(&op.CreatedAt, &op.UpdatedAt)
}

func (r *repository) Update(ctx context.Context, op *Operation) error {
	const query = `
		UPDATE bulk_invoice_operations SET
			status=$2, total_items=$3, processed_items=$4, failed_items=$5, errors=$6,
			completed_at=$7, updated_at=NOW()
		WHERE id=$1`
	tag, err := r.pool.Exec(ctx, query,
		op.ID, string(op.Status), op.TotalItems, op.ProcessedItems, op.FailedItems, op.Errors, op.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Operation, error) {
	return scanOperation(r.pool.QueryRow(ctx,
		`SELECT `+operationColumns+` FROM bulk_invoice_operations WHERE id = $1`, id))
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Operation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+operationColumns+` FROM bulk_invoice_operations ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *op)
	}
	return list, rows.Err()
}
