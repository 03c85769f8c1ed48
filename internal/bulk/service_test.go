package bulk

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

type memoryRepo struct {
	ops     map[uuid.UUID]*Operation
	updates int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{ops: make(map[uuid.UUID]*Operation)}
}

func (r *memoryRepo) Insert(ctx context.Context, op *Operation) error {
	op.CreatedAt = time.Now()
	op.UpdatedAt = op.CreatedAt
	cp := *op
	r.ops[op.ID] = &cp
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, op *Operation) error {
	if _, ok := r.ops[op.ID]; !ok {
		return ErrNotFound
	}
	r.updates++
	op.UpdatedAt = time.Now()
	cp := *op
	cp.Errors = append([]string(nil), op.Errors...)
	r.ops[op.ID] = &cp
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*Operation, error) {
	op, ok := r.ops[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *op
	return &cp, nil
}

func (r *memoryRepo) List(ctx context.Context, limit, offset int) ([]Operation, error) {
	var list []Operation
	for _, op := range r.ops {
		list = append(list, *op)
	}
	return list, nil
}

type fakeOps struct {
	created   []invoices.CreateInvoiceRequest
	sent      []uuid.UUID
	failEmail string
	failIDs   map[uuid.UUID]bool
}

func (f *fakeOps) Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error) {
	if req.ClientEmail == f.failEmail {
		return nil, errors.New("client rejected")
	}
	f.created = append(f.created, req)
	return &invoices.Invoice{ID: uuid.New()}, nil
}

func (f *fakeOps) Send(ctx context.Context, id uuid.UUID) (*invoices.Invoice, error) {
	if f.failIDs[id] {
		return nil, errors.New("cannot send")
	}
	f.sent = append(f.sent, id)
	return &invoices.Invoice{ID: id}, nil
}

func (f *fakeOps) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if f.failIDs[id] {
		return nil, errors.New("render failed")
	}
	return []byte("%PDF"), nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *fakeOps) {
	t.Helper()
	repo := newMemoryRepo()
	ops := &fakeOps{failIDs: make(map[uuid.UUID]bool)}
	return NewService(repo, ops, slog.New(slog.DiscardHandler)), repo, ops
}

func batchRequest(email string) invoices.CreateInvoiceRequest {
	return invoices.CreateInvoiceRequest{
		ClientName:  "Acme",
		ClientEmail: email,
		DueDate:     time.Now().AddDate(0, 1, 0),
		Currency:    "USD",
		Items:       []invoices.CreateItemRequest{{Description: "Work", Quantity: 1, UnitPrice: 100}},
	}
}

func TestCreateInvoicesPartialFailure(t *testing.T) {
	svc, repo, ops := newTestService(t)
	ops.failEmail = "bad@acme.test"

	reqs := []invoices.CreateInvoiceRequest{
		batchRequest("a@acme.test"),
		batchRequest("bad@acme.test"),
		batchRequest("b@acme.test"),
		batchRequest("bad@acme.test"),
		batchRequest("c@acme.test"),
	}
	op, err := svc.CreateInvoices(context.Background(), reqs)
	require.NoError(t, err)

	require.Equal(t, OpCompleted, op.Status)
	require.Equal(t, 5, op.TotalItems)
	require.Equal(t, 3, op.ProcessedItems)
	require.Equal(t, 2, op.FailedItems)
	require.Len(t, op.Errors, 2)
	require.NotNil(t, op.CompletedAt)
	require.Len(t, ops.created, 3)

	stored, err := repo.Get(context.Background(), op.ID)
	require.NoError(t, err)
	require.Equal(t, OpCompleted, stored.Status)
	require.Equal(t, 3, stored.ProcessedItems)
}

func TestProgressPersistedPerItem(t *testing.T) {
	svc, repo, _ := newTestService(t)

	reqs := []invoices.CreateInvoiceRequest{
		batchRequest("a@acme.test"),
		batchRequest("b@acme.test"),
		batchRequest("c@acme.test"),
	}
	_, err := svc.CreateInvoices(context.Background(), reqs)
	require.NoError(t, err)

	// processing + one update per item + completion
	require.Equal(t, 5, repo.updates)
}

func TestSendInvoicesBatch(t *testing.T) {
	svc, _, ops := newTestService(t)

	good, bad := uuid.New(), uuid.New()
	ops.failIDs[bad] = true

	op, err := svc.SendInvoices(context.Background(), []uuid.UUID{good, bad})
	require.NoError(t, err)
	require.Equal(t, OpCompleted, op.Status)
	require.Equal(t, 1, op.ProcessedItems)
	require.Equal(t, 1, op.FailedItems)
	require.Equal(t, []uuid.UUID{good}, ops.sent)
}

func TestEmptyBatchRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateInvoices(context.Background(), nil)
	require.Error(t, err)
	_, err = svc.SendInvoices(context.Background(), nil)
	require.Error(t, err)
	_, err = svc.GeneratePDFs(context.Background(), nil)
	require.Error(t, err)
}

func TestImportCSV(t *testing.T) {
	svc, _, ops := newTestService(t)

	data := strings.Join([]string{
		"client_name,client_email,client_address,due_date,tax_rate,currency,description,quantity,unit_price",
		"Acme Corp,billing@acme.test,1 Main St,2026-10-01,5,USD,Consulting,3,19.99",
		"Globex,ap@globex.test,2 High Rd,2026-10-15,not-a-number,USD,Design,1,500",
		"Initech,ap@initech.test,3 Low Ln,2026-11-01,0,EUR,Hosting,12,25",
	}, "\n")

	op, err := svc.ImportCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, OpCompleted, op.Status)
	require.Equal(t, 3, op.TotalItems)
	require.Equal(t, 2, op.ProcessedItems)
	require.Equal(t, 1, op.FailedItems)
	require.Contains(t, op.Errors[0], "tax_rate")

	require.Len(t, ops.created, 2)
	require.Equal(t, "Acme Corp", ops.created[0].ClientName)
	require.Equal(t, 3.0, ops.created[0].Items[0].Quantity)
	require.Equal(t, 19.99, ops.created[0].Items[0].UnitPrice)
}

func TestImportCSVMalformedFileFails(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("only,a,header"))
	require.Error(t, err)

	_, err = svc.ImportCSV(context.Background(), strings.NewReader("a,b\n\"unterminated"))
	require.Error(t, err)
}
