package approvals

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

type invoiceState struct {
	inv        *invoices.Invoice
	approvedBy *string
	approvedAt *time.Time
}

type memoryRepo struct {
	approvals map[uuid.UUID]*Approval
	invoices  map[uuid.UUID]*invoiceState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		approvals: make(map[uuid.UUID]*Approval),
		invoices:  make(map[uuid.UUID]*invoiceState),
	}
}

func (r *memoryRepo) addInvoice(total float64) *invoices.Invoice {
	inv := &invoices.Invoice{
		ID:             uuid.New(),
		InvoiceNumber:  "INV-202603-" + uuid.NewString()[:4],
		Total:          total,
		Status:         invoices.StatusDraft,
		ApprovalStatus: invoices.ApprovalPending,
	}
	r.invoices[inv.ID] = &invoiceState{inv: inv}
	return inv
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*Approval, error) {
	a, ok := r.approvals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memoryRepo) CreateBatch(ctx context.Context, rows []Approval) error {
	for i := range rows {
		rows[i].CreatedAt = time.Now()
		cp := rows[i]
		r.approvals[cp.ID] = &cp
	}
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, row *Approval) error {
	if _, ok := r.approvals[row.ID]; !ok {
		return ErrNotFound
	}
	cp := *row
	r.approvals[row.ID] = &cp
	return nil
}

func (r *memoryRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Approval, error) {
	var list []Approval
	for _, a := range r.approvals {
		if a.InvoiceID == invoiceID {
			list = append(list, *a)
		}
	}
	return list, nil
}

func (r *memoryRepo) PendingFor(ctx context.Context, approverEmail string) ([]Approval, error) {
	var list []Approval
	for _, a := range r.approvals {
		if a.ApproverEmail == approverEmail && a.Status == DecisionPending {
			list = append(list, *a)
		}
	}
	return list, nil
}

func (r *memoryRepo) PendingForInvoice(ctx context.Context, invoiceID uuid.UUID, approverEmail string) (*Approval, error) {
	for _, a := range r.approvals {
		if a.InvoiceID == invoiceID && a.ApproverEmail == approverEmail && a.Status == DecisionPending {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) SetInvoiceAggregate(ctx context.Context, invoiceID uuid.UUID, status invoices.ApprovalStatus, approvedBy *string, approvedAt *time.Time) error {
	state, ok := r.invoices[invoiceID]
	if !ok {
		return ErrNotFound
	}
	state.inv.ApprovalStatus = status
	state.approvedBy = approvedBy
	state.approvedAt = approvedAt
	return nil
}

func (r *memoryRepo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	for _, state := range r.invoices {
		switch state.inv.ApprovalStatus {
		case invoices.ApprovalPending:
			s.Pending++
		case invoices.ApprovalApproved:
			s.Approved++
		case invoices.ApprovalRejected:
			s.Rejected++
		case invoices.ApprovalRevisionRequested:
			s.RevisionRequested++
		}
	}
	return s, nil
}

type invoiceStore struct {
	repo *memoryRepo
}

func (s invoiceStore) Get(ctx context.Context, id uuid.UUID) (*invoices.Invoice, error) {
	state, ok := s.repo.invoices[id]
	if !ok {
		return nil, invoices.ErrNotFound
	}
	cp := *state.inv
	return &cp, nil
}

type notification struct {
	invoiceID uuid.UUID
	typ       string
}

type fakeNotifier struct {
	records []notification
}

func (n *fakeNotifier) Record(ctx context.Context, invoiceID uuid.UUID, typ, message string, scheduledFor time.Time) error {
	n.records = append(n.records, notification{invoiceID: invoiceID, typ: typ})
	return nil
}

func newTestService(t *testing.T, opts Options) (*Service, *memoryRepo, *fakeNotifier) {
	t.Helper()
	repo := newMemoryRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, invoiceStore{repo: repo}, notifier, slog.New(slog.DiscardHandler), opts)
	return svc, repo, notifier
}

func TestReduce(t *testing.T) {
	mk := func(statuses ...Decision) []Approval {
		rows := make([]Approval, 0, len(statuses))
		for _, st := range statuses {
			rows = append(rows, Approval{Status: st})
		}
		return rows
	}

	cases := []struct {
		name string
		rows []Approval
		want invoices.ApprovalStatus
	}{
		{"empty set", nil, invoices.ApprovalPending},
		{"unanimous approve", mk(DecisionApproved, DecisionApproved), invoices.ApprovalApproved},
		{"any rejection wins", mk(DecisionApproved, DecisionRejected), invoices.ApprovalRejected},
		{"rejection order irrelevant", mk(DecisionRejected, DecisionApproved), invoices.ApprovalRejected},
		{"revision beats approve", mk(DecisionApproved, DecisionRevisionRequested), invoices.ApprovalRevisionRequested},
		{"rejection beats revision", mk(DecisionRevisionRequested, DecisionRejected), invoices.ApprovalRejected},
		{"outstanding pending", mk(DecisionApproved, DecisionPending), invoices.ApprovalPending},
		{"single approve", mk(DecisionApproved), invoices.ApprovalApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Reduce(tc.rows))
		})
	}
}

func TestSubmitCreatesPendingRows(t *testing.T) {
	svc, repo, notifier := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(500)

	rows, err := svc.Submit(ctx, SubmitRequest{
		InvoiceID: inv.ID,
		Approvers: []string{"cfo@ledgerline.test", "ceo@ledgerline.test"},
		Message:   "Q1 retainer",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, DecisionPending, row.Status)
		require.Equal(t, inv.ID, row.InvoiceID)
	}
	require.Equal(t, invoices.ApprovalPending, inv.ApprovalStatus)
	require.Len(t, notifier.records, 2)
	require.Equal(t, "approval_request", notifier.records[0].typ)
}

func TestSubmitValidation(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(500)

	_, err := svc.Submit(ctx, SubmitRequest{InvoiceID: inv.ID})
	require.Error(t, err, "no approvers")

	_, err = svc.Submit(ctx, SubmitRequest{InvoiceID: uuid.New(), Approvers: []string{"a@b.test"}})
	require.Error(t, err, "unknown invoice")
}

func TestUnanimousApproval(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(500)

	rows, err := svc.Submit(ctx, SubmitRequest{
		InvoiceID: inv.ID,
		Approvers: []string{"cfo@ledgerline.test", "ceo@ledgerline.test"},
	})
	require.NoError(t, err)

	out, err := svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: DecisionApproved})
	require.NoError(t, err)
	require.Equal(t, "pending", out.AggregateStatus)
	require.Equal(t, invoices.ApprovalPending, inv.ApprovalStatus)

	out, err = svc.RecordDecision(ctx, rows[1].ID, DecisionRequest{Decision: DecisionApproved})
	require.NoError(t, err)
	require.Equal(t, "approved", out.AggregateStatus)
	require.Equal(t, invoices.ApprovalApproved, inv.ApprovalStatus)

	state := repo.invoices[inv.ID]
	require.NotNil(t, state.approvedBy)
	require.Equal(t, "ceo@ledgerline.test", *state.approvedBy)
	require.NotNil(t, state.approvedAt)
}

func TestRejectionOverridesApprovals(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(500)

	rows, err := svc.Submit(ctx, SubmitRequest{
		InvoiceID: inv.ID,
		Approvers: []string{"a@ledgerline.test", "b@ledgerline.test"},
	})
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: DecisionApproved})
	require.NoError(t, err)
	comment := "missing PO reference"
	out, err := svc.RecordDecision(ctx, rows[1].ID, DecisionRequest{Decision: DecisionRejected, Comments: &comment})
	require.NoError(t, err)
	require.Equal(t, "rejected", out.AggregateStatus)
	require.Equal(t, invoices.ApprovalRejected, inv.ApprovalStatus)
	require.Nil(t, repo.invoices[inv.ID].approvedBy)
}

func TestRevisionRequestedAggregate(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(500)

	rows, err := svc.Submit(ctx, SubmitRequest{
		InvoiceID: inv.ID,
		Approvers: []string{"a@ledgerline.test", "b@ledgerline.test"},
	})
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: DecisionApproved})
	require.NoError(t, err)
	out, err := svc.RecordDecision(ctx, rows[1].ID, DecisionRequest{Decision: DecisionRevisionRequested})
	require.NoError(t, err)
	require.Equal(t, "revision_requested", out.AggregateStatus)
	require.Equal(t, invoices.ApprovalRevisionRequested, inv.ApprovalStatus)
}

func TestDecisionOnDecidedRowRejected(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(500)

	rows, err := svc.Submit(ctx, SubmitRequest{
		InvoiceID: inv.ID,
		Approvers: []string{"a@ledgerline.test"},
	})
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: DecisionApproved})
	require.NoError(t, err)
	_, err = svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: DecisionRejected})
	require.Error(t, err)
}

func TestInvalidDecisionRejected(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(500)

	rows, err := svc.Submit(ctx, SubmitRequest{
		InvoiceID: inv.ID,
		Approvers: []string{"a@ledgerline.test"},
	})
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: Decision("maybe")})
	require.Error(t, err)
	_, err = svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: DecisionPending})
	require.Error(t, err)
}

func TestAutoApproveBelowThreshold(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{AutoApproveBelow: 100})
	ctx := context.Background()

	small := repo.addInvoice(62.97)
	rows, err := svc.Submit(ctx, SubmitRequest{
		InvoiceID: small.ID,
		Approvers: []string{"cfo@ledgerline.test"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, SystemApprover, rows[0].ApproverEmail)
	require.Equal(t, DecisionApproved, rows[0].Status)
	require.Equal(t, invoices.ApprovalApproved, small.ApprovalStatus)

	large := repo.addInvoice(2500)
	rows, err = svc.Submit(ctx, SubmitRequest{
		InvoiceID: large.ID,
		Approvers: []string{"cfo@ledgerline.test"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, DecisionPending, rows[0].Status)
	require.Equal(t, invoices.ApprovalPending, large.ApprovalStatus)
}

func TestAutoApproveDisabledByDefault(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	inv := repo.addInvoice(1)

	applied, err := svc.AutoApprove(ctx, inv.ID)
	require.NoError(t, err)
	require.False(t, applied)
}

func TestBulkApproveCollectsErrors(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()

	approver := "cfo@ledgerline.test"
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		inv := repo.addInvoice(500)
		ids = append(ids, inv.ID)
		_, err := svc.Submit(ctx, SubmitRequest{InvoiceID: inv.ID, Approvers: []string{approver}})
		require.NoError(t, err)
	}
	// Two invoices with no pending row for this approver.
	ids = append(ids, uuid.New(), repo.addInvoice(10).ID)

	result, err := svc.BulkApprove(ctx, BulkApproveRequest{InvoiceIDs: ids, ApproverEmail: approver})
	require.NoError(t, err)
	require.Equal(t, 3, result.Approved)
	require.Len(t, result.Errors, 2)

	for _, id := range ids[:3] {
		require.Equal(t, invoices.ApprovalApproved, repo.invoices[id].inv.ApprovalStatus)
	}
}

func TestPendingForAndHistory(t *testing.T) {
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()

	approver := "cfo@ledgerline.test"
	inv := repo.addInvoice(500)
	rows, err := svc.Submit(ctx, SubmitRequest{InvoiceID: inv.ID, Approvers: []string{approver, "other@ledgerline.test"}})
	require.NoError(t, err)

	pending, err := svc.PendingFor(ctx, approver)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.RecordDecision(ctx, rows[0].ID, DecisionRequest{Decision: DecisionApproved})
	require.NoError(t, err)

	pending, err = svc.PendingFor(ctx, approver)
	require.NoError(t, err)
	require.Empty(t, pending)

	history, err := svc.History(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}
