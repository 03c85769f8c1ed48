package clients

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

type memoryRepo struct {
	clients map[uuid.UUID]*Client
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clients: make(map[uuid.UUID]*Client)}
}

func (r *memoryRepo) Create(ctx context.Context, c *Client) error {
	for _, existing := range r.clients {
		if existing.Email == c.Email {
			return ErrEmailTaken
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memoryRepo) GetByEmail(ctx context.Context, email string) (*Client, error) {
	for _, c := range r.clients {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var list []Client
	for _, c := range r.clients {
		if req.ActiveOnly && !c.IsActive {
			continue
		}
		if req.Search != "" {
			s := strings.ToLower(req.Search)
			if !strings.Contains(strings.ToLower(c.Name), s) &&
				!strings.Contains(strings.ToLower(c.Email), s) &&
				!strings.Contains(strings.ToLower(c.Company), s) {
				continue
			}
		}
		list = append(list, *c)
	}
	return list, len(list), nil
}

func (r *memoryRepo) Update(ctx context.Context, c *Client) error {
	if _, ok := r.clients[c.ID]; !ok {
		return ErrNotFound
	}
	for _, existing := range r.clients {
		if existing.ID != c.ID && existing.Email == c.Email {
			return ErrEmailTaken
		}
	}
	c.UpdatedAt = time.Now()
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.clients[id]; !ok {
		return ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	return NewService(repo, slog.New(slog.DiscardHandler)), repo
}

func TestCreateClient(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.Create(context.Background(), CreateClientRequest{
		Name:    "Acme Corp",
		Email:   "billing@acme.test",
		Company: "Acme Corporation",
		Country: "US",
	})
	require.NoError(t, err)
	require.True(t, c.IsActive)
	require.NotEqual(t, uuid.Nil, c.ID)
}

func TestCreateClientDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateClientRequest{Name: "Acme", Email: "billing@acme.test"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateClientRequest{Name: "Other", Email: "billing@acme.test"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreateClientValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateClientRequest{Name: "Acme", Email: "not-an-email"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateClientRequest{Email: "a@b.test"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateClient(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateClientRequest{Name: "Acme", Email: "billing@acme.test"})
	require.NoError(t, err)

	name := "Acme International"
	updated, err := svc.Update(ctx, c.ID, UpdateClientRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Acme International", updated.Name)
	require.Equal(t, "billing@acme.test", updated.Email)

	stored, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme International", stored.Name)
}

func TestDeactivateAndListActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateClientRequest{Name: "Active Co", Email: "a@co.test"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateClientRequest{Name: "Basket Co", Email: "b@co.test"})
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, b.ID)
	require.NoError(t, err)

	list, total, err := svc.List(ctx, ListClientsRequest{ActiveOnly: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, a.ID, list[0].ID)
}

func TestListSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateClientRequest{Name: "Acme Corp", Email: "billing@acme.test"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateClientRequest{Name: "Globex", Email: "ap@globex.test"})
	require.NoError(t, err)

	list, total, err := svc.List(ctx, ListClientsRequest{Search: "acme"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Acme Corp", list[0].Name)
}

func TestGetUnknownClient(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
