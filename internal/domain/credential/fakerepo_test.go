package credential

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/infinito/infinito-api/internal/pkg/secretbox"
)

type fakeRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*Credential
	fail  error
	finds int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Credential)}
}

func testBox(t *testing.T) *secretbox.Box {
	t.Helper()
	box, err := secretbox.New(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	return box
}

func (f *fakeRepo) FindActive(_ context.Context, owner uuid.NullUUID, serviceID string) (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.fail != nil {
		return nil, f.fail
	}
	for _, c := range f.rows {
		if c.UserID == owner && c.ServiceID == serviceID && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]Credential, error) {
	return f.list(func(c *Credential) bool { return c.OwnedBy(userID) }), nil
}

func (f *fakeRepo) ListAll(context.Context) ([]Credential, error) {
	return f.list(func(*Credential) bool { return true }), nil
}

func (f *fakeRepo) list(keep func(*Credential) bool) []Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Credential, 0)
	for _, c := range f.rows {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeRepo) Upsert(_ context.Context, c *Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	now := time.Now()
	for _, existing := range f.rows {
		if existing.UserID == c.UserID && existing.ServiceID == c.ServiceID {
			existing.EncryptedKey = c.EncryptedKey
			existing.KeyHint = c.KeyHint
			existing.UpdatedAt = now
			*c = *existing
			return nil
		}
	}
	c.ID = uuid.New()
	c.IsActive = true
	c.CreatedAt = now.Add(time.Duration(len(f.rows)) * time.Millisecond)
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, patch Patch) (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	if patch.IsVisible != nil {
		c.IsVisible = *patch.IsVisible
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return ErrNotFound
	}
	delete(f.rows, id)
	return nil
}
