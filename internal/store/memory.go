package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory implementation of all four repositories.
// It is safe for concurrent use and backs tests and single-node mode.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]*User
	collections map[string]*Collection
	cats        map[string]*CatToken
	pats        map[string]*PatToken
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*User),
		collections: make(map[string]*Collection),
		cats:        make(map[string]*CatToken),
		pats:        make(map[string]*PatToken),
	}
}

func cloneUser(u *User) *User {
	c := *u
	return &c
}

func cloneCollection(c *Collection) *Collection {
	cc := *c
	return &cc
}

func cloneCat(t *CatToken) *CatToken {
	c := *t
	if t.ExpiresAt != nil {
		exp := *t.ExpiresAt
		c.ExpiresAt = &exp
	}
	if t.LastUsedAt != nil {
		lu := *t.LastUsedAt
		c.LastUsedAt = &lu
	}
	return &c
}

func clonePat(t *PatToken) *PatToken {
	c := *t
	c.Scopes = append([]string(nil), t.Scopes...)
	if t.ExpiresAt != nil {
		exp := *t.ExpiresAt
		c.ExpiresAt = &exp
	}
	if t.LastUsedAt != nil {
		lu := *t.LastUsedAt
		c.LastUsedAt = &lu
	}
	return &c
}

// --- UserRepo ---

func (m *Memory) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) List(_ context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) Search(_ context.Context, query string) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var out []*User
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) CountSuperusers(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.users {
		if u.IsSuperuser && u.IsActive {
			n++
		}
	}
	return n, nil
}

// --- CollectionRepo ---

// Collections returns the CollectionRepo view of the store.
func (m *Memory) Collections() CollectionRepo { return (*memoryCollections)(m) }

type memoryCollections Memory

func (m *memoryCollections) GetByID(_ context.Context, id string) (*Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCollection(c), nil
}

func (m *memoryCollections) ListByOwner(_ context.Context, ownerID string) ([]*Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Collection
	for _, c := range m.collections {
		if c.OwnerID == ownerID {
			out = append(out, cloneCollection(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryCollections) Create(_ context.Context, c *Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.collections {
		if existing.OwnerID == c.OwnerID && existing.Name == c.Name {
			return ErrDuplicate
		}
	}
	m.collections[c.ID] = cloneCollection(c)
	return nil
}

func (m *memoryCollections) Rename(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[id]
	if !ok {
		return ErrNotFound
	}
	c.Name = name
	return nil
}

func (m *memoryCollections) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[id]; !ok {
		return ErrNotFound
	}
	delete(m.collections, id)
	return nil
}

// --- CatRepo ---

// Cats returns the CatRepo view of the store.
func (m *Memory) Cats() CatRepo { return (*memoryCats)(m) }

type memoryCats Memory

func (m *memoryCats) GetByHash(_ context.Context, hash string) (*CatToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.cats {
		if t.SecretHash == hash {
			return cloneCat(t), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryCats) GetByID(_ context.Context, id string) (*CatToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.cats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCat(t), nil
}

func (m *memoryCats) Create(_ context.Context, t *CatToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cats[t.ID] = cloneCat(t)
	return nil
}

func (m *memoryCats) List(_ context.Context, ownerID string) ([]*CatToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*CatToken
	for _, t := range m.cats {
		if ownerID == "" || t.OwnerID == ownerID {
			out = append(out, cloneCat(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryCats) ListByCollection(_ context.Context, collectionID string) ([]*CatToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*CatToken
	for _, t := range m.cats {
		if t.CollectionID == collectionID {
			out = append(out, cloneCat(t))
		}
	}
	return out, nil
}

func (m *memoryCats) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.cats[id]
	if !ok {
		return ErrNotFound
	}
	t.IsActive = false
	return nil
}

func (m *memoryCats) Rotate(_ context.Context, id, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.cats[id]
	if !ok {
		return ErrNotFound
	}
	t.SecretHash = newHash
	return nil
}

func (m *memoryCats) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.cats[id]
	if !ok {
		return ErrNotFound
	}
	t.LastUsedAt = &at
	return nil
}

// --- PatRepo ---

// Pats returns the PatRepo view of the store.
func (m *Memory) Pats() PatRepo { return (*memoryPats)(m) }

type memoryPats Memory

func (m *memoryPats) GetByHash(_ context.Context, hash string) (*PatToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.pats {
		if t.SecretHash == hash {
			return clonePat(t), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryPats) GetByID(_ context.Context, id string) (*PatToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.pats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePat(t), nil
}

func (m *memoryPats) Create(_ context.Context, t *PatToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pats[t.ID] = clonePat(t)
	return nil
}

func (m *memoryPats) List(_ context.Context, ownerID string) ([]*PatToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*PatToken
	for _, t := range m.pats {
		if ownerID == "" || t.OwnerID == ownerID {
			out = append(out, clonePat(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryPats) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.pats[id]
	if !ok {
		return ErrNotFound
	}
	t.IsActive = false
	return nil
}

func (m *memoryPats) Rotate(_ context.Context, id, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.pats[id]
	if !ok {
		return ErrNotFound
	}
	t.SecretHash = newHash
	return nil
}

func (m *memoryPats) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.pats[id]
	if !ok {
		return ErrNotFound
	}
	t.LastUsedAt = &at
	return nil
}

var (
	_ UserRepo       = (*Memory)(nil)
	_ CollectionRepo = (*memoryCollections)(nil)
	_ CatRepo        = (*memoryCats)(nil)
	_ PatRepo        = (*memoryPats)(nil)
)
