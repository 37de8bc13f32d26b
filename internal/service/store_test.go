package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

// memStore 是 AccountStore 的内存实现，返回的账户都是副本
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	tokenSet int
}

func newMemStore(accounts ...*domain.Account) *memStore {
	s := &memStore{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		c := *a
		s.accounts[a.ID] = &c
	}
	return s
}

func attributeValue(a *domain.Account, attribute string) any {
	switch attribute {
	case domain.AttrID:
		return a.ID
	case domain.AttrUsername:
		return a.Username
	case domain.AttrEmail:
		return a.Email
	case domain.AttrPasswordHash:
		return a.PasswordHash
	case domain.AttrPrivilege:
		return a.Privilege
	case domain.AttrCreatedAt:
		return a.CreatedAt
	case domain.AttrLastChangedAt:
		return a.LastChangedAt
	case domain.AttrIsDisabled:
		return a.IsDisabled
	case domain.AttrToken:
		return a.Token
	case domain.AttrSession:
		return a.Session
	}
	return nil
}

func matches(a *domain.Account, attribute string, value any) bool {
	if (attribute == domain.AttrToken || attribute == domain.AttrSession) && value == "" {
		return false
	}
	if t, ok := value.(time.Time); ok {
		return attributeValue(a, attribute).(time.Time).Equal(t)
	}
	return attributeValue(a, attribute) == value
}

func (s *memStore) sorted() []*domain.Account {
	all := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func pageOf(all []*domain.Account, offset, limit int) []*domain.Account {
	out := make([]*domain.Account, 0)
	for i := offset; i < len(all) && len(out) < limit; i++ {
		c := *all[i]
		out = append(out, &c)
	}
	return out
}

func (s *memStore) CreateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == account.Username {
			return &domain.AccountExistsError{Attribute: domain.AttrUsername}
		}
		if a.Email == account.Email {
			return &domain.AccountExistsError{Attribute: domain.AttrEmail}
		}
	}
	c := *account
	s.accounts[account.ID] = &c
	return nil
}

func (s *memStore) GetAccountBy(_ context.Context, attribute string, value any) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.sorted() {
		if matches(a, attribute, value) {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *memStore) AccountExists(ctx context.Context, attribute string, value any) (bool, error) {
	_, err := s.GetAccountBy(ctx, attribute, value)
	return err == nil, nil
}

func (s *memStore) ListAccountsBy(_ context.Context, attribute string, value any, offset, limit int) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := make([]*domain.Account, 0)
	for _, a := range s.sorted() {
		if matches(a, attribute, value) {
			filtered = append(filtered, a)
		}
	}
	return pageOf(filtered, offset, limit), nil
}

func (s *memStore) ListAccounts(_ context.Context, offset, limit int) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pageOf(s.sorted(), offset, limit), nil
}

func (s *memStore) ListAccountsByMinPrivilege(_ context.Context, minLevel domain.PrivilegeLevel, offset, limit int) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := make([]*domain.Account, 0)
	for _, a := range s.sorted() {
		if a.Privilege >= minLevel {
			filtered = append(filtered, a)
		}
	}
	return pageOf(filtered, offset, limit), nil
}

func (s *memStore) CountAccounts(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.accounts)), nil
}

func (s *memStore) UpdateAccountAttribute(_ context.Context, id string, attribute string, value any) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	switch attribute {
	case domain.AttrUsername:
		a.Username = value.(string)
		a.LastChangedAt = time.Now()
	case domain.AttrEmail:
		a.Email = value.(string)
	case domain.AttrPasswordHash:
		a.PasswordHash = value.(string)
	case domain.AttrPrivilege:
		a.Privilege = value.(domain.PrivilegeLevel)
	case domain.AttrIsDisabled:
		a.IsDisabled = value.(bool)
	}
	c := *a
	return &c, nil
}

func (s *memStore) SetToken(_ context.Context, id string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	s.tokenSet++
	a.Token = token
	return nil
}

func (s *memStore) SetSession(_ context.Context, id string, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Session = session
	return nil
}

func (s *memStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *memStore) get(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	c := *a
	return &c
}

type recordingNotifier struct {
	messages []domain.MailMessage
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.MailMessage) error {
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) types() []string {
	types := make([]string, 0, len(n.messages))
	for _, m := range n.messages {
		types = append(types, m.Type)
	}
	return types
}

type stubCache struct {
	count       int64
	ok          bool
	sets        int
	invalidated int
}

func (c *stubCache) GetAccountCount(context.Context) (int64, bool, error) {
	return c.count, c.ok, nil
}

func (c *stubCache) SetAccountCount(_ context.Context, count int64) error {
	c.count, c.ok = count, true
	c.sets++
	return nil
}

func (c *stubCache) InvalidateAccountCount(context.Context) error {
	c.ok = false
	c.invalidated++
	return nil
}

func fixtureAccount(id byte, username string, privilege domain.PrivilegeLevel) *domain.Account {
	created := time.Now().Add(-24 * time.Hour)
	return &domain.Account{
		ID:            strings.Repeat(string(id), 32),
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  "unused",
		Privilege:     privilege,
		CreatedAt:     created,
		LastChangedAt: created,
		Token:         strings.Repeat(string(id), 64),
	}
}
