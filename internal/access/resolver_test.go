package access

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

type stubFinder struct {
	byToken map[string]*domain.Account
	err     error
	calls   int
}

func (s *stubFinder) GetAccountBy(_ context.Context, attribute string, value any) (*domain.Account, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if attribute != domain.AttrToken {
		return nil, domain.ErrAccountNotFound
	}
	account, ok := s.byToken[value.(string)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func TestTokenResolver(t *testing.T) {
	account := testAccount('a', domain.PrivilegeAccount)
	finder := &stubFinder{byToken: map[string]*domain.Account{account.Token: account}}
	resolver := NewTokenResolver(finder)
	ctx := context.Background()

	got, err := resolver.Resolve(ctx, Credential{Token: account.Token})
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	got, err = resolver.Resolve(ctx, Credential{Token: account.Token, ID: account.ID})
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = resolver.Resolve(ctx, Credential{Token: account.Token, ID: strings.Repeat("b", 32)})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = resolver.Resolve(ctx, Credential{Token: strings.Repeat("c", 64)})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestTokenResolver_MalformedTokenSkipsStore(t *testing.T) {
	finder := &stubFinder{}
	resolver := NewTokenResolver(finder)

	for _, cred := range []Credential{{}, {Token: "short"}, {Token: strings.Repeat("A", 64)}} {
		_, err := resolver.Resolve(context.Background(), cred)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	}
	assert.Zero(t, finder.calls)
}

func TestTokenResolver_StoreError(t *testing.T) {
	boom := errors.New("timeout")
	resolver := NewTokenResolver(&stubFinder{err: boom})

	_, err := resolver.Resolve(context.Background(), Credential{Token: strings.Repeat("d", 64)})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}
