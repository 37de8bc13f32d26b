package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

// Credential 是调用方提供的凭证。ID 可选，提供时必须与令牌对应的账户一致
type Credential struct {
	Token string
	ID    string
}

func (c Credential) Empty() bool {
	return c.Token == "" && c.ID == ""
}

type IdentityResolver interface {
	Resolve(ctx context.Context, cred Credential) (*domain.Account, error)
}

// AccountFinder 是解析身份所需的最小存储接口
type AccountFinder interface {
	GetAccountBy(ctx context.Context, attribute string, value any) (*domain.Account, error)
}

// TokenResolver 每次都直接查询存储，不做缓存
type TokenResolver struct {
	store AccountFinder
}

func NewTokenResolver(store AccountFinder) *TokenResolver {
	return &TokenResolver{store: store}
}

func (r *TokenResolver) Resolve(ctx context.Context, cred Credential) (*domain.Account, error) {
	if cred.Empty() {
		return nil, domain.ErrUnauthenticated
	}
	if !IsValid(domain.AttrToken, cred.Token) {
		return nil, domain.ErrUnauthenticated
	}
	if cred.ID != "" && !IsValid(domain.AttrID, cred.ID) {
		return nil, domain.ErrUnauthenticated
	}

	account, err := r.store.GetAccountBy(ctx, domain.AttrToken, cred.Token)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve credential: %w", err)
	}
	if cred.ID != "" && cred.ID != account.ID {
		return nil, domain.ErrUnauthenticated
	}
	return account, nil
}
