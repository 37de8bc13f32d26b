// Package service 实现账户相关的业务用例。每个用例都先经过 access.Authorizer 授权，
// 返回给调用方的账户信息都经过 access.Redact 脱敏。
package service

import (
	"context"
	"log/slog"

	"github.com/blankstorm/accounts/backend/internal/access"
	"github.com/blankstorm/accounts/backend/internal/domain"
)

// 分页时单次最多返回的账户数
const DefaultListLimit = 1000

type AccountStore interface {
	access.AccountFinder
	CreateAccount(ctx context.Context, account *domain.Account) error
	AccountExists(ctx context.Context, attribute string, value any) (bool, error)
	ListAccountsBy(ctx context.Context, attribute string, value any, offset, limit int) ([]*domain.Account, error)
	ListAccounts(ctx context.Context, offset, limit int) ([]*domain.Account, error)
	ListAccountsByMinPrivilege(ctx context.Context, minLevel domain.PrivilegeLevel, offset, limit int) ([]*domain.Account, error)
	CountAccounts(ctx context.Context) (int64, error)
	UpdateAccountAttribute(ctx context.Context, id string, attribute string, value any) (*domain.Account, error)
	SetToken(ctx context.Context, id string, token string) error
	SetSession(ctx context.Context, id string, session string) error
	DeleteAccount(ctx context.Context, id string) error
}

type CountCache interface {
	GetAccountCount(ctx context.Context) (int64, bool, error)
	SetAccountCount(ctx context.Context, count int64) error
	InvalidateAccountCount(ctx context.Context) error
}

type Notifier interface {
	Notify(ctx context.Context, msg domain.MailMessage) error
}

type Config struct {
	Logger *slog.Logger
	// 为空时账户数量不做缓存
	Cache     CountCache
	Notifier  Notifier
	ListLimit int
}

type AccountService struct {
	store     AccountStore
	resolver  access.IdentityResolver
	authz     *access.Authorizer
	cache     CountCache
	notifier  Notifier
	logger    *slog.Logger
	listLimit int
}

func NewAccountService(store AccountStore, cfg Config) *AccountService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.ListLimit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	resolver := access.NewTokenResolver(store)

	return &AccountService{
		store:     store,
		resolver:  resolver,
		authz:     access.NewAuthorizer(resolver, logger),
		cache:     cfg.Cache,
		notifier:  cfg.Notifier,
		logger:    logger,
		listLimit: limit,
	}
}

// notify 在数据已经写入之后调用，投递失败只记录日志
func (s *AccountService) notify(ctx context.Context, msg domain.MailMessage) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Error("无法发送邮件通知", "type", msg.Type, "to", msg.To, "error", err)
	}
}

func (s *AccountService) invalidateCount(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAccountCount(ctx); err != nil {
		s.logger.Warn("无法清除账户数量缓存", "error", err)
	}
}
