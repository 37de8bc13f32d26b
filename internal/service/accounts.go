package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/blankstorm/accounts/backend/internal/access"
	"github.com/blankstorm/accounts/backend/internal/domain"
	"github.com/blankstorm/accounts/backend/internal/metrics"
	"github.com/blankstorm/accounts/backend/internal/utils"
)

// 更新时接受的明文密码属性名，存储前会被哈希为 passwordHash
const AttrPassword = "password"

// 这些属性只能由系统维护
var readOnlyAttributes = map[string]bool{
	domain.AttrID:            true,
	domain.AttrCreatedAt:     true,
	domain.AttrLastChangedAt: true,
	domain.AttrToken:         true,
	domain.AttrSession:       true,
}

type Page struct {
	Offset int
	Limit  int
}

type LoginResult struct {
	Account *domain.AccountView `json:"account"`
	Token   string              `json:"token"`
}

func (s *AccountService) page(p Page) (Page, error) {
	if p.Offset < 0 {
		return p, &domain.ValidationError{Attribute: "offset", Reason: "must not be negative"}
	}
	if p.Limit <= 0 || p.Limit > s.listLimit {
		p.Limit = s.listLimit
	}
	return p, nil
}

func validatePassword(password string) error {
	if password == "" {
		return &domain.ValidationError{Attribute: AttrPassword, Reason: "must not be empty"}
	}
	// bcrypt 只使用前 72 个字节
	if len(password) > 72 {
		return &domain.ValidationError{Attribute: AttrPassword, Reason: "must be at most 72 bytes"}
	}
	return nil
}

// Create 注册新账户，不需要任何凭证
func (s *AccountService) Create(ctx context.Context, username, email, password string) (*domain.AccountView, error) {
	if err := access.Validate(domain.AttrUsername, username); err != nil {
		return nil, err
	}
	if err := access.Validate(domain.AttrEmail, email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	unique := []struct {
		attribute string
		value     string
	}{
		{domain.AttrUsername, username},
		{domain.AttrEmail, email},
	}
	for _, u := range unique {
		exists, err := s.store.AccountExists(ctx, u.attribute, u.value)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", u.attribute, err)
		}
		if exists {
			return nil, &domain.AccountExistsError{Attribute: u.attribute}
		}
	}

	account, err := newAccount(username, email, password, domain.PrivilegeAccount)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	metrics.AccountsCreatedTotal.Inc()
	s.invalidateCount(ctx)
	s.notify(ctx, domain.MailMessage{
		Type: domain.MailWelcome,
		To:   account.Email,
		Data: domain.WelcomeMailData{Username: account.Username},
	})
	s.logger.Info("账户已创建", "id", account.ID, "username", account.Username)

	return access.Redact(account, domain.TierPublic)
}

func newAccount(username, email, password string, privilege domain.PrivilegeLevel) (*domain.Account, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	return &domain.Account{
		ID:            utils.GenerateAccountID(),
		Username:      username,
		Email:         email,
		PasswordHash:  string(passwordHash),
		Privilege:     privilege,
		CreatedAt:     now,
		LastChangedAt: now,
	}, nil
}

// EnsureOwner 确保存在初始 OWNER 账户，已经存在时什么也不做
func (s *AccountService) EnsureOwner(ctx context.Context, username, email, password string) error {
	exists, err := s.store.AccountExists(ctx, domain.AttrUsername, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	account, err := newAccount(username, email, password, domain.PrivilegeOwner)
	if err != nil {
		return err
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		var existsErr *domain.AccountExistsError
		if errors.As(err, &existsErr) {
			// 并发启动时可能已经被其他实例创建
			return nil
		}
		return err
	}
	s.logger.Info("已创建初始账户", "username", username)
	return nil
}

// Login 校验邮箱和密码，成功后签发新的令牌
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := access.Validate(domain.AttrEmail, email); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccountBy(ctx, domain.AttrEmail, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if account.IsDisabled {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrUnauthenticated
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.SetToken(ctx, account.ID, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	account.Token = token
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	view, err := access.Redact(account, domain.TierPublic)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Account: view, Token: token}, nil
}

// lookupTarget 未指定 id 时目标就是调用方自己
func (s *AccountService) lookupTarget(ctx context.Context, cred access.Credential, targetID string) (*domain.Account, error) {
	if targetID == "" {
		return s.resolver.Resolve(ctx, cred)
	}
	if err := access.Validate(domain.AttrID, targetID); err != nil {
		return nil, err
	}
	return s.store.GetAccountBy(ctx, domain.AttrID, targetID)
}

// authorizeOn 先授权再报告目标不存在，避免未授权的调用方探测账户是否存在
func (s *AccountService) authorizeOn(ctx context.Context, req access.Request, targetID string) (*domain.Account, *domain.Account, error) {
	target, err := s.lookupTarget(ctx, req.Credential, targetID)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil, err
	}
	req.Target = target

	caller, err := s.authz.Authorize(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, domain.ErrAccountNotFound
	}
	return caller, target, nil
}

// Logout 清除令牌，令牌已经为空时直接成功
func (s *AccountService) Logout(ctx context.Context, cred access.Credential, targetID, reason string) error {
	caller, target, err := s.authorizeOn(ctx, access.NewRequest(access.OpLogout, cred, nil), targetID)
	if err != nil {
		return err
	}
	if !target.LoggedIn() {
		return nil
	}
	if err := s.store.SetToken(ctx, target.ID, ""); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.logger.Info("账户已登出", "id", target.ID, "by", caller.ID, "reason", reason)
	return nil
}

func (s *AccountService) IssueSession(ctx context.Context, cred access.Credential, targetID string) (string, error) {
	_, target, err := s.authorizeOn(ctx, access.NewRequest(access.OpIssueSession, cred, nil), targetID)
	if err != nil {
		return "", err
	}
	session, err := utils.GenerateToken()
	if err != nil {
		return "", err
	}
	if err := s.store.SetSession(ctx, target.ID, session); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// Delete 删除账户，通知邮件在删除前发送
func (s *AccountService) Delete(ctx context.Context, cred access.Credential, targetID, reason string) error {
	caller, target, err := s.authorizeOn(ctx, access.NewRequest(access.OpDelete, cred, nil), targetID)
	if err != nil {
		return err
	}

	s.notify(ctx, domain.MailMessage{
		Type: domain.MailAccountDeleted,
		To:   target.Email,
		Data: domain.AccountNoticeMailData{Username: target.Username, Reason: reason},
	})
	if err := s.store.DeleteAccount(ctx, target.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.invalidateCount(ctx)
	s.logger.Info("账户已删除", "id", target.ID, "by", caller.ID, "reason", reason)
	return nil
}

func lookupValue(attribute string, value any) (any, error) {
	if attribute == domain.AttrPasswordHash {
		return nil, &domain.ValidationError{Attribute: attribute, Reason: "cannot be used as a lookup key"}
	}
	return access.Normalize(attribute, value)
}

// Get 按属性读取单个账户，attribute 为空时读取调用方自己
func (s *AccountService) Get(ctx context.Context, cred access.Credential, attribute string, value any, tier domain.AccessTier) (*domain.AccountView, error) {
	if attribute == "" {
		req := access.NewRequest(access.OpReadSelf, cred, nil).WithTier(tier)
		caller, _, err := s.authorizeOn(ctx, req, "")
		if err != nil {
			return nil, err
		}
		return access.Redact(caller, tier)
	}

	normalized, err := lookupValue(attribute, value)
	if err != nil {
		return nil, err
	}
	target, err := s.store.GetAccountBy(ctx, attribute, normalized)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	if _, err := s.authz.Authorize(ctx, access.NewRequest(access.OpRead, cred, target).WithTier(tier)); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.ErrAccountNotFound
	}
	return access.Redact(target, tier)
}

// List 返回属性等于给定值的账户
func (s *AccountService) List(ctx context.Context, cred access.Credential, attribute string, value any, tier domain.AccessTier, page Page) ([]*domain.AccountView, error) {
	if _, err := s.authz.Authorize(ctx, access.NewRequest(access.OpList, cred, nil).WithTier(tier)); err != nil {
		return nil, err
	}
	normalized, err := lookupValue(attribute, value)
	if err != nil {
		return nil, err
	}
	page, err = s.page(page)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.ListAccountsBy(ctx, attribute, normalized, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return access.RedactAll(accounts, tier)
}

func (s *AccountService) ListAll(ctx context.Context, cred access.Credential, tier domain.AccessTier, page Page) ([]*domain.AccountView, error) {
	if _, err := s.authz.Authorize(ctx, access.NewRequest(access.OpListAll, cred, nil).WithTier(tier)); err != nil {
		return nil, err
	}
	page, err := s.page(page)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.ListAccounts(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return access.RedactAll(accounts, tier)
}

// ListByMinPrivilege 返回等级不低于 minLevel 的账户
func (s *AccountService) ListByMinPrivilege(ctx context.Context, cred access.Credential, minLevel any, tier domain.AccessTier, page Page) ([]*domain.AccountView, error) {
	if _, err := s.authz.Authorize(ctx, access.NewRequest(access.OpListAll, cred, nil).WithTier(tier)); err != nil {
		return nil, err
	}
	normalized, err := access.Normalize(domain.AttrPrivilege, minLevel)
	if err != nil {
		return nil, err
	}
	page, err = s.page(page)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.ListAccountsByMinPrivilege(ctx, normalized.(domain.PrivilegeLevel), page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return access.RedactAll(accounts, tier)
}

// Update 修改单个属性。password 和 passwordHash 都接受明文密码
func (s *AccountService) Update(ctx context.Context, cred access.Credential, targetID, attribute string, value any, reason string) (*domain.AccountView, error) {
	if attribute == AttrPassword {
		attribute = domain.AttrPasswordHash
	}
	if readOnlyAttributes[attribute] {
		return nil, &domain.ValidationError{Attribute: attribute, Reason: "read-only attribute"}
	}
	if !slices.Contains(domain.AccountAttributes, attribute) {
		return nil, &domain.UnknownAttributeError{Attribute: attribute}
	}

	caller, target, err := s.authorizeOn(ctx, access.NewUpdateRequest(attribute, cred, nil), targetID)
	if err != nil {
		return nil, err
	}

	var normalized any
	if attribute == domain.AttrPasswordHash {
		password, ok := value.(string)
		if !ok {
			return nil, &domain.ValidationError{Attribute: AttrPassword, Reason: "must be a string"}
		}
		if err := validatePassword(password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		normalized = string(hash)
	} else {
		normalized, err = access.Normalize(attribute, value)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateAccountAttribute(ctx, target.ID, attribute, normalized)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", attribute, err)
	}
	s.logger.Info("账户已更新", "id", target.ID, "attribute", attribute, "by", caller.ID, "reason", reason)

	switch attribute {
	case domain.AttrEmail:
		if updated.Email != target.Email {
			// 发到旧邮箱，让原主人知道邮箱被修改
			s.notify(ctx, domain.MailMessage{
				Type: domain.MailEmailChanged,
				To:   target.Email,
				Data: domain.EmailChangedMailData{Username: updated.Username, NewEmail: updated.Email},
			})
		}
	case domain.AttrIsDisabled:
		if updated.IsDisabled != target.IsDisabled {
			mailType := domain.MailAccountEnabled
			if updated.IsDisabled {
				mailType = domain.MailAccountDisabled
			}
			s.notify(ctx, domain.MailMessage{
				Type: mailType,
				To:   updated.Email,
				Data: domain.AccountNoticeMailData{Username: updated.Username, Reason: reason},
			})
		}
	}

	return access.Redact(updated, domain.TierPublic)
}

// Count 返回账户总数，优先使用缓存
func (s *AccountService) Count(ctx context.Context) (int64, error) {
	if s.cache != nil {
		count, ok, err := s.cache.GetAccountCount(ctx)
		switch {
		case err != nil:
			s.logger.Warn("无法读取账户数量缓存", "error", err)
		case ok:
			metrics.CountCacheTotal.WithLabelValues("hit").Inc()
			return count, nil
		}
		metrics.CountCacheTotal.WithLabelValues("miss").Inc()
	}

	count, err := s.store.CountAccounts(ctx)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAccountCount(ctx, count); err != nil {
			s.logger.Warn("无法写入账户数量缓存", "error", err)
		}
	}
	return count, nil
}

// Export 导出全部账户，仅 ADMINISTRATOR 及以上可用
func (s *AccountService) Export(ctx context.Context, cred access.Credential) ([]*domain.AccountView, error) {
	caller, err := s.authz.Authorize(ctx, access.NewRequest(access.OpExport, cred, nil))
	if err != nil {
		return nil, err
	}

	all := make([]*domain.Account, 0)
	for offset := 0; ; offset += s.listLimit {
		accounts, err := s.store.ListAccounts(ctx, offset, s.listLimit)
		if err != nil {
			return nil, err
		}
		all = append(all, accounts...)
		if len(accounts) < s.listLimit {
			break
		}
	}
	s.logger.Info("已导出账户", "count", len(all), "by", caller.ID)

	return access.RedactAll(all, domain.TierPrivate)
}
