package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blankstorm/accounts/backend/internal/domain"
	"github.com/blankstorm/accounts/backend/internal/metrics"
)

type Request struct {
	Operation   Operation
	Credential  Credential
	Required    domain.PrivilegeLevel
	Target      *domain.Account // 为空表示没有目标账户
	AllowIfSame bool
	// 只有读取操作才设置 Read，此时 Tier 生效
	Read bool
	Tier domain.AccessTier
}

// NewRequest 按权限表生成请求
func NewRequest(op Operation, cred Credential, target *domain.Account) Request {
	rule, _ := RuleFor(op)
	return Request{
		Operation:   op,
		Credential:  cred,
		Required:    rule.Required,
		Target:      target,
		AllowIfSame: rule.AllowIfSame,
	}
}

func NewUpdateRequest(attribute string, cred Credential, target *domain.Account) Request {
	rule := UpdateRule(attribute)
	return Request{
		Operation:   OpUpdate,
		Credential:  cred,
		Required:    rule.Required,
		Target:      target,
		AllowIfSame: rule.AllowIfSame,
	}
}

// WithTier 把请求标记为读取操作
func (r Request) WithTier(tier domain.AccessTier) Request {
	r.Read = true
	r.Tier = tier
	return r
}

// Authorizer 是所有账户操作唯一的授权入口
type Authorizer struct {
	resolver IdentityResolver
	logger   *slog.Logger
}

func NewAuthorizer(resolver IdentityResolver, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{resolver: resolver, logger: logger}
}

// Authorize 放行时返回解析出的调用方账户
func (a *Authorizer) Authorize(ctx context.Context, req Request) (*domain.Account, error) {
	caller, err := a.decide(ctx, req)
	a.record(ctx, req, caller, err)
	if err != nil {
		return nil, err
	}
	return caller, nil
}

func (a *Authorizer) decide(ctx context.Context, req Request) (*domain.Account, error) {
	caller, err := a.resolver.Resolve(ctx, req.Credential)
	if err != nil {
		return nil, err
	}

	if req.Read && !req.Tier.Valid() {
		return caller, &domain.InvalidTierError{Tier: req.Tier.String()}
	}

	self := req.Target != nil && caller.ID == req.Target.ID
	if req.AllowIfSame && self {
		return caller, nil
	}

	if !caller.Privilege.AtLeast(req.Required) {
		return caller, &domain.InsufficientPrivilegeError{Required: req.Required, Actual: caller.Privilege}
	}

	if req.Read && req.Tier.Elevated() && !self {
		required := max(req.Required, ElevatedReadLevel)
		if !caller.Privilege.AtLeast(required) {
			return caller, &domain.InsufficientPrivilegeError{Required: required, Actual: caller.Privilege}
		}
	}

	return caller, nil
}

func (a *Authorizer) record(ctx context.Context, req Request, caller *domain.Account, err error) {
	decision := "allow"
	level := slog.LevelInfo
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnauthenticated), domain.IsClientError(err):
		decision = "deny"
	default:
		decision = "error"
		level = slog.LevelError
	}
	metrics.AuthorizationDecisionsTotal.WithLabelValues(string(req.Operation), decision).Inc()

	attrs := []any{
		"operation", req.Operation,
		"required", req.Required,
		"allow_if_same", req.AllowIfSame,
		"decision", decision,
	}
	if caller != nil {
		attrs = append(attrs, "caller", caller.ID, "privilege", caller.Privilege.Short())
	}
	if req.Target != nil {
		attrs = append(attrs, "target", req.Target.ID)
	}
	if req.Read {
		attrs = append(attrs, "tier", req.Tier)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	a.logger.Log(ctx, level, "授权决策", attrs...)
}
