package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blankstorm/accounts/backend/internal/access"
	"github.com/blankstorm/accounts/backend/internal/config"
	"github.com/blankstorm/accounts/backend/internal/domain"
	"github.com/blankstorm/accounts/backend/internal/service"
)

// AccountService 是 handler 依赖的账户用例，由 *service.AccountService 实现
type AccountService interface {
	Create(ctx context.Context, username, email, password string) (*domain.AccountView, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, cred access.Credential, targetID, reason string) error
	IssueSession(ctx context.Context, cred access.Credential, targetID string) (string, error)
	Delete(ctx context.Context, cred access.Credential, targetID, reason string) error
	Get(ctx context.Context, cred access.Credential, attribute string, value any, tier domain.AccessTier) (*domain.AccountView, error)
	List(ctx context.Context, cred access.Credential, attribute string, value any, tier domain.AccessTier, page service.Page) ([]*domain.AccountView, error)
	ListAll(ctx context.Context, cred access.Credential, tier domain.AccessTier, page service.Page) ([]*domain.AccountView, error)
	ListByMinPrivilege(ctx context.Context, cred access.Credential, minLevel any, tier domain.AccessTier, page service.Page) ([]*domain.AccountView, error)
	Update(ctx context.Context, cred access.Credential, targetID, attribute string, value any, reason string) (*domain.AccountView, error)
	Count(ctx context.Context) (int64, error)
	Export(ctx context.Context, cred access.Credential) ([]*domain.AccountView, error)
}

// HealthCheck 检查某个依赖是否可用
type HealthCheck func(ctx context.Context) error

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	accounts   AccountService
	translator ut.Translator
	checks     map[string]HealthCheck

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, accounts AccountService, checks map[string]HealthCheck) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := registerAccountValidations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		accounts:   accounts,
		translator: trans,
		checks:     checks,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", accountIDHeader},
		MaxAge:         300,
	}))
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.credential)

	h.Mux.Route("/account", func(r chi.Router) {
		// 匿名可用
		r.Post("/create", h.CreateAccount)
		r.Post("/login", h.Login)
		r.Get("/num", h.GetAccountNum)

		// 以下接口的权限由 service 层统一判断
		r.Post("/logout", h.Logout)
		r.Post("/session", h.IssueSession)
		r.Post("/delete", h.DeleteAccount)
		r.Post("/info", h.GetAccountInfo)
		r.Post("/update", h.UpdateAccount)
	})

	h.Mux.Get("/export", h.ExportAccounts)
	h.Mux.Get("/metadata", h.GetMetadata)
	h.Mux.Get("/robots.txt", h.RobotsTxt)
	h.Mux.Get("/health", h.Health)
	h.Mux.Method(http.MethodGet, "/metrics", promhttp.Handler())
}
