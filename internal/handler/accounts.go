package handler

import (
	"net/http"

	"github.com/blankstorm/accounts/backend/internal/domain"
	"github.com/blankstorm/accounts/backend/internal/service"
)

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required,account_email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	account, err := h.accounts.Create(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建账户成功", account)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,account_email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "登录成功", result)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Reason string `json:"reason"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.accounts.Logout(r.Context(), credentialFrom(r), req.ID, req.Reason); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "登出成功", nil)
}

func (h *Handler) IssueSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	session, err := h.accounts.IssueSession(r.Context(), credentialFrom(r), req.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "签发会话成功", map[string]string{"session": session})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Reason string `json:"reason"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.accounts.Delete(r.Context(), credentialFrom(r), req.ID, req.Reason); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除账户成功", nil)
}

func (h *Handler) GetAccountInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key      string `json:"key"`
		Value    any    `json:"value"`
		Access   string `json:"access"`
		Multiple bool   `json:"multiple"`
		All      bool   `json:"all"`
		// 仅在 all 为 true 时生效，接受数值或名称
		MinPrivilege *domain.PrivilegeLevel `json:"minPrivilege"`
		Offset       int                    `json:"offset" validate:"gte=0"`
		Limit        int                    `json:"limit" validate:"gte=0"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	tier, err := domain.ParseAccessTier(req.Access)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	cred := credentialFrom(r)
	page := service.Page{Offset: req.Offset, Limit: req.Limit}

	var data any
	switch {
	case req.All && req.MinPrivilege != nil:
		data, err = h.accounts.ListByMinPrivilege(ctx, cred, *req.MinPrivilege, tier, page)
	case req.All:
		data, err = h.accounts.ListAll(ctx, cred, tier, page)
	case req.Multiple:
		if req.Key == "" {
			h.badRequest(w, r, &domain.ValidationError{Attribute: "key", Reason: "required when multiple is set"})
			return
		}
		data, err = h.accounts.List(ctx, cred, req.Key, req.Value, tier, page)
	default:
		data, err = h.accounts.Get(ctx, cred, req.Key, req.Value, tier)
	}
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取账户信息成功", data)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Key    string `json:"key" validate:"required"`
		Value  any    `json:"value"`
		Reason string `json:"reason"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Value == nil {
		h.badRequest(w, r, &domain.ValidationError{Attribute: "value", Reason: "required"})
		return
	}

	account, err := h.accounts.Update(r.Context(), credentialFrom(r), req.ID, req.Key, req.Value, req.Reason)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新账户成功", account)
}

func (h *Handler) GetAccountNum(w http.ResponseWriter, r *http.Request) {
	count, err := h.accounts.Count(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取账户数量成功", count)
}

func (h *Handler) ExportAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.Export(r.Context(), credentialFrom(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="accounts.json"`)
	h.successResponse(w, r, "导出账户成功", accounts)
}
