package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

// 属性名到列名的映射，只包含可以作为查询条件或者更新目标的属性
var columns = map[string]string{
	domain.AttrID:            "id",
	domain.AttrUsername:      "username",
	domain.AttrEmail:         "email",
	domain.AttrPasswordHash:  "password_hash",
	domain.AttrPrivilege:     "privilege",
	domain.AttrCreatedAt:     "created_at",
	domain.AttrLastChangedAt: "last_changed_at",
	domain.AttrIsDisabled:    "is_disabled",
	domain.AttrToken:         "token",
	domain.AttrSession:       "session",
}

const selectAccount = `
	SELECT id, username, email, password_hash, privilege, created_at, last_changed_at, is_disabled, token, session
	FROM accounts
`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	account := &domain.Account{}
	var token, session sql.NullString
	dst := []any{
		&account.ID, &account.Username, &account.Email, &account.PasswordHash, &account.Privilege,
		&account.CreatedAt, &account.LastChangedAt, &account.IsDisabled, &token, &session,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}
	account.Token = token.String
	account.Session = session.String
	return account, nil
}

func column(attribute string) (string, error) {
	col, ok := columns[attribute]
	if !ok {
		return "", &domain.UnknownAttributeError{Attribute: attribute}
	}
	return col, nil
}

// 空凭证存为 NULL，保证唯一约束只作用于有效凭证
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// 把取值转换为驱动可以接受的类型
func dbValue(attribute string, value any) any {
	switch v := value.(type) {
	case domain.PrivilegeLevel:
		return int16(v)
	case string:
		if attribute == domain.AttrToken || attribute == domain.AttrSession {
			return nullable(v)
		}
	}
	return value
}

func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, username, email, password_hash, privilege, created_at, last_changed_at, is_disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{
		account.ID, account.Username, account.Email, account.PasswordHash, int16(account.Privilege),
		account.CreatedAt, account.LastChangedAt, account.IsDisabled,
	}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return translateError(err)
	}

	return nil
}

// GetAccountBy 按属性精确查找单个账户
func (r *Repository) GetAccountBy(ctx context.Context, attribute string, value any) (*domain.Account, error) {
	col, err := column(attribute)
	if err != nil {
		return nil, err
	}
	query := selectAccount + fmt.Sprintf("WHERE %s = $1 LIMIT 1", col)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	account, err := scanAccount(r.dbpool.QueryRowContext(ctx, query, dbValue(attribute, value)))
	if err != nil {
		return nil, translateError(err)
	}

	return account, nil
}

func (r *Repository) AccountExists(ctx context.Context, attribute string, value any) (bool, error) {
	col, err := column(attribute)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM accounts WHERE %s = $1)", col)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	exists := false
	if err := r.dbpool.QueryRowContext(ctx, query, dbValue(attribute, value)).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *Repository) listAccounts(ctx context.Context, query string, args ...any) ([]*domain.Account, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// ListAccountsBy 返回属性等于给定值的所有账户
func (r *Repository) ListAccountsBy(ctx context.Context, attribute string, value any, offset, limit int) ([]*domain.Account, error) {
	col, err := column(attribute)
	if err != nil {
		return nil, err
	}
	query := selectAccount + fmt.Sprintf("WHERE %s = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3", col)
	return r.listAccounts(ctx, query, dbValue(attribute, value), offset, limit)
}

func (r *Repository) ListAccounts(ctx context.Context, offset, limit int) ([]*domain.Account, error) {
	query := selectAccount + "ORDER BY created_at, id OFFSET $1 LIMIT $2"
	return r.listAccounts(ctx, query, offset, limit)
}

func (r *Repository) ListAccountsByMinPrivilege(ctx context.Context, minLevel domain.PrivilegeLevel, offset, limit int) ([]*domain.Account, error) {
	query := selectAccount + "WHERE privilege >= $1 ORDER BY created_at, id OFFSET $2 LIMIT $3"
	return r.listAccounts(ctx, query, int16(minLevel), offset, limit)
}

func (r *Repository) CountAccounts(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.dbpool.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateAccountAttribute 在一条语句中完成更新，修改用户名时同时更新 last_changed_at
func (r *Repository) UpdateAccountAttribute(ctx context.Context, id string, attribute string, value any) (*domain.Account, error) {
	col, err := column(attribute)
	if err != nil {
		return nil, err
	}

	set := fmt.Sprintf("%s = $1", col)
	args := []any{dbValue(attribute, value), id}
	if attribute == domain.AttrUsername {
		set += ", last_changed_at = $3"
		args = append(args, time.Now())
	}
	query := fmt.Sprintf(`
		UPDATE accounts SET %s WHERE id = $2
		RETURNING id, username, email, password_hash, privilege, created_at, last_changed_at, is_disabled, token, session
	`, set)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	account, err := scanAccount(r.dbpool.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translateError(err)
	}

	return account, nil
}

// SetToken 设置登录令牌，传入空字符串表示登出
func (r *Repository) SetToken(ctx context.Context, id string, token string) error {
	return r.setCredential(ctx, "token", id, token)
}

func (r *Repository) SetSession(ctx context.Context, id string, session string) error {
	return r.setCredential(ctx, "session", id, session)
}

func (r *Repository) setCredential(ctx context.Context, col string, id string, value string) error {
	query := fmt.Sprintf("UPDATE accounts SET %s = $1 WHERE id = $2", col)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, nullable(value), id)
	if err != nil {
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	query := `
		DELETE FROM accounts WHERE id = $1
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}
