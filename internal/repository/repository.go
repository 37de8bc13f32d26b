package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/blankstorm/accounts/backend/internal/config"
	"github.com/blankstorm/accounts/backend/internal/domain"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// 唯一约束名到属性名的映射
var uniqueConstraints = map[string]string{
	"accounts_pkey":         domain.AttrID,
	"accounts_username_key": domain.AttrUsername,
	"accounts_email_key":    domain.AttrEmail,
	"accounts_token_key":    domain.AttrToken,
	"accounts_session_key":  domain.AttrSession,
}

// translateError 把驱动错误转换为领域错误，其他错误原样返回
func translateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrAccountNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		attribute, ok := uniqueConstraints[pgErr.ConstraintName]
		if !ok {
			attribute = pgErr.ConstraintName
		}
		return &domain.AccountExistsError{Attribute: attribute}
	}

	return err
}
