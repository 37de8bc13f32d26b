package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankstorm/accounts/backend/internal/config"
	"github.com/blankstorm/accounts/backend/internal/domain"
)

var accountColumns = []string{
	"id", "username", "email", "password_hash", "privilege",
	"created_at", "last_changed_at", "is_disabled", "token", "session",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	return NewRepository(cfg, db), mock
}

func TestGetAccountBy(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	token := strings.Repeat("a", 64)

	rows := sqlmock.NewRows(accountColumns).
		AddRow(strings.Repeat("1", 32), "alice", "alice@example.com", "hash", int64(3), created, created, false, token, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")+`\s+WHERE token = \$1`).
		WithArgs(token).
		WillReturnRows(rows)

	account, err := repo.GetAccountBy(context.Background(), domain.AttrToken, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, domain.PrivilegeAdministrator, account.Privilege)
	assert.Equal(t, token, account.Token)
	assert.Empty(t, account.Session)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountBy_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAccountBy(context.Background(), domain.AttrUsername, "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGetAccountBy_UnknownAttribute(t *testing.T) {
	repo, _ := newMockRepository(t)

	_, err := repo.GetAccountBy(context.Background(), "nickname", "x")
	var uerr *domain.UnknownAttributeError
	assert.ErrorAs(t, err, &uerr)
}

func TestCreateAccount_Duplicate(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	err := repo.CreateAccount(context.Background(), &domain.Account{
		ID:       strings.Repeat("2", 32),
		Username: "bob",
		Email:    "bob@example.com",
	})

	var existsErr *domain.AccountExistsError
	require.ErrorAs(t, err, &existsErr)
	assert.Equal(t, domain.AttrEmail, existsErr.Attribute)
}

func TestUpdateAccountAttribute_UsernameBumpsLastChanged(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := strings.Repeat("3", 32)
	now := time.Now()

	mock.ExpectQuery(`UPDATE accounts SET username = \$1, last_changed_at = \$3 WHERE id = \$2`).
		WithArgs("carol_2", id, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(id, "carol_2", "carol@example.com", "hash", int64(0), now, now, false, nil, nil))

	account, err := repo.UpdateAccountAttribute(context.Background(), id, domain.AttrUsername, "carol_2")
	require.NoError(t, err)
	assert.Equal(t, "carol_2", account.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccountAttribute_OtherAttributeKeepsLastChanged(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := strings.Repeat("4", 32)
	now := time.Now()

	mock.ExpectQuery(`UPDATE accounts SET privilege = \$1 WHERE id = \$2`).
		WithArgs(int16(2), id).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(id, "dave", "dave@example.com", "hash", int64(2), now, now, false, nil, nil))

	account, err := repo.UpdateAccountAttribute(context.Background(), id, domain.AttrPrivilege, domain.PrivilegeDeveloper)
	require.NoError(t, err)
	assert.Equal(t, domain.PrivilegeDeveloper, account.Privilege)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetToken_ClearStoresNull(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := strings.Repeat("5", 32)

	mock.ExpectExec(`UPDATE accounts SET token = \$1 WHERE id = \$2`).
		WithArgs(nil, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetToken(context.Background(), id, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccount_Missing(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteAccount(context.Background(), strings.Repeat("6", 32))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestListAccountsByMinPrivilege(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`WHERE privilege >= \$1 ORDER BY created_at, id OFFSET \$2 LIMIT \$3`).
		WithArgs(int16(1), 0, 10).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(strings.Repeat("7", 32), "mod_1", "m1@example.com", "h", int64(1), now, now, false, nil, nil).
			AddRow(strings.Repeat("8", 32), "owner", "o@example.com", "h", int64(4), now, now, true, nil, nil))

	accounts, err := repo.ListAccountsByMinPrivilege(context.Background(), domain.PrivilegeModerator, 0, 10)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, accounts[1].IsDisabled)
}

func TestCountAccounts_Error(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("conn reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM accounts")).WillReturnError(boom)

	_, err := repo.CountAccounts(context.Background())
	assert.ErrorIs(t, err, boom)
}
