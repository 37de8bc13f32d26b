package access

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

func fullAccount() *domain.Account {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Account{
		ID:            "0123456789abcdef0123456789abcdef",
		Username:      "alice",
		Email:         "alice@example.com",
		PasswordHash:  "$2a$10$hash",
		Privilege:     domain.PrivilegeDeveloper,
		CreatedAt:     created,
		LastChangedAt: created,
		Token:         strings.Repeat("a", 64),
		Session:       strings.Repeat("b", 64),
	}
}

func viewKeys(t *testing.T, view *domain.AccountView) []string {
	t.Helper()
	data, err := json.Marshal(view)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys
}

func TestRedact_Public(t *testing.T) {
	view, err := Redact(fullAccount(), domain.TierPublic)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"id", "username", "privilege", "createdAt", "lastChangedAt", "isDisabled"},
		viewKeys(t, view))
}

func TestRedact_Elevated(t *testing.T) {
	for _, tier := range []domain.AccessTier{domain.TierProtected, domain.TierPrivate} {
		t.Run(tier.String(), func(t *testing.T) {
			account := fullAccount()
			view, err := Redact(account, tier)
			require.NoError(t, err)

			keys := viewKeys(t, view)
			assert.Subset(t, keys, []string{"email", "token", "session"})
			assert.NotContains(t, keys, "passwordHash")
			assert.Equal(t, account.Email, *view.Email)
			assert.Equal(t, account.Token, *view.Token)
		})
	}
}

func TestRedact_DoesNotMutate(t *testing.T) {
	account := fullAccount()
	before := *account

	view, err := Redact(account, domain.TierProtected)
	require.NoError(t, err)
	*view.Email = "changed@example.com"

	assert.Equal(t, before, *account)
}

func TestRedact_InvalidTier(t *testing.T) {
	_, err := Redact(fullAccount(), domain.AccessTier(7))

	var terr *domain.InvalidTierError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 500, domain.HTTPStatus(err))
}

func TestRedactAll(t *testing.T) {
	other := fullAccount()
	other.ID = strings.Repeat("1", 32)

	views, err := RedactAll([]*domain.Account{fullAccount(), other}, domain.TierPublic)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Nil(t, views[1].Email)
	assert.Equal(t, other.ID, views[1].ID)
}
