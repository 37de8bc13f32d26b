package access

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

func TestValidate(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		attribute string
		value     any
		valid     bool
	}{
		{"id 32 hex", domain.AttrID, "0123456789abcdef0123456789abcdef", true},
		{"id uppercase", domain.AttrID, "0123456789ABCDEF0123456789ABCDEF", false},
		{"id too short", domain.AttrID, "0123456789abcdef", false},
		{"id not string", domain.AttrID, 42, false},
		{"username too short", domain.AttrUsername, "ab", false},
		{"username min length", domain.AttrUsername, "abc", true},
		{"username max length", domain.AttrUsername, strings.Repeat("a", 20), true},
		{"username too long", domain.AttrUsername, strings.Repeat("a", 21), false},
		{"username underscore and digits", domain.AttrUsername, "user_01", true},
		{"username hyphen", domain.AttrUsername, "user-01", false},
		{"username unicode", domain.AttrUsername, "用户名字", false},
		{"email", domain.AttrEmail, "jane.doe@example.com", true},
		{"email subdomain", domain.AttrEmail, "jane@mail.example.co", true},
		{"email no dot in domain", domain.AttrEmail, "jane@localhost", false},
		{"email short tld", domain.AttrEmail, "jane@example.c", false},
		{"email no at", domain.AttrEmail, "jane.example.com", false},
		{"privilege int", domain.AttrPrivilege, 3, true},
		{"privilege level", domain.AttrPrivilege, domain.PrivilegeOwner, true},
		{"privilege float from json", domain.AttrPrivilege, float64(2), true},
		{"privilege fractional", domain.AttrPrivilege, 1.5, false},
		{"privilege numeric string", domain.AttrPrivilege, "4", true},
		{"privilege name", domain.AttrPrivilege, "ADMIN", false},
		{"privilege negative", domain.AttrPrivilege, -1, false},
		{"privilege above owner", domain.AttrPrivilege, 5, false},
		{"createdAt past", domain.AttrCreatedAt, past, true},
		{"createdAt future", domain.AttrCreatedAt, future, false},
		{"lastChangedAt rfc3339", domain.AttrLastChangedAt, past.Format(time.RFC3339), true},
		{"lastChangedAt garbage", domain.AttrLastChangedAt, "yesterday", false},
		{"token 64 hex", domain.AttrToken, strings.Repeat("ab", 32), true},
		{"token 63 hex", domain.AttrToken, strings.Repeat("a", 63), false},
		{"session 64 hex", domain.AttrSession, strings.Repeat("0f", 32), true},
		{"session not hex", domain.AttrSession, strings.Repeat("zz", 32), false},
		{"isDisabled true", domain.AttrIsDisabled, true, true},
		{"isDisabled false", domain.AttrIsDisabled, false, true},
		{"isDisabled legacy 1", domain.AttrIsDisabled, 1, true},
		{"isDisabled legacy 0 from json", domain.AttrIsDisabled, float64(0), true},
		{"isDisabled legacy string", domain.AttrIsDisabled, "false", true},
		{"isDisabled legacy int64", domain.AttrIsDisabled, int64(1), true},
		{"isDisabled legacy uint8", domain.AttrIsDisabled, uint8(0), true},
		{"isDisabled legacy int32", domain.AttrIsDisabled, int32(1), true},
		{"isDisabled legacy float32", domain.AttrIsDisabled, float32(1), true},
		{"isDisabled 2", domain.AttrIsDisabled, 2, false},
		{"isDisabled int64 2", domain.AttrIsDisabled, int64(2), false},
		{"isDisabled 0.5", domain.AttrIsDisabled, 0.5, false},
		{"isDisabled yes", domain.AttrIsDisabled, "yes", false},
		{"passwordHash anything", domain.AttrPasswordHash, "$2a$10$whatever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.attribute, tt.value)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.attribute, verr.Attribute)
			}
			assert.Equal(t, err == nil, IsValid(tt.attribute, tt.value))
		})
	}
}

func TestValidate_UnknownAttribute(t *testing.T) {
	err := Validate("nickname", "bob")

	var uerr *domain.UnknownAttributeError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "nickname", uerr.Attribute)
	assert.False(t, IsValid("nickname", "bob"))
}

func TestValidate_UsesClock(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	assert.NoError(t, Validate(domain.AttrCreatedAt, fixed))
	assert.Error(t, Validate(domain.AttrCreatedAt, fixed.Add(time.Nanosecond)))
}

func TestNormalize(t *testing.T) {
	v, err := Normalize(domain.AttrPrivilege, float64(3))
	require.NoError(t, err)
	assert.Equal(t, domain.PrivilegeAdministrator, v)

	v, err = Normalize(domain.AttrIsDisabled, "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = Normalize(domain.AttrIsDisabled, 0)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}
