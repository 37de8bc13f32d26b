package domain

import (
	"time"
)

// 账户属性在请求和校验规则中使用的名称
const (
	AttrID            = "id"
	AttrUsername      = "username"
	AttrEmail         = "email"
	AttrPasswordHash  = "passwordHash"
	AttrPrivilege     = "privilege"
	AttrCreatedAt     = "createdAt"
	AttrLastChangedAt = "lastChangedAt"
	AttrIsDisabled    = "isDisabled"
	AttrToken         = "token"
	AttrSession       = "session"
)

var AccountAttributes = []string{
	AttrID,
	AttrUsername,
	AttrEmail,
	AttrPasswordHash,
	AttrPrivilege,
	AttrCreatedAt,
	AttrLastChangedAt,
	AttrIsDisabled,
	AttrToken,
	AttrSession,
}

type Account struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	Privilege     PrivilegeLevel
	CreatedAt     time.Time
	LastChangedAt time.Time
	IsDisabled    bool
	Token         string
	Session       string
}

func (a *Account) LoggedIn() bool {
	return a.Token != ""
}

// AccountView 是经过脱敏后可以返回给调用方的账户信息，永远不包含密码哈希
type AccountView struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	Email         *string        `json:"email,omitempty"`
	Privilege     PrivilegeLevel `json:"privilege"`
	CreatedAt     time.Time      `json:"createdAt"`
	LastChangedAt time.Time      `json:"lastChangedAt"`
	IsDisabled    bool           `json:"isDisabled"`
	Token         *string        `json:"token,omitempty"`
	Session       *string        `json:"session,omitempty"`
}
