package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PrivilegeLevel 是账户的权限等级，只按数值比较
type PrivilegeLevel int

const (
	PrivilegeAccount       PrivilegeLevel = 0
	PrivilegeModerator     PrivilegeLevel = 1
	PrivilegeDeveloper     PrivilegeLevel = 2
	PrivilegeAdministrator PrivilegeLevel = 3
	PrivilegeOwner         PrivilegeLevel = 4

	// 别名，与对应等级是同一个值
	PrivilegeMod   = PrivilegeModerator
	PrivilegeDev   = PrivilegeDeveloper
	PrivilegeAdmin = PrivilegeAdministrator
)

const (
	MinPrivilege = PrivilegeAccount
	MaxPrivilege = PrivilegeOwner
)

var privilegeRoles = []string{"User", "Moderator", "Developer", "Administrator", "Owner"}

// 边界上接受的名称，别名映射到同一个等级
var privilegeNames = map[string]PrivilegeLevel{
	"ACCOUNT":       PrivilegeAccount,
	"USER":          PrivilegeAccount,
	"MODERATOR":     PrivilegeModerator,
	"MOD":           PrivilegeMod,
	"DEVELOPER":     PrivilegeDeveloper,
	"DEV":           PrivilegeDev,
	"ADMINISTRATOR": PrivilegeAdministrator,
	"ADMIN":         PrivilegeAdmin,
	"OWNER":         PrivilegeOwner,
}

func (p PrivilegeLevel) Valid() bool {
	return p >= MinPrivilege && p <= MaxPrivilege
}

func (p PrivilegeLevel) AtLeast(required PrivilegeLevel) bool {
	return p >= required
}

// 角色名称，例如 "Administrator"
func (p PrivilegeLevel) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Unknown (%d)", int(p))
	}
	return privilegeRoles[p]
}

// 简写的角色名称
func (p PrivilegeLevel) Short() string {
	switch p {
	case PrivilegeModerator:
		return "Mod"
	case PrivilegeDeveloper:
		return "Dev"
	case PrivilegeAdministrator:
		return "Admin"
	}
	if !p.Valid() {
		return "Unknown"
	}
	return privilegeRoles[p]
}

// 接受规范名称、别名（MOD、DEV、ADMIN）或者数值
func ParsePrivilegeLevel(s string) (PrivilegeLevel, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := PrivilegeLevel(n)
		if !p.Valid() {
			return 0, fmt.Errorf("privilege level %d out of range", n)
		}
		return p, nil
	}
	p, ok := privilegeNames[strings.ToUpper(s)]
	if !ok {
		return 0, fmt.Errorf("unknown privilege level %q", s)
	}
	return p, nil
}

// UnmarshalJSON 同时接受数字和名称
func (p *PrivilegeLevel) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		level := PrivilegeLevel(n)
		if !level.Valid() {
			return fmt.Errorf("privilege level %d out of range", n)
		}
		*p = level
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("privilege level must be a number or a name")
	}
	parsed, err := ParsePrivilegeLevel(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
