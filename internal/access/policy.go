package access

import "github.com/blankstorm/accounts/backend/internal/domain"

type Operation string

const (
	OpCreate       Operation = "create"
	OpLogin        Operation = "login"
	OpReadSelf     Operation = "read_self"
	OpRead         Operation = "read"
	OpList         Operation = "list"
	OpListAll      Operation = "list_all"
	OpLogout       Operation = "logout"
	OpIssueSession Operation = "issue_session"
	OpDelete       Operation = "delete"
	OpUpdate       Operation = "update"
	OpExport       Operation = "export"
)

// 读取 PROTECTED/PRIVATE 级别的他人信息时要求的最低等级
const ElevatedReadLevel = domain.PrivilegeModerator

type Rule struct {
	Required    domain.PrivilegeLevel
	AllowIfSame bool
	// 匿名操作不需要解析调用方
	Anonymous bool
}

// 固定的权限表，运行时不可修改
var policy = map[Operation]Rule{
	OpCreate:       {Anonymous: true},
	OpLogin:        {Anonymous: true},
	OpReadSelf:     {Required: domain.PrivilegeAccount, AllowIfSame: true},
	OpRead:         {Required: domain.PrivilegeAccount, AllowIfSame: true},
	OpList:         {Required: domain.PrivilegeModerator},
	OpListAll:      {Required: domain.PrivilegeModerator},
	OpLogout:       {Required: domain.PrivilegeModerator, AllowIfSame: true},
	OpIssueSession: {Required: domain.PrivilegeModerator, AllowIfSame: true},
	OpDelete:       {Required: domain.PrivilegeModerator, AllowIfSame: true},
	OpExport:       {Required: domain.PrivilegeAdministrator},
}

var updatePolicy = map[string]Rule{
	domain.AttrUsername:   {Required: domain.PrivilegeDeveloper, AllowIfSame: true},
	domain.AttrEmail:      {Required: domain.PrivilegeDeveloper, AllowIfSame: true},
	domain.AttrIsDisabled: {Required: domain.PrivilegeModerator},
	domain.AttrPrivilege:  {Required: domain.PrivilegeAdministrator},
}

var defaultUpdateRule = Rule{Required: domain.PrivilegeModerator}

// RuleFor 返回操作对应的规则，OpUpdate 请使用 UpdateRule
func RuleFor(op Operation) (Rule, bool) {
	rule, ok := policy[op]
	return rule, ok
}

func UpdateRule(attribute string) Rule {
	if rule, ok := updatePolicy[attribute]; ok {
		return rule
	}
	return defaultUpdateRule
}
