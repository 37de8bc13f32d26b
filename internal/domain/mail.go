package domain

// 邮件类型，同时也是模板名
const (
	MailWelcome         = "welcome"
	MailAccountDisabled = "account_disabled"
	MailAccountEnabled  = "account_enabled"
	MailEmailChanged    = "email_changed"
	MailAccountDeleted  = "account_deleted"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Username string `json:"username"`
}

// 禁用、启用、删除账户时使用，Reason 可以为空
type AccountNoticeMailData struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

type EmailChangedMailData struct {
	Username string `json:"username"`
	NewEmail string `json:"newEmail"`
}
