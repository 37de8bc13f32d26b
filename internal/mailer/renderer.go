package mailer

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[string]string{
	domain.MailWelcome:         "账户通知 - 欢迎加入",
	domain.MailAccountDisabled: "账户通知 - 账户已禁用",
	domain.MailAccountEnabled:  "账户通知 - 账户已启用",
	domain.MailEmailChanged:    "账户通知 - 邮箱已修改",
	domain.MailAccountDeleted:  "账户通知 - 账户已删除",
}

// Renderer 根据邮件类型生成邮件，模板在创建时全部解析
type Renderer struct {
	from      string
	templates map[string]*template.Template
}

func NewRenderer(from string) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(subjects))
	for mailType := range subjects {
		name := mailType + ".html"
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/"+name, "templates/base.html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[mailType] = tmpl
	}
	return &Renderer{from: from, templates: templates}, nil
}

// UnsupportedTypeError 表示消息类型没有对应的模板，这类消息重试也不会成功
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported mail type %q", e.Type)
}

func (r *Renderer) Render(m domain.MailMessage) (*mail.Msg, error) {
	tmpl, ok := r.templates[m.Type]
	if !ok {
		return nil, &UnsupportedTypeError{Type: m.Type}
	}

	msg := mail.NewMsg()
	if err := msg.From(r.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subjects[m.Type])
	if err := msg.SetBodyHTMLTemplate(tmpl, m.Data); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	return msg, nil
}
