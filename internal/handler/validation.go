package handler

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/blankstorm/accounts/backend/internal/access"
	"github.com/blankstorm/accounts/backend/internal/domain"
)

// account_email 与账户属性使用同一条邮箱规则，避免入口比存储更严格
func registerAccountValidations(validate *validator.Validate, trans ut.Translator) error {
	if err := validate.RegisterValidation("account_email", func(fl validator.FieldLevel) bool {
		return access.IsValid(domain.AttrEmail, fl.Field().String())
	}); err != nil {
		return err
	}

	return validate.RegisterTranslation("account_email", trans,
		func(ut ut.Translator) error {
			return ut.Add("account_email", "{0}必须是一个有效的邮箱", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("account_email", fe.Field())
			return t
		},
	)
}
