package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误码
const (
	ErrCodeValidation            = "account.validation"
	ErrCodeUnknownAttribute      = "account.unknown_attribute"
	ErrCodeUnauthenticated       = "account.unauthenticated"
	ErrCodeInsufficientPrivilege = "account.insufficient_privilege"
	ErrCodeInvalidTier           = "account.invalid_tier"
	ErrCodeNotFound              = "account.not_found"
	ErrCodeExists                = "account.exists"
)

var httpStatusMap = map[string]int{
	ErrCodeValidation:            http.StatusBadRequest,
	ErrCodeUnknownAttribute:      http.StatusBadRequest,
	ErrCodeUnauthenticated:       http.StatusUnauthorized,
	ErrCodeInsufficientPrivilege: http.StatusForbidden,
	ErrCodeInvalidTier:           http.StatusInternalServerError, // 说明内部策略配置有误，不是客户端的问题
	ErrCodeNotFound:              http.StatusNotFound,
	ErrCodeExists:                http.StatusConflict,
}

// CodedError 由所有带错误码的账户错误实现
type CodedError interface {
	error
	Code() string
}

type ValidationError struct {
	Attribute string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Attribute, e.Reason)
}

func (e *ValidationError) Code() string { return ErrCodeValidation }

type UnknownAttributeError struct {
	Attribute string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("%q is not an account attribute", e.Attribute)
}

func (e *UnknownAttributeError) Code() string { return ErrCodeUnknownAttribute }

type unauthenticatedError struct{}

func (unauthenticatedError) Error() string { return "not authenticated" }

func (unauthenticatedError) Code() string { return ErrCodeUnauthenticated }

// 凭证缺失、格式错误、无法解析到账户，或者登录时账户已被禁用
var ErrUnauthenticated error = unauthenticatedError{}

type InsufficientPrivilegeError struct {
	Required PrivilegeLevel
	Actual   PrivilegeLevel
}

func (e *InsufficientPrivilegeError) Error() string {
	return fmt.Sprintf("insufficient privilege: requires %s (%d), have %s (%d)",
		e.Required, int(e.Required), e.Actual, int(e.Actual))
}

func (e *InsufficientPrivilegeError) Code() string { return ErrCodeInsufficientPrivilege }

type InvalidTierError struct {
	Tier string
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("invalid access tier %q", e.Tier)
}

func (e *InvalidTierError) Code() string { return ErrCodeInvalidTier }

type notFoundError struct{}

func (notFoundError) Error() string { return "account does not exist" }

func (notFoundError) Code() string { return ErrCodeNotFound }

var ErrAccountNotFound error = notFoundError{}

// AccountExistsError 表示唯一属性冲突
type AccountExistsError struct {
	Attribute string
}

func (e *AccountExistsError) Error() string {
	return fmt.Sprintf("account with %s already exists", e.Attribute)
}

func (e *AccountExistsError) Code() string { return ErrCodeExists }

// ErrorCode 提取错误码，非账户错误返回空字符串
func ErrorCode(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// HTTPStatus 把错误映射到 HTTP 状态码，未知错误一律视为服务器内部错误
func HTTPStatus(err error) int {
	if status, ok := httpStatusMap[ErrorCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError 对应 4xx
func IsClientError(err error) bool {
	status := HTTPStatus(err)
	return status >= 400 && status < 500
}
