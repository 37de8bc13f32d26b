package handler

import (
	"net/http"

	"github.com/blankstorm/accounts/backend/internal/access"
)

type ctxKey string

const (
	CredentialCtxKey ctxKey = "credential"
)

func credentialFrom(r *http.Request) access.Credential {
	cred, _ := r.Context().Value(CredentialCtxKey).(access.Credential)
	return cred
}
