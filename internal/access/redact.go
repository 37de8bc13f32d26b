package access

import (
	"github.com/blankstorm/accounts/backend/internal/domain"
)

// Redact 按访问级别投影账户，不修改传入的账户
func Redact(account *domain.Account, tier domain.AccessTier) (*domain.AccountView, error) {
	if !tier.Valid() {
		return nil, &domain.InvalidTierError{Tier: tier.String()}
	}

	view := &domain.AccountView{
		ID:            account.ID,
		Username:      account.Username,
		Privilege:     account.Privilege,
		CreatedAt:     account.CreatedAt,
		LastChangedAt: account.LastChangedAt,
		IsDisabled:    account.IsDisabled,
	}
	if tier.Elevated() {
		email, token, session := account.Email, account.Token, account.Session
		view.Email = &email
		view.Token = &token
		view.Session = &session
	}
	return view, nil
}

func RedactAll(accounts []*domain.Account, tier domain.AccessTier) ([]*domain.AccountView, error) {
	views := make([]*domain.AccountView, 0, len(accounts))
	for _, account := range accounts {
		view, err := Redact(account, tier)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
