package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// passwordChange is the body of PUT /accounts/password.
type passwordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword calls PUT /accounts/password for the token's own account.
func (h *HTTP) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return errors.New("old and new password are required")
	}
	body := passwordChange{OldPassword: oldPassword, NewPassword: newPassword}
	return h.call(ctx, "change-password", http.MethodPut, join(h.endpoints.Accounts, "password"), accessToken, body, nil)
}

// ListAccounts calls GET /accounts.
func (h *HTTP) ListAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var accounts []Account
	if err := h.call(ctx, "list-accounts", http.MethodGet, h.endpoints.Accounts, accessToken, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// AddAccount calls POST /accounts.
func (h *HTTP) AddAccount(ctx context.Context, accessToken string, a NewAccount) error {
	a.Username = strings.TrimSpace(a.Username)
	if a.Username == "" || a.Password == "" {
		return errors.New("username and password are required")
	}
	return h.call(ctx, "add-account", http.MethodPost, h.endpoints.Accounts, accessToken, a, nil)
}

// RemoveAccount calls DELETE /accounts/:account_id.
func (h *HTTP) RemoveAccount(ctx context.Context, accessToken, accountID string) error {
	accountID, err := requireID("account", accountID)
	if err != nil {
		return err
	}
	return h.call(ctx, "remove-account", http.MethodDelete, join(h.endpoints.Accounts, accountID), accessToken, nil, nil)
}
