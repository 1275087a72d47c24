package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// loginRequest is the body of POST /login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login calls POST /login with the given credentials.
// The controller answers { "code": 200, "expire": "<RFC3339>", "token": "<jwt>" }.
func (h *HTTP) Login(ctx context.Context, username, password string) (Token, error) {
	req, err := h.newRequest(ctx, http.MethodPost, h.endpoints.Login, loginRequest{Username: username, Password: password}, "")
	if err != nil {
		return Token{}, err
	}
	return h.issueToken("login", req)
}

// Refresh calls GET /refresh with the current token and returns a new one.
// The controller only refreshes tokens that are still valid.
func (h *HTTP) Refresh(ctx context.Context, accessToken string) (Token, error) {
	req, err := h.newRequest(ctx, http.MethodGet, h.endpoints.Refresh, nil, accessToken)
	if err != nil {
		return Token{}, err
	}
	return h.issueToken("refresh", req)
}

// issueToken sends a login/refresh request and extracts the token from the
// body, or from an Authorization header when the body has none.
func (h *HTTP) issueToken(op string, req *http.Request) (Token, error) {
	resp, err := h.do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, readError(op, resp)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		raw = nil
	}
	tok := tokenFromBody(raw)
	if tok.Value == "" {
		tok.Value = findBearerTokenInHeaders(resp.Header)
	}
	if tok.Value == "" {
		return Token{}, errors.New("no token in " + op + " response")
	}
	if tok.Expire.IsZero() {
		tok.Expire = ExpiryFromJWT(tok.Value)
	}
	return tok, nil
}

// Logout calls POST /logout with Authorization header.
func (h *HTTP) Logout(ctx context.Context, accessToken string) error {
	req, err := h.newRequest(ctx, http.MethodPost, h.endpoints.Logout, nil, accessToken)
	if err != nil {
		return err
	}
	resp, err := h.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		// Token already invalid; nothing left to revoke.
		return nil
	default:
		return readError("logout", resp)
	}
}
