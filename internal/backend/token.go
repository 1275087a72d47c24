// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// parseBearerToken extracts token from a value like "Bearer <token>" case-insensitively.
// Returns the token string without the "Bearer " prefix, or empty string if invalid format.
func parseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 {
		return ""
	}
	if strings.EqualFold(v[0:6], "bearer") && (v[6] == ' ' || v[6] == '\t') {
		return strings.TrimSpace(v[6:])
	}
	return ""
}

// findBearerTokenInHeaders looks for a Bearer token in the Authorization header.
// Returns the token string without the "Bearer " prefix, or empty string if not found.
func findBearerTokenInHeaders(h http.Header) string {
	for _, v := range h.Values("Authorization") {
		if t := parseBearerToken(v); t != "" {
			return t
		}
	}
	return ""
}

// tokenFromBody extracts token and expiry from a login/refresh payload.
// It accepts the controller's "token"/"expire" and the common
// "access_token"/"expires_at" spellings.
func tokenFromBody(raw map[string]any) Token {
	var t Token
	for _, k := range []string{"token", "access_token", "accessToken"} {
		if v, ok := raw[k].(string); ok && strings.TrimSpace(v) != "" {
			t.Value = strings.TrimSpace(v)
			break
		}
	}
	for _, k := range []string{"expire", "expires_at", "expiresAt"} {
		if v, ok := raw[k].(string); ok {
			if exp, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
				t.Expire = exp
				break
			}
		}
	}
	return t
}

// parseUnverified decodes JWT claims without checking the signature.
// The CLI never trusts these claims for authorization; the controller does.
func parseUnverified(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ExpiryFromJWT returns the "exp" claim of token, or zero time when the
// token is not a JWT or carries no expiry.
func ExpiryFromJWT(token string) time.Time {
	claims, ok := parseUnverified(token)
	if !ok {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// SubjectFromJWT returns the identity carried by token: the "id" claim set
// by the controller, falling back to "sub". Empty when absent.
func SubjectFromJWT(token string) string {
	claims, ok := parseUnverified(token)
	if !ok {
		return ""
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}
