// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ListUnits calls GET /units with Authorization header.
// The controller wraps the list in { "code", "message", "data" }.
func (h *HTTP) ListUnits(ctx context.Context, accessToken string) ([]Unit, error) {
	var units []Unit
	if err := h.call(ctx, "list-units", http.MethodGet, h.endpoints.Units, accessToken, nil, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// GetUnit calls GET /units/:unit_id with Authorization header.
func (h *HTTP) GetUnit(ctx context.Context, accessToken, unitID string) (Unit, error) {
	unitID, err := requireID("unit", unitID)
	if err != nil {
		return Unit{}, err
	}
	var u Unit
	if err := h.call(ctx, "get-unit", http.MethodGet, join(h.endpoints.Units, unitID), accessToken, nil, &u); err != nil {
		return Unit{}, err
	}
	return u, nil
}

// AddUnit calls POST /units with { "unit_id" }.
func (h *HTTP) AddUnit(ctx context.Context, accessToken, unitID string) (UnitJoin, error) {
	unitID, err := requireID("unit", unitID)
	if err != nil {
		return UnitJoin{}, err
	}
	var j UnitJoin
	body := map[string]string{"unit_id": unitID}
	if err := h.call(ctx, "add-unit", http.MethodPost, h.endpoints.Units, accessToken, body, &j); err != nil {
		return UnitJoin{}, err
	}
	return j, nil
}

// RemoveUnit calls DELETE /units/:unit_id.
func (h *HTTP) RemoveUnit(ctx context.Context, accessToken, unitID string) error {
	unitID, err := requireID("unit", unitID)
	if err != nil {
		return err
	}
	return h.call(ctx, "remove-unit", http.MethodDelete, join(h.endpoints.Units, unitID), accessToken, nil, nil)
}

// UnitToken calls GET /units/:unit_id/token. The data carries the same
// { "token", "expire" } pair as a login.
func (h *HTTP) UnitToken(ctx context.Context, accessToken, unitID string) (Token, error) {
	unitID, err := requireID("unit", unitID)
	if err != nil {
		return Token{}, err
	}
	var raw map[string]any
	if err := h.call(ctx, "unit-token", http.MethodGet, join(h.endpoints.Units, unitID, "token"), accessToken, nil, &raw); err != nil {
		return Token{}, err
	}
	tok := tokenFromBody(raw)
	if tok.Value == "" {
		return Token{}, errors.New("unit-token: no token in response")
	}
	if tok.Expire.IsZero() {
		tok.Expire = ExpiryFromJWT(tok.Value)
	}
	return tok, nil
}

func requireID(kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}
	return id, nil
}

// call performs an authenticated request and decodes the envelope's data
// into out when out is non-nil. Any 2xx status is success.
func (h *HTTP) call(ctx context.Context, op, method, path, accessToken string, body, out any) error {
	req, err := h.newRequest(ctx, method, path, body, accessToken)
	if err != nil {
		return err
	}
	resp, err := h.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", op, err)
	}
	return nil
}

