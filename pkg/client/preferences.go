package client

import (
	"context"
	"net/http"
)

// Preferences are the per-copayer settings stored server side.
type Preferences struct {
	Email    string `json:"email,omitempty"`
	Language string `json:"language,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// GetPreferences fetches this copayer's preferences.
func (c *Client) GetPreferences(ctx context.Context) (*Preferences, error) {
	preferences := &Preferences{}
	if err := c.do(
		ctx, http.MethodGet, "/v1/preferences/", nil, preferences,
	); err != nil {
		return nil, err
	}
	return preferences, nil
}

// SavePreferences stores this copayer's preferences.
func (c *Client) SavePreferences(
	ctx context.Context, preferences Preferences,
) error {
	return c.do(ctx, http.MethodPut, "/v1/preferences/", preferences, nil)
}
