// Package identity talks to the external identity provider. The provider is
// treated as an oracle: it verifies a bearer token and returns the subject's
// identity and profile.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrTokenInvalid is returned when the provider rejects the token.
var ErrTokenInvalid = errors.New("identity token invalid")

// Identity is the verified subject, with the profile fields mirrored into
// the local user record.
type Identity struct {
	ID        string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"image_url"`
}

// FullName joins the profile name parts.
func (i *Identity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
}

// Client verifies tokens against the provider's API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates an identity provider client.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify asks the provider whether the token is valid. A 4xx answer means
// the token is invalid; anything else unexpected is a transport error.
func (c *Client) Verify(ctx context.Context, token string) (*Identity, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tokens/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, ErrTokenInvalid
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var ident Identity
	if err := json.Unmarshal(respBody, &ident); err != nil {
		return nil, fmt.Errorf("invalid identity response: %w", err)
	}
	if ident.ID == "" {
		return nil, fmt.Errorf("identity response missing subject")
	}
	return &ident, nil
}
