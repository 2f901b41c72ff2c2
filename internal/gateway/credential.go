package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialSource issues the bearer token attached to each request. It is
// asked once per call and the result is never cached.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed credential, e.g. from the environment.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// TokenEndpoint fetches {"token": "..."} from the identity provider.
type TokenEndpoint struct {
	URL    string
	Client *http.Client
}

func (e *TokenEndpoint) Token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("fetching token: status %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding token: %w", err)
	}
	return body.Token, nil
}

// TokenInfo is what the client can read from a JWT without verifying it.
type TokenInfo struct {
	Subject string
	Issuer  string
	Expires time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp claim is in the past.
func (i *TokenInfo) Expired(now time.Time) bool {
	return !i.Expires.IsZero() && now.After(i.Expires)
}

// InspectToken decodes the registered claims of a JWT. The signature is not
// checked; the server does that.
func InspectToken(token string) (*TokenInfo, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	info := &TokenInfo{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		info.Expires = claims.ExpiresAt.Time
	}
	return info, nil
}
