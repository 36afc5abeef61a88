package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrLoginFailed = errors.New("collector login failed")

// Authenticator supplies a bearer token on demand.
type Authenticator interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is an Authenticator returning a fixed token. Useful for tests
// and for hosts that manage credentials themselves.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// tokenRefreshMargin is how long before the exp claim a cached token is
// considered stale.
const tokenRefreshMargin = 30 * time.Second

// JWTAuthenticator logs into the collector's login endpoint and caches the
// issued JWT until shortly before its expiry. Safe for concurrent use by
// parallel uploads.
type JWTAuthenticator struct {
	client   *http.Client
	loginURL string
	username string
	password string

	mu         sync.Mutex
	token      string
	validUntil time.Time
}

func NewJWTAuthenticator(client *http.Client, collectorURL, username, password string) *JWTAuthenticator {
	return &JWTAuthenticator{
		client:   client,
		loginURL: strings.TrimRight(collectorURL, "/") + "/login",
		username: username,
		password: password,
	}
}

func (a *JWTAuthenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.validUntil.Add(-tokenRefreshMargin)) {
		return a.token, nil
	}

	body, err := json.Marshal(map[string]string{"username": a.username, "password": a.password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.loginURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http status %d", ErrLoginFailed, resp.StatusCode)
	}

	token := strings.TrimPrefix(resp.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return "", fmt.Errorf("%w: no authorization header in response", ErrLoginFailed)
	}

	a.token = token
	a.validUntil = tokenExpiry(token)
	return a.token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client only needs it to schedule re-authentication. Tokens without a
// readable exp are cached for ten minutes.
func tokenExpiry(token string) time.Time {
	fallback := time.Now().Add(10 * time.Minute)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	return exp.Time
}
