package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueToken(t *testing.T, validity time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestJWTAuthenticator_LoginAndCache(t *testing.T) {
	ctx := context.Background()
	issued := issueToken(t, time.Hour)

	logins := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		logins++
		w.Header().Set("Authorization", "Bearer "+issued)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewJWTAuthenticator(srv.Client(), srv.URL, "user", "secret")

	first, err := a.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, issued, first)

	second, err := a.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, issued, second)
	assert.Equal(t, 1, logins, "cached token must be reused")
}

func TestJWTAuthenticator_RefreshesExpiringToken(t *testing.T) {
	ctx := context.Background()

	logins := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++
		// expires within the refresh margin, so every call re-authenticates
		w.Header().Set("Authorization", "Bearer "+issueToken(t, 10*time.Second))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewJWTAuthenticator(srv.Client(), srv.URL, "user", "secret")

	_, err := a.Token(ctx)
	require.NoError(t, err)
	_, err = a.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, logins)
}

func TestJWTAuthenticator_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewJWTAuthenticator(srv.Client(), srv.URL, "user", "wrong")
	_, err := a.Token(context.Background())
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestJWTAuthenticator_MissingAuthorizationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewJWTAuthenticator(srv.Client(), srv.URL, "user", "secret")
	_, err := a.Token(context.Background())
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestTokenExpiry_UnreadableTokenFallsBack(t *testing.T) {
	until := tokenExpiry("not-a-jwt")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), until, time.Minute)
}
