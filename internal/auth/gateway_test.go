package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4knamy/online-chat-backend/internal/repository"
)

func newTestGateway(t *testing.T) (Gateway, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	hash, err := HashPassword("ivalice")
	require.NoError(t, err)
	require.NoError(t, store.EnsureUser(context.Background(), "Basch", hash))

	return NewGateway(store, "test-secret", time.Hour), store
}

func TestAuthenticateIssuesValidToken(t *testing.T) {
	gateway, _ := newTestGateway(t)

	user, token, err := gateway.Authenticate(context.Background(), "Basch", "ivalice")
	require.NoError(t, err)
	assert.Equal(t, "Basch", user.Username)
	require.NotEmpty(t, token)

	username, err := gateway.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "Basch", username)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	gateway, _ := newTestGateway(t)

	_, _, err := gateway.Authenticate(context.Background(), "Basch", "rabanastre")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	gateway, _ := newTestGateway(t)

	_, _, err := gateway.Authenticate(context.Background(), "Vayne", "ivalice")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	gateway, _ := newTestGateway(t)

	_, err := gateway.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	gateway, store := newTestGateway(t)

	other := NewGateway(store, "other-secret", time.Hour)
	_, token, err := other.Authenticate(context.Background(), "Basch", "ivalice")
	require.NoError(t, err)

	_, err = gateway.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	store := repository.NewMemoryStore()
	hash, err := HashPassword("ivalice")
	require.NoError(t, err)
	require.NoError(t, store.EnsureUser(context.Background(), "Basch", hash))

	gateway := NewGateway(store, "test-secret", -time.Minute)
	_, token, err := gateway.Authenticate(context.Background(), "Basch", "ivalice")
	require.NoError(t, err)

	_, err = gateway.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBindAndUnbind(t *testing.T) {
	gateway, _ := newTestGateway(t)

	user, err := gateway.Bind(context.Background(), "conn-1", "Basch")
	require.NoError(t, err)
	assert.Equal(t, "Basch", user.Username)

	assert.Equal(t, "Basch", gateway.Unbind(context.Background(), "conn-1"))
	assert.Equal(t, "", gateway.Unbind(context.Background(), "conn-1"))
}

func TestBindUnknownUser(t *testing.T) {
	gateway, _ := newTestGateway(t)

	_, err := gateway.Bind(context.Background(), "conn-1", "Vayne")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	assert.Equal(t, "", gateway.Unbind(context.Background(), "conn-1"))
}
