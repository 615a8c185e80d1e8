package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue("someone@example.com")
	require.NoError(t, err)

	email, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", email)
}

func TestTokenManager_Rejects(t *testing.T) {
	issuedAt := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", 30*time.Minute).WithClock(func() time.Time { return issuedAt })

	token, err := m.Issue("someone@example.com")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", 30*time.Minute).WithClock(func() time.Time { return issuedAt.Add(31 * time.Minute) })
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", 30*time.Minute).WithClock(func() time.Time { return issuedAt })
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		empty, err := m.Issue("")
		require.NoError(t, err)
		_, err = m.Parse(empty)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	m := NewTokenManager("secret", 0)
	assert.Equal(t, DefaultTokenTTL, m.ttl)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter2"))
}

func TestGoogleVerifier(t *testing.T) {
	tests := []struct {
		name          string
		payload       *idtoken.Payload
		err           error
		expectedEmail string
		expectedErr   error
	}{
		{
			name:          "valid token",
			payload:       &idtoken.Payload{Claims: map[string]any{"email": "someone@example.com"}},
			expectedEmail: "someone@example.com",
		},
		{
			name:        "invalid token",
			err:         errors.New("idtoken: invalid token"),
			expectedErr: ErrInvalidToken,
		},
		{
			name:        "no email claim",
			payload:     &idtoken.Payload{Claims: map[string]any{}},
			expectedErr: ErrNoEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewGoogleVerifier("client-id")
			v.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
				assert.Equal(t, "client-id", audience)
				return tt.payload, tt.err
			}

			email, err := v.Verify(context.Background(), "token")
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedEmail, email)
		})
	}
}

func TestGoogleVerifier_NotConfigured(t *testing.T) {
	v := NewGoogleVerifier("")
	v.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		t.Fatal("validate must not run without a client id")
		return nil, nil
	}

	_, err := v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)
}
