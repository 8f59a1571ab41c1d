package services

import (
	"testing"
	"time"

	"hostly/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService(config.Config{AuthJWTSecret: "secret", AuthJWTIssuer: "hostly"})
	userID := uuid.New()

	token, err := auth.IssueToken(userID, "Host@Example.com", time.Hour)
	require.NoError(t, err)

	info, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, info.UserID)
	assert.Equal(t, "host@example.com", info.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), info.ExpiresAt, 5*time.Second)
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	auth := NewAuthService(config.Config{AuthJWTSecret: "secret", AuthJWTIssuer: "hostly"})
	userID := uuid.New()

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "hostly",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	badSubject := valid()
	badSubject.Subject = "not-a-uuid"
	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other"), valid())},
		{name: "wrong algorithm", token: sign(jwt.SigningMethodHS512, []byte("secret"), valid())},
		{name: "expired", token: sign(jwt.SigningMethodHS256, []byte("secret"), expired)},
		{name: "wrong issuer", token: sign(jwt.SigningMethodHS256, []byte("secret"), wrongIssuer)},
		{name: "subject not uuid", token: sign(jwt.SigningMethodHS256, []byte("secret"), badSubject)},
		{name: "missing expiry", token: sign(jwt.SigningMethodHS256, []byte("secret"), noExpiry)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := auth.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, info)
		})
	}
}

func TestAuthService_NoSecret(t *testing.T) {
	auth := NewAuthService(config.Config{})

	_, err := auth.IssueToken(uuid.New(), "", time.Hour)
	assert.ErrorIs(t, err, ErrAuthDisabled)

	_, err = auth.ValidateToken("anything")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}
