package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "s3cret", Issuer: "sma-identity"})

	token, err := svc.Issue("user-1", "admin@sma.sch.id", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "s3cret"})
	token, err := svc.Issue("user-1", "admin@sma.sch.id", models.RoleAdmin, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTokenServiceRejectsWrongSecretAndIssuer(t *testing.T) {
	other := NewTokenService(TokenConfig{Secret: "other", Issuer: "sma-identity"})
	token, err := other.Issue("user-1", "", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService(TokenConfig{Secret: "s3cret", Issuer: "sma-identity"}).ValidateToken(token)
	assert.Error(t, err)

	_, err = NewTokenService(TokenConfig{Secret: "other", Issuer: "elsewhere"}).ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenServiceRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewTokenService(TokenConfig{Secret: "s3cret"}).ValidateToken(signed)
	assert.Error(t, err)
}
