package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/intelliailabs/agency-api/middleware"
	"github.com/stretchr/testify/require"
)

const (
	// TestIssuer is the issuer test tokens are signed for
	TestIssuer = "https://test.auth0.com/"
	// TestAudience is the API audience test tokens are signed for
	TestAudience = "https://api.intelliailabs.test"
)

var signingSecret = []byte("integration-signing-secret")

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string, issuer string, scopes []string) {
	claims := MockValidatedClaims(userID, issuer, scopes)
	c.Set("user_id", userID)
	c.Set("validated_claims", claims)
}

// NewTestValidator returns an HS256 validator that accepts tokens from SignToken
func NewTestValidator(t *testing.T) *validator.Validator {
	t.Helper()
	v, err := validator.New(
		func(ctx context.Context) (interface{}, error) { return signingSecret, nil },
		validator.HS256,
		TestIssuer,
		[]string{TestAudience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &middleware.CustomClaims{}
		}),
	)
	require.NoError(t, err)
	return v
}

// AuthMiddlewares returns the real token middlewares wired to NewTestValidator
func AuthMiddlewares(t *testing.T) (required, optional gin.HandlerFunc) {
	t.Helper()
	v := NewTestValidator(t)
	return middleware.RequireToken(v.ValidateToken), middleware.AllowToken(v.ValidateToken)
}

// SignToken issues an access token for subject that NewTestValidator accepts
func SignToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	return SignTokenWithScopes(t, subject, ttl, "openid", "profile", "email")
}

// SignTokenWithScopes is SignToken with an explicit scope claim
func SignTokenWithScopes(t *testing.T, subject string, ttl time.Duration, scopes ...string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   TestIssuer,
		"sub":   subject,
		"aud":   []string{TestAudience},
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"scope": strings.Join(scopes, " "),
	})
	signed, err := token.SignedString(signingSecret)
	require.NoError(t, err)
	return signed
}
