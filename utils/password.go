package utils

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

// MinPasswordLength is enforced when a signed-in user changes their password
const MinPasswordLength = 6

// PasswordStrength scores a password from 0 to 5, one point each for:
// length of at least 8, a lowercase letter, an uppercase letter, a digit, and a symbol.
// The score is advisory and is never used to reject a password.
func PasswordStrength(password string) int {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	score := 0
	for _, ok := range []bool{len([]rune(password)) >= 8, lower, upper, digit, symbol} {
		if ok {
			score++
		}
	}
	return score
}

// PasswordStrengthLabel maps a score to the label shown next to the meter
func PasswordStrengthLabel(score int) string {
	switch {
	case score <= 2:
		return "weak"
	case score == 3:
		return "medium"
	default:
		return "strong"
	}
}

var (
	ErrNotRecoveryLink   = errors.New("link is not a password recovery link")
	ErrMissingRecovery   = errors.New("recovery link is missing its access token")
	ErrRecoveryExpired   = errors.New("recovery link has expired")
	ErrMalformedRecovery = errors.New("recovery link is invalid")
)

// ParseRecoveryFragment extracts the access token from a password-recovery
// redirect fragment such as "#access_token=...&type=recovery".
func ParseRecoveryFragment(fragment string) (string, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(fragment), "#"))
	if err != nil {
		return "", ErrNotRecoveryLink
	}
	if values.Get("type") != "recovery" {
		return "", ErrNotRecoveryLink
	}

	token := values.Get("access_token")
	if token == "" {
		return "", ErrMissingRecovery
	}
	return token, nil
}

// RecoveryLinkTTL is how long an emailed recovery link stays usable
const RecoveryLinkTTL = time.Hour

const recoveryTokenUse = "recovery"

// RecoveryClaims are carried by the access token in a recovery link
type RecoveryClaims struct {
	Email string `json:"email"`
	Use   string `json:"use"`
	jwt.RegisteredClaims
}

// IssueRecoveryToken signs a recovery token for userID that expires after RecoveryLinkTTL
func IssueRecoveryToken(secret []byte, userID, email string, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("recovery signing secret is not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RecoveryClaims{
		Email: email,
		Use:   recoveryTokenUse,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RecoveryLinkTTL)),
		},
	})
	return token.SignedString(secret)
}

// VerifyRecoveryToken checks the signature, expiry and purpose of a recovery token.
// Expired links return ErrRecoveryExpired; everything else wrong returns ErrMalformedRecovery.
func VerifyRecoveryToken(secret []byte, token string, now time.Time) (*RecoveryClaims, error) {
	if len(secret) == 0 {
		return nil, ErrMalformedRecovery
	}

	claims := &RecoveryClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRecoveryExpired
		}
		return nil, ErrMalformedRecovery
	}
	if claims.Use != recoveryTokenUse || claims.Subject == "" {
		return nil, ErrMalformedRecovery
	}
	return claims, nil
}
