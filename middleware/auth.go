package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/services"
	log "github.com/sirupsen/logrus"
)

const (
	// SignInPath is where unauthenticated visitors are sent
	SignInPath = "/auth"
	// HomePath is where signed-in visitors without access are sent
	HomePath = "/"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Scope string `json:"scope"`
}

// Validate does nothing for this example, but we need
// it to satisfy validator.CustomClaims interface.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// HasScope checks whether our claims have a specific scope.
func (c CustomClaims) HasScope(expectedScope string) bool {
	result := strings.Split(c.Scope, " ")
	for i := range result {
		if result[i] == expectedScope {
			return true
		}
	}

	return false
}

// NewValidator builds the Auth0 RS256 validator backed by the tenant's JWKS
func NewValidator(cfg *config.Config) (*validator.Validator, error) {
	issuerURL, err := url.Parse(cfg.Auth0BaseURL() + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	return validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}
	return RequireToken(jwtValidator.ValidateToken)
}

// OptionalToken accepts anonymous requests and attaches the user when a valid token is sent
func OptionalToken(cfg *config.Config) gin.HandlerFunc {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}
	return AllowToken(jwtValidator.ValidateToken)
}

// RequireToken rejects requests without a token accepted by validate
func RequireToken(validate jwtmiddleware.ValidateToken) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).Debug("Encountered error while validating JWT")

		code, message := "INVALID_TOKEN", "Failed to validate JWT."
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code, message = "UNAUTHENTICATED", "Please sign in to access this page."
		}
		writeJSONError(w, http.StatusUnauthorized, code, message, SignInPath)
	}

	middleware := jwtmiddleware.New(
		validate,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			storeClaims(c, r)
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// AllowToken lets anonymous requests through. A bad token is logged and ignored.
func AllowToken(validate jwtmiddleware.ValidateToken) gin.HandlerFunc {
	return func(c *gin.Context) {
		var failed error
		middleware := jwtmiddleware.New(
			validate,
			jwtmiddleware.WithCredentialsOptional(true),
			jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				failed = err
			}),
		)

		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			storeClaims(c, r)
		}
		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		if failed != nil {
			log.WithError(failed).Info("Ignoring invalid token on public route")
		}
		c.Next()
	}
}

func storeClaims(c *gin.Context, r *http.Request) {
	token, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || token == nil {
		return
	}

	c.Set("user_id", token.RegisteredClaims.Subject)
	c.Set("validated_claims", token)

	if accessToken, err := jwtmiddleware.AuthHeaderTokenExtractor(r); err == nil && accessToken != "" {
		c.Set("access_token", accessToken)
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message, redirect string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(gin.H{
		"success": false,
		"error": gin.H{
			"code":     code,
			"message":  message,
			"redirect": redirect,
		},
	})
	if err != nil {
		log.Printf("Failed to write error response: %v", err)
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetAccessToken returns the raw bearer token the request was authenticated with
func GetAccessToken(c *gin.Context) (string, error) {
	token, exists := c.Get("access_token")
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}

	tokenStr, ok := token.(string)
	if !ok || tokenStr == "" {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Access token is not a string"}
	}

	return tokenStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// RequireScope is a middleware that checks if the token has a specific scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_CLAIMS",
					"message": "Could not retrieve token claims",
				},
			})
			c.Abort()
			return
		}

		customClaims, ok := claims.CustomClaims.(*CustomClaims)
		if !ok || !customClaims.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_SCOPE",
					"message": "Insufficient permissions to access this resource",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRole only lets through users holding role in user_roles.
// The lookup runs on every request so a revoked role takes effect immediately.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":     "UNAUTHENTICATED",
					"message":  "Please sign in to access this page.",
					"redirect": SignInPath,
				},
			})
			return
		}

		ok, err := services.NewRoleService(config.GetDB()).HasRole(c.Request.Context(), userID, role)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":     "ROLE_CHECK_FAILED",
					"message":  "Could not verify your permissions. Please try again.",
					"redirect": HomePath,
				},
			})
			return
		}

		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":     "FORBIDDEN",
					"message":  "You don't have permission to access this page.",
					"redirect": HomePath,
				},
			})
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
