package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/middleware"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/services"
	"github.com/intelliailabs/agency-api/utils"
	log "github.com/sirupsen/logrus"
)

// SignUpRequest represents the sign-up form
type SignUpRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SignInRequest represents the sign-in form
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest represents the forgot-password form
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries the recovery link fragment and the new password
type ResetPasswordRequest struct {
	Fragment        string `json:"fragment"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// PasswordStrengthRequest represents the request body for scoring a password
type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

// SignUp handles POST /api/v1/auth/sign-up
func SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindAuthRequest(c, &req) {
		return
	}

	result, err := services.GetIdentityProvider().SignUp(c.Request.Context(), services.SignUpRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":      result.ID,
			"email":   result.Email,
			"message": "Please check your email to verify your account.",
		},
	})
}

// SignIn handles POST /api/v1/auth/sign-in
func SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindAuthRequest(c, &req) {
		return
	}

	tokens, err := services.GetIdentityProvider().SignIn(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"tokens":   tokens,
			"redirect": middleware.HomePath,
		},
	})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password - emails a recovery link
// that opens the sign-in page with "#access_token=...&type=recovery"
func ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindAuthRequest(c, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	user, err := services.GetIdentityProvider().FindUserByEmail(c.Request.Context(), email)
	if err != nil {
		respondIdentityError(c, err)
		return
	}

	// Unknown addresses get the same response as known ones
	if user == nil {
		log.WithField("email", email).Info("Password reset requested for an address with no account")
	} else if err := services.GetRecoveryService().SendRecoveryLink(c.Request.Context(), user); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EMAIL_SEND_FAILED",
				"message": "We couldn't send the reset email. Please try again.",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message":  "Password reset instructions have been sent to your email.",
			"redirect": appURL(middleware.SignInPath),
		},
	})
}

// ResetPassword handles POST /api/v1/auth/reset-password - completes a recovery link.
// Mismatched passwords and dead links are rejected before the identity provider is called.
func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindAuthRequest(c, &req) {
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PASSWORD_MISMATCH",
				"message": "Passwords do not match",
			},
		})
		return
	}

	var claims *utils.RecoveryClaims
	token, err := utils.ParseRecoveryFragment(req.Fragment)
	if err == nil {
		claims, err = services.GetRecoveryService().Verify(token)
	}
	if err != nil {
		code := "INVALID_RECOVERY_LINK"
		if errors.Is(err, utils.ErrRecoveryExpired) {
			code = "RECOVERY_LINK_EXPIRED"
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	if err := services.GetIdentityProvider().UpdatePassword(c.Request.Context(), claims.Subject, req.Password); err != nil {
		respondIdentityError(c, err)
		return
	}

	score := utils.PasswordStrength(req.Password)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message":  "Your password has been reset successfully.",
			"redirect": middleware.HomePath,
			"strength": gin.H{
				"score": score,
				"label": utils.PasswordStrengthLabel(score),
			},
		},
	})
}

// OAuthRedirect handles GET /api/v1/auth/oauth/:provider - sends the browser to Google or GitHub
func OAuthRedirect(c *gin.Context) {
	authorizeURL, err := services.GetIdentityProvider().AuthorizeURL(c.Param("provider"), appURL(middleware.HomePath))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNSUPPORTED_PROVIDER",
				"message": "Sign-in is available with google or github",
			},
		})
		return
	}

	c.Redirect(http.StatusFound, authorizeURL)
}

// ScorePassword handles POST /api/v1/auth/password-strength - advisory meter, never blocks a password
func ScorePassword(c *gin.Context) {
	var req PasswordStrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	score := utils.PasswordStrength(req.Password)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"score": score,
			"label": utils.PasswordStrengthLabel(score),
		},
	})
}

// GetSession handles GET /api/v1/auth/session - the signed-in subject and profile, if any
func GetSession(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":     "UNAUTHENTICATED",
				"message":  "Please sign in to access this page.",
				"redirect": middleware.SignInPath,
			},
		})
		return
	}

	session := gin.H{"user_id": userID, "profile": nil}

	var profile models.Profile
	if err := config.GetDB().Where("auth0_id = ?", userID).First(&profile).Error; err == nil {
		session["profile"] = profile
	}

	ok, err := services.NewRoleService(config.GetDB()).HasRole(c.Request.Context(), userID, models.RoleAdmin)
	if err != nil {
		_ = c.Error(err)
	}
	session["is_admin"] = ok

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
	})
}

func bindAuthRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return false
	}
	return true
}

// respondIdentityError passes the provider's own message through to the caller
func respondIdentityError(c *gin.Context, err error) {
	var idErr *services.IdentityError
	if errors.As(err, &idErr) && idErr.Status >= 400 && idErr.Status < 500 {
		c.JSON(idErr.Status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_ERROR",
				"message": idErr.Message,
			},
		})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusBadGateway, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "AUTH_PROVIDER_ERROR",
			"message": err.Error(),
		},
	})
}

// appURL resolves a site path against APP_BASE_URL
func appURL(path string) string {
	base := "http://localhost:5173"
	if cfg := config.GetConfig(); cfg != nil && cfg.AppBaseURL != "" {
		base = cfg.AppBaseURL
	}
	return base + path
}
