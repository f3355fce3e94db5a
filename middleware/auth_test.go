package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCustomClaims_HasScope(t *testing.T) {
	tests := []struct {
		name          string
		scope         string
		expectedScope string
		want          bool
	}{
		{
			name:          "has exact scope",
			scope:         "read:consultations",
			expectedScope: "read:consultations",
			want:          true,
		},
		{
			name:          "has scope in multiple scopes",
			scope:         "read:consultations write:consultations delete:consultations",
			expectedScope: "write:consultations",
			want:          true,
		},
		{
			name:          "does not have scope",
			scope:         "read:consultations",
			expectedScope: "write:consultations",
			want:          false,
		},
		{
			name:          "empty scope",
			scope:         "",
			expectedScope: "read:consultations",
			want:          false,
		},
		{
			name:          "partial match should not work",
			scope:         "read:consultations",
			expectedScope: "read",
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := CustomClaims{Scope: tt.scope}
			got := claims.HasScope(tt.expectedScope)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantID    string
		wantErr   bool
	}{
		{
			name: "successfully extracts user ID",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", "auth0|123456")
			},
			wantID:  "auth0|123456",
			wantErr: false,
		},
		{
			name: "user ID not found in context",
			setupFunc: func(c *gin.Context) {
				// Don't set user_id
			},
			wantID:  "",
			wantErr: true,
		},
		{
			name: "user ID is not a string",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", 12345) // Set as int instead of string
			},
			wantID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			gotID, err := GetUserID(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, gotID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, gotID)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantErr   bool
	}{
		{
			name: "successfully extracts claims",
			setupFunc: func(c *gin.Context) {
				claims := &validator.ValidatedClaims{
					RegisteredClaims: validator.RegisteredClaims{
						Issuer:  "https://test.auth0.com/",
						Subject: "auth0|123456",
					},
					CustomClaims: &CustomClaims{
						Scope: "read:consultations",
					},
				}
				c.Set("validated_claims", claims)
			},
			wantErr: false,
		},
		{
			name: "claims not found in context",
			setupFunc: func(c *gin.Context) {
				// Don't set validated_claims
			},
			wantErr: true,
		},
		{
			name: "claims are not the expected type",
			setupFunc: func(c *gin.Context) {
				c.Set("validated_claims", "invalid")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			claims, err := GetClaims(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requiredScope  string
		setupFunc      func(*gin.Context)
		wantStatusCode int
		wantAborted    bool
	}{
		{
			name:          "has required scope",
			requiredScope: "read:consultations",
			setupFunc: func(c *gin.Context) {
				claims := &validator.ValidatedClaims{
					CustomClaims: &CustomClaims{
						Scope: "read:consultations write:consultations",
					},
				}
				c.Set("validated_claims", claims)
			},
			wantStatusCode: 0, // Should not write status, continues to next handler
			wantAborted:    false,
		},
		{
			name:          "missing required scope",
			requiredScope: "delete:consultations",
			setupFunc: func(c *gin.Context) {
				claims := &validator.ValidatedClaims{
					CustomClaims: &CustomClaims{
						Scope: "read:consultations write:consultations",
					},
				}
				c.Set("validated_claims", claims)
			},
			wantStatusCode: http.StatusForbidden,
			wantAborted:    true,
		},
		{
			name:          "claims not in context",
			requiredScope: "read:consultations",
			setupFunc: func(c *gin.Context) {
				// Don't set validated_claims
			},
			wantStatusCode: http.StatusUnauthorized,
			wantAborted:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			tt.setupFunc(c)

			handler := RequireScope(tt.requiredScope)
			handler(c)

			if tt.wantAborted {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.wantStatusCode, w.Code)
			} else {
				assert.False(t, c.IsAborted())
			}
		})
	}
}

func TestAuthError(t *testing.T) {
	err := &AuthError{
		Code:    "TEST_ERROR",
		Message: "This is a test error",
	}

	assert.Equal(t, "This is a test error", err.Error())
}

const (
	testIssuer   = "https://test.auth0.com/"
	testAudience = "https://api.intelliailabs.test"
)

var testSecret = []byte("test-signing-secret")

func newTestValidator(t *testing.T) *validator.Validator {
	t.Helper()
	v, err := validator.New(
		func(ctx context.Context) (interface{}, error) { return testSecret, nil },
		validator.HS256,
		testIssuer,
		[]string{testAudience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &CustomClaims{} }),
	)
	require.NoError(t, err)
	return v
}

func signTestToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   []string{testAudience},
		"sub":   subject,
		"iat":   time.Now().Add(-time.Minute).Unix(),
		"exp":   expiresAt.Unix(),
		"scope": "read:consultations",
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code     string `json:"code"`
		Message  string `json:"message"`
		Redirect string `json:"redirect"`
	} `json:"error"`
}

func TestWriteJSONError_EscapesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONError(w, http.StatusUnauthorized, "INVALID_TOKEN", `token "abc" is <bad>\n`, SignInPath)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code     string `json:"code"`
			Message  string `json:"message"`
			Redirect string `json:"redirect"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "Response body: %s", w.Body.String())
	assert.False(t, body.Success)
	assert.Equal(t, "INVALID_TOKEN", body.Error.Code)
	assert.Equal(t, `token "abc" is <bad>\n`, body.Error.Message)
	assert.Equal(t, "/auth", body.Error.Redirect)
}

func TestRequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := newTestValidator(t)

	tests := []struct {
		name         string
		header       string
		wantStatus   int
		wantCode     string
		wantSubject  string
		wantRedirect string
	}{
		{
			name:        "valid token",
			header:      "Bearer " + signTestToken(t, "auth0|user1", time.Now().Add(time.Hour)),
			wantStatus:  http.StatusOK,
			wantSubject: "auth0|user1",
		},
		{
			name:         "missing token",
			wantStatus:   http.StatusUnauthorized,
			wantCode:     "UNAUTHENTICATED",
			wantRedirect: "/auth",
		},
		{
			name:         "expired token",
			header:       "Bearer " + signTestToken(t, "auth0|user1", time.Now().Add(-time.Hour)),
			wantStatus:   http.StatusUnauthorized,
			wantCode:     "INVALID_TOKEN",
			wantRedirect: "/auth",
		},
		{
			name:         "garbage token",
			header:       "Bearer not-a-jwt",
			wantStatus:   http.StatusUnauthorized,
			wantCode:     "INVALID_TOKEN",
			wantRedirect: "/auth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerRan := false
			router := gin.New()
			router.GET("/protected", RequireToken(v.ValidateToken), func(c *gin.Context) {
				handlerRan = true
				userID, err := GetUserID(c)
				require.NoError(t, err)
				token, err := GetAccessToken(c)
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				c.JSON(http.StatusOK, gin.H{"user_id": userID})
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, handlerRan)
				assert.Contains(t, w.Body.String(), tt.wantSubject)
				return
			}

			assert.False(t, handlerRan, "handler must not run after a rejected token")
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantRedirect, body.Error.Redirect)
		})
	}
}

func TestAllowToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := newTestValidator(t)

	tests := []struct {
		name        string
		header      string
		wantSubject string
	}{
		{"anonymous", "", ""},
		{"valid token", "Bearer " + signTestToken(t, "auth0|user1", time.Now().Add(time.Hour)), "auth0|user1"},
		{"invalid token is ignored", "Bearer not-a-jwt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/public", AllowToken(v.ValidateToken), func(c *gin.Context) {
				userID, _ := GetUserID(c)
				c.JSON(http.StatusCreated, gin.H{"user_id": userID})
			})

			req := httptest.NewRequest(http.MethodPost, "/public", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusCreated, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantSubject, body["user_id"])
		})
	}
}

func TestGetAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := GetAccessToken(c)
	assert.Error(t, err)

	c.Set("access_token", "abc")
	token, err := GetAccessToken(c)
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func setupRoleDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserRole{}))
	require.NoError(t, db.Create(&models.UserRole{UserID: "auth0|admin", Role: models.RoleAdmin}).Error)
	return db
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	original := config.GetDB()
	defer config.SetDB(original)

	brokenDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	tests := []struct {
		name         string
		db           *gorm.DB
		userID       string
		wantStatus   int
		wantCode     string
		wantRedirect string
	}{
		{"admin passes", setupRoleDB(t), "auth0|admin", http.StatusOK, "", ""},
		{"non-admin is forbidden", setupRoleDB(t), "auth0|customer", http.StatusForbidden, "FORBIDDEN", "/"},
		{"no user is unauthenticated", setupRoleDB(t), "", http.StatusUnauthorized, "UNAUTHENTICATED", "/auth"},
		{"lookup failure", brokenDB, "auth0|admin", http.StatusInternalServerError, "ROLE_CHECK_FAILED", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.SetDB(tt.db)

			router := gin.New()
			router.GET("/admin",
				func(c *gin.Context) {
					if tt.userID != "" {
						c.Set("user_id", tt.userID)
					}
					c.Next()
				},
				RequireRole(models.RoleAdmin),
				func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) },
			)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				return
			}
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantRedirect, body.Error.Redirect)
		})
	}
}

func TestRequireRole_RevokedRoleTakesEffectImmediately(t *testing.T) {
	gin.SetMode(gin.TestMode)
	original := config.GetDB()
	defer config.SetDB(original)

	db := setupRoleDB(t)
	config.SetDB(db)

	router := gin.New()
	router.GET("/admin",
		func(c *gin.Context) { c.Set("user_id", "auth0|admin"); c.Next() },
		RequireRole(models.RoleAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Where("user_id = ?", "auth0|admin").Delete(&models.UserRole{}).Error)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
