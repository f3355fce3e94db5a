package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNotifier(t *testing.T) *services.MockNotifier {
	t.Helper()
	mock := services.NewMockNotifier()
	original := services.GetNotifier()
	mock.SetAsMockForTesting()
	t.Cleanup(func() { services.SetNotifier(original) })
	return mock
}

func TestCreateConsultation(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Create with required fields only",
			body: map[string]string{
				"name":    "Jane Doe",
				"email":   "jane@example.com",
				"message": "We want an AI assistant for support",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Create with phone and company",
			body: map[string]string{
				"name":    "Jane Doe",
				"email":   "jane@example.com",
				"phone":   "+1 555 0100",
				"company": "Acme",
				"message": "Automation project",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Fail with missing name",
			body:           map[string]string{"email": "jane@example.com", "message": "Hi"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with missing email",
			body:           map[string]string{"name": "Jane", "message": "Hi"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with malformed email",
			body:           map[string]string{"name": "Jane", "email": "not-an-email", "message": "Hi"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with missing message",
			body:           map[string]string{"name": "Jane", "email": "jane@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with whitespace-only message",
			body:           map[string]string{"name": "Jane", "email": "jane@example.com", "message": "   "},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with invalid JSON",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			notifier := setupNotifier(t)

			router := setupTestRouter()
			router.POST("/consultations", CreateConsultation)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/consultations", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			response := decodeResponse(t, w)

			var count int64
			db.Model(&models.Consultation{}).Count(&count)

			if tt.expectedStatus == http.StatusCreated {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "pending", data["status"])
				assert.Nil(t, data["user_id"])
				assert.Nil(t, data["scheduled_at"])
				assert.NotEmpty(t, data["id"])
				assert.Equal(t, int64(1), count)
				assert.Len(t, notifier.Notified(), 1)
			} else {
				assert.False(t, response["success"].(bool))
				assert.Equal(t, tt.expectedCode, errorCode(response))
				assert.Zero(t, count, "rejected submissions must not write")
				assert.Empty(t, notifier.Notified())
			}
		})
	}
}

func TestCreateConsultation_BlankOptionalFieldsStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	setupNotifier(t)

	router := setupTestRouter()
	router.POST("/consultations", CreateConsultation)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/consultations", map[string]string{
		"name": "Jane", "email": "jane@example.com", "message": "Hello", "phone": " ", "company": "",
	}))
	require.Equal(t, http.StatusCreated, w.Code)

	var stored models.Consultation
	require.NoError(t, db.First(&stored).Error)
	assert.Nil(t, stored.Phone)
	assert.Nil(t, stored.Company)
}

func TestCreateConsultation_SignedInUserIsLinked(t *testing.T) {
	db := setupTestDB(t)
	setupNotifier(t)

	router := setupTestRouter()
	router.POST("/consultations", mockAuthMiddleware("auth0|jane", "token-jane"), CreateConsultation)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/consultations", map[string]string{
		"name": "Jane", "email": "jane@example.com", "message": "Hello",
	}))
	require.Equal(t, http.StatusCreated, w.Code)

	var stored models.Consultation
	require.NoError(t, db.First(&stored).Error)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, "auth0|jane", *stored.UserID)
}

func TestCreateConsultation_NotifierFailureStillSucceeds(t *testing.T) {
	db := setupTestDB(t)
	notifier := setupNotifier(t)
	notifier.Err = errors.New("resend: service unavailable")

	router := setupTestRouter()
	router.POST("/consultations", CreateConsultation)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/consultations", map[string]string{
		"name": "Jane", "email": "jane@example.com", "message": "Hello",
	}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w)["success"].(bool))

	var count int64
	db.Model(&models.Consultation{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Len(t, notifier.Notified(), 1, "notification is attempted exactly once")
}

func TestCreateConsultation_NoNotifierConfigured(t *testing.T) {
	setupTestDB(t)
	original := services.GetNotifier()
	services.SetNotifier(nil)
	defer services.SetNotifier(original)

	router := setupTestRouter()
	router.POST("/consultations", CreateConsultation)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/consultations", map[string]string{
		"name": "Jane", "email": "jane@example.com", "message": "Hello",
	}))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListMyConsultations(t *testing.T) {
	db := setupTestDB(t)

	jane := "auth0|jane"
	other := "auth0|other"
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Consultation{UserID: &jane, Name: "Jane", Email: "jane@example.com", Message: "older", CreatedAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Consultation{UserID: &jane, Name: "Jane", Email: "jane@example.com", Message: "newer", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&models.Consultation{UserID: &other, Name: "Other", Email: "o@example.com", Message: "not mine", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&models.Consultation{Name: "Anon", Email: "a@example.com", Message: "anonymous", CreatedAt: now}).Error)

	router := setupTestRouter()
	router.GET("/consultations/mine", mockAuthMiddleware(jane, "token-jane"), ListMyConsultations)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/consultations/mine", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "newer", data[0].(map[string]interface{})["message"])
	assert.Equal(t, "older", data[1].(map[string]interface{})["message"])
}

func TestListMyConsultations_Unauthenticated(t *testing.T) {
	setupTestDB(t)

	router := setupTestRouter()
	router.GET("/consultations/mine", ListMyConsultations)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/consultations/mine", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(decodeResponse(t, w)))
}
