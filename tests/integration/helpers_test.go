package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/routes"
	"github.com/intelliailabs/agency-api/services"
	"github.com/intelliailabs/agency-api/tests/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// appSuite wires the real router against an in-memory database and mocked
// outside services. Suites embed it to share setup.
type appSuite struct {
	suite.Suite
	router   *gin.Engine
	db       *gorm.DB
	cfg      *config.Config
	notifier *services.MockNotifier
	mailer   *services.MockMailer
	identity *services.MockIdentityProvider
	s3       *services.MockS3Service
}

// SetupSuite runs once before all tests
func (s *appSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())
}

// SetupTest gives every test a fresh database, fresh mocks and a new router
func (s *appSuite) SetupTest() {
	t := s.T()

	s.cfg = testutil.TestConfig()
	original := config.GetConfig()
	config.SetConfig(s.cfg)
	t.Cleanup(func() { config.SetConfig(original) })

	s.db = testutil.SetupTestDB(t)

	s.notifier = services.NewMockNotifier()
	s.notifier.SetAsMockForTesting()

	s.identity = services.NewMockIdentityProvider()
	s.identity.SetAsMockForTesting()

	s.s3 = services.NewMockS3Service()
	s.s3.SetAsMockForTesting()
	services.InitResumeService(s.s3)

	s.mailer = services.NewMockMailer()
	services.InitRecoveryService(s.cfg, s.mailer)

	required, optional := testutil.AuthMiddlewares(t)
	s.router = routes.New(s.cfg, routes.Options{
		RequireAuth:      required,
		OptionalAuth:     optional,
		FunctionNotifier: services.NewMailNotifier(s.mailer, s.cfg.MailFrom, s.cfg.AdminEmail),
	})
}

// request sends a JSON request through the router, signed with token when set
func (s *appSuite) request(method, target, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *appSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return response
}

func (s *appSuite) errorData(w *httptest.ResponseRecorder) map[string]interface{} {
	errorData, ok := s.decode(w)["error"].(map[string]interface{})
	s.Require().True(ok, "Response has no error object: %s", w.Body.String())
	return errorData
}

func (s *appSuite) dataMap(w *httptest.ResponseRecorder) map[string]interface{} {
	data, ok := s.decode(w)["data"].(map[string]interface{})
	s.Require().True(ok, "Response data is not an object: %s", w.Body.String())
	return data
}

func (s *appSuite) dataList(w *httptest.ResponseRecorder) []interface{} {
	data, ok := s.decode(w)["data"].([]interface{})
	s.Require().True(ok, "Response data is not a list: %s", w.Body.String())
	return data
}

func (s *appSuite) expectStatus(w *httptest.ResponseRecorder, status int) {
	s.Require().Equal(status, w.Code, "Response body: %s", w.Body.String())
}
