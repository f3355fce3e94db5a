package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/routes"
	"github.com/intelliailabs/agency-api/services"
	"github.com/intelliailabs/agency-api/tests/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// serverSuite runs the full application behind a real HTTP listener
type serverSuite struct {
	suite.Suite
	server   *httptest.Server
	db       *gorm.DB
	cfg      *config.Config
	notifier *services.MockNotifier
	mailer   *services.MockMailer
	identity *services.MockIdentityProvider
	s3       *services.MockS3Service
}

// SetupSuite runs once before all tests
func (s *serverSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())
}

// SetupTest starts a fresh server over a fresh database for each test
func (s *serverSuite) SetupTest() {
	t := s.T()

	s.cfg = testutil.TestConfig()
	s.cfg.StaticDir = t.TempDir()
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
	router := routes.New(s.cfg, routes.Options{
		RequireAuth:      required,
		OptionalAuth:     optional,
		FunctionNotifier: services.NewMailNotifier(s.mailer, s.cfg.MailFrom, s.cfg.AdminEmail),
	})
	s.server = httptest.NewServer(router)
	t.Cleanup(s.server.Close)
}

// call sends a request to the running server the way a browser client would
func (s *serverSuite) call(method, path, token string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return s.send(req)
}

func (s *serverSuite) send(req *http.Request) (*http.Response, []byte) {
	client := &http.Client{
		// Keep redirects visible to the test
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, content
}

// envelope is the JSON shape every API response uses
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code     string `json:"code"`
		Message  string `json:"message"`
		Redirect string `json:"redirect"`
	} `json:"error"`
}

func (s *serverSuite) parse(content []byte) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(content, &env), "Response body: %s", content)
	return env
}

func (s *serverSuite) parseData(content []byte, out interface{}) {
	env := s.parse(content)
	s.Require().NoError(json.Unmarshal(env.Data, out), "Response body: %s", content)
}
