package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/intelliailabs/agency-api/config"
)

// Auth0UserInfo represents the user information returned from Auth0's /userinfo endpoint
type Auth0UserInfo struct {
	Sub        string `json:"sub"` // Auth0 user ID
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// SignUpRequest is a new email/password account
type SignUpRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SignUpResult is the account Auth0 created
type SignUpResult struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// TokenSet is returned by a successful sign-in
type TokenSet struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token,omitempty"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// IdentityError carries the identity provider's status and raw message
type IdentityError struct {
	Status  int
	Message string
}

func (e *IdentityError) Error() string {
	return e.Message
}

// ErrUnsupportedProvider is returned for OAuth providers other than google and github
var ErrUnsupportedProvider = errors.New("unsupported OAuth provider")

var oauthConnections = map[string]string{
	"google": "google-oauth2",
	"github": "github",
}

// OAuthConnection maps a provider name to its Auth0 connection
func OAuthConnection(provider string) (string, bool) {
	connection, ok := oauthConnections[provider]
	return connection, ok
}

// IdentityProvider is everything the API needs from the hosted identity service
type IdentityProvider interface {
	GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error)
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*TokenSet, error)
	FindUserByEmail(ctx context.Context, email string) (*Auth0UserInfo, error)
	UpdatePassword(ctx context.Context, userID, password string) error
	AuthorizeURL(provider, redirectURI string) (string, error)
}

var identityProviderInstance IdentityProvider

// GetIdentityProvider returns the initialized identity provider
func GetIdentityProvider() IdentityProvider {
	return identityProviderInstance
}

// SetIdentityProvider sets the identity provider (primarily for testing)
func SetIdentityProvider(provider IdentityProvider) {
	identityProviderInstance = provider
}

// Auth0Service handles interactions with Auth0 API
type Auth0Service struct {
	baseURL      string
	audience     string
	clientID     string
	clientSecret string
	connection   string
	httpClient   *http.Client
}

// NewAuth0Service creates a new Auth0 service instance
func NewAuth0Service(cfg *config.Config) *Auth0Service {
	return &Auth0Service{
		baseURL:      cfg.Auth0BaseURL(),
		audience:     cfg.Auth0Audience,
		clientID:     cfg.Auth0ClientID,
		clientSecret: cfg.Auth0ClientSecret,
		connection:   cfg.Auth0Connection,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetUserInfo fetches user information from Auth0's /userinfo endpoint
// accessToken is the JWT access token from the Authorization header
func (s *Auth0Service) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	var userInfo Auth0UserInfo
	if err := s.do(ctx, http.MethodGet, "/userinfo", accessToken, nil, &userInfo); err != nil {
		return nil, err
	}
	return &userInfo, nil
}

// SignUp creates a database-connection user with the names in user_metadata
func (s *Auth0Service) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	body := map[string]interface{}{
		"client_id":  s.clientID,
		"email":      req.Email,
		"password":   req.Password,
		"connection": s.connection,
		"user_metadata": map[string]string{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
		},
	}

	var result SignUpResult
	if err := s.do(ctx, http.MethodPost, "/dbconnections/signup", "", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignIn exchanges email and password for tokens using the password-realm grant
func (s *Auth0Service) SignIn(ctx context.Context, email, password string) (*TokenSet, error) {
	body := map[string]string{
		"grant_type":    "http://auth0.com/oauth/grant-type/password-realm",
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
		"username":      email,
		"password":      password,
		"realm":         s.connection,
		"audience":      s.audience,
		"scope":         "openid profile email",
	}

	var tokens TokenSet
	if err := s.do(ctx, http.MethodPost, "/oauth/token", "", body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// FindUserByEmail looks up the database-connection user for email through the
// Management API. It returns nil with no error when there is no such user.
func (s *Auth0Service) FindUserByEmail(ctx context.Context, email string) (*Auth0UserInfo, error) {
	token, err := s.managementToken(ctx)
	if err != nil {
		return nil, err
	}

	var users []struct {
		UserID     string `json:"user_id"`
		Email      string `json:"email"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Identities []struct {
			Connection string `json:"connection"`
		} `json:"identities"`
	}
	path := "/api/v2/users-by-email?" + url.Values{"email": {email}}.Encode()
	if err := s.do(ctx, http.MethodGet, path, token, nil, &users); err != nil {
		return nil, err
	}

	for _, u := range users {
		for _, identity := range u.Identities {
			if identity.Connection == s.connection {
				return &Auth0UserInfo{
					Sub:        u.UserID,
					Email:      u.Email,
					Name:       u.Name,
					GivenName:  u.GivenName,
					FamilyName: u.FamilyName,
				}, nil
			}
		}
	}
	return nil, nil
}

// UpdatePassword sets a new password through the Management API
func (s *Auth0Service) UpdatePassword(ctx context.Context, userID, password string) error {
	token, err := s.managementToken(ctx)
	if err != nil {
		return err
	}

	body := map[string]string{
		"password":   password,
		"connection": s.connection,
	}
	return s.do(ctx, http.MethodPatch, "/api/v2/users/"+url.PathEscape(userID), token, body, nil)
}

// AuthorizeURL builds the /authorize redirect for a social provider
func (s *Auth0Service) AuthorizeURL(provider, redirectURI string) (string, error) {
	return buildAuthorizeURL(s.baseURL, s.clientID, s.audience, provider, redirectURI)
}

func buildAuthorizeURL(baseURL, clientID, audience, provider, redirectURI string) (string, error) {
	connection, ok := OAuthConnection(provider)
	if !ok {
		return "", ErrUnsupportedProvider
	}

	query := url.Values{}
	query.Set("response_type", "token")
	query.Set("client_id", clientID)
	query.Set("connection", connection)
	query.Set("redirect_uri", redirectURI)
	query.Set("scope", "openid profile email")
	if audience != "" {
		query.Set("audience", audience)
	}
	return baseURL + "/authorize?" + query.Encode(), nil
}

func (s *Auth0Service) managementToken(ctx context.Context) (string, error) {
	body := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
		"audience":      s.baseURL + "/api/v2/",
	}

	var tokens TokenSet
	if err := s.do(ctx, http.MethodPost, "/oauth/token", "", body, &tokens); err != nil {
		return "", fmt.Errorf("failed to get management token: %w", err)
	}
	return tokens.AccessToken, nil
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
// Non-2xx responses become an *IdentityError carrying Auth0's message.
func (s *Auth0Service) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &IdentityError{Status: resp.StatusCode, Message: auth0ErrorMessage(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// auth0ErrorMessage picks the human-readable message out of Auth0's several error shapes
func auth0ErrorMessage(body []byte) string {
	var payload struct {
		Description      string `json:"description"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		if len(body) > 0 {
			return string(body)
		}
		return "identity provider request failed"
	}

	for _, msg := range []string{payload.Description, payload.ErrorDescription, payload.Message, payload.Error} {
		if msg != "" {
			return msg
		}
	}
	return "identity provider request failed"
}
