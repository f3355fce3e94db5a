package services

import (
	"context"
	"net/http"
	"sync"
)

// MockIdentityProvider is an in-memory IdentityProvider for testing
type MockIdentityProvider struct {
	mu sync.Mutex

	// UserInfos maps an access token to the user it belongs to
	UserInfos map[string]*Auth0UserInfo
	// Passwords maps an email to its current password
	Passwords map[string]string
	// PasswordUpdates records the last password set for each user ID
	PasswordUpdates map[string]string
	// ResetRequests records every email looked up for a password reset
	ResetRequests []string
	SignUps         []SignUpRequest

	// Err, when set, is returned by every call
	Err error
	// Calls counts every method invocation except AuthorizeURL
	Calls int
}

// NewMockIdentityProvider creates a new mock identity provider
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		UserInfos:       make(map[string]*Auth0UserInfo),
		Passwords:       make(map[string]string),
		PasswordUpdates: make(map[string]string),
	}
}

// SetAsMockForTesting sets this mock as the global identity provider
func (m *MockIdentityProvider) SetAsMockForTesting() {
	SetIdentityProvider(m)
}

// AddUser registers a user reachable through accessToken
func (m *MockIdentityProvider) AddUser(accessToken string, info *Auth0UserInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserInfos[accessToken] = info
}

func (m *MockIdentityProvider) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}
	info, ok := m.UserInfos[accessToken]
	if !ok {
		return nil, &IdentityError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	}
	return info, nil
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}
	if _, exists := m.Passwords[req.Email]; exists {
		return nil, &IdentityError{Status: http.StatusBadRequest, Message: "The user already exists."}
	}
	m.Passwords[req.Email] = req.Password
	m.SignUps = append(m.SignUps, req)
	return &SignUpResult{ID: "mock|" + req.Email, Email: req.Email}, nil
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*TokenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}
	if stored, ok := m.Passwords[email]; !ok || stored != password {
		return nil, &IdentityError{Status: http.StatusForbidden, Message: "Wrong email or password."}
	}
	return &TokenSet{AccessToken: "mock-token-" + email, TokenType: "Bearer", ExpiresIn: 86400}, nil
}

func (m *MockIdentityProvider) FindUserByEmail(ctx context.Context, email string) (*Auth0UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return nil, m.Err
	}
	m.ResetRequests = append(m.ResetRequests, email)

	for _, info := range m.UserInfos {
		if info.Email == email {
			return info, nil
		}
	}
	if _, ok := m.Passwords[email]; ok {
		return &Auth0UserInfo{Sub: "mock|" + email, Email: email}, nil
	}
	return nil, nil
}

func (m *MockIdentityProvider) UpdatePassword(ctx context.Context, userID, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return m.Err
	}
	m.PasswordUpdates[userID] = password
	return nil
}

func (m *MockIdentityProvider) AuthorizeURL(provider, redirectURI string) (string, error) {
	return buildAuthorizeURL("https://test.auth0.com", "test-client", "", provider, redirectURI)
}

// CallCount returns how many provider calls were made
func (m *MockIdentityProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
