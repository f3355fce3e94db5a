package services

import (
	"context"
	"fmt"
	"sync"
)

// MockMailer is a mock implementation of Mailer for testing
type MockMailer struct {
	mu   sync.Mutex
	sent []Email

	// FailOn maps a recipient address to the error returned when mailing it
	FailOn map[string]error
}

// NewMockMailer creates a new mock mailer
func NewMockMailer() *MockMailer {
	return &MockMailer{FailOn: make(map[string]error)}
}

// Send records the email, or fails if any recipient is listed in FailOn
func (m *MockMailer) Send(ctx context.Context, email Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, to := range email.To {
		if err, ok := m.FailOn[to]; ok {
			return "", err
		}
	}

	m.sent = append(m.sent, email)
	return fmt.Sprintf("mock-%d", len(m.sent)), nil
}

// Sent returns every email delivered so far
func (m *MockMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}
