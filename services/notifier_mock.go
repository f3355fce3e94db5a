package services

import (
	"context"
	"sync"

	"github.com/intelliailabs/agency-api/models"
)

// MockNotifier records notifications instead of sending them
type MockNotifier struct {
	mu       sync.Mutex
	notified []models.Consultation

	// Err, when set, is returned by every NotifyConsultation call
	Err error
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SetAsMockForTesting sets this mock as the global notifier
func (m *MockNotifier) SetAsMockForTesting() {
	SetNotifier(m)
}

func (m *MockNotifier) NotifyConsultation(ctx context.Context, consultation *models.Consultation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if consultation != nil {
		m.notified = append(m.notified, *consultation)
	}
	return m.Err
}

// Notified returns every consultation passed to NotifyConsultation
func (m *MockNotifier) Notified() []models.Consultation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Consultation(nil), m.notified...)
}
