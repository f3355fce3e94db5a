package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/intelliailabs/agency-api/models"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned when role checks run before the database is connected
var ErrNoDatabase = errors.New("database not initialized")

// RoleService reads and writes user_roles
type RoleService struct {
	db *gorm.DB
}

// NewRoleService creates a role service backed by db
func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// HasRole reports whether userID holds role. Every call hits the database.
func (s *RoleService) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if s.db == nil {
		return false, ErrNoDatabase
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return count > 0, nil
}

// Grant assigns role to userID. Granting an existing role is a no-op.
func (s *RoleService) Grant(ctx context.Context, userID, role string) error {
	if s.db == nil {
		return ErrNoDatabase
	}

	userRole := models.UserRole{UserID: userID, Role: role}
	err := s.db.WithContext(ctx).
		Where(models.UserRole{UserID: userID, Role: role}).
		FirstOrCreate(&userRole).Error
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// Revoke removes role from userID
func (s *RoleService) Revoke(ctx context.Context, userID, role string) error {
	if s.db == nil {
		return ErrNoDatabase
	}

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&models.UserRole{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}
