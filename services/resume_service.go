package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/intelliailabs/agency-api/utils"
)

// StoredResume describes an uploaded resume
type StoredResume struct {
	Key string
	URL string
}

// ResumeService handles resume uploads for job applications
type ResumeService interface {
	// UploadResume validates and stores a resume, returning its key and public URL
	UploadResume(ctx context.Context, fileHeader *multipart.FileHeader) (*StoredResume, error)

	// DeleteResume removes a resume from storage
	DeleteResume(ctx context.Context, key string) error
}

// S3ResumeService implements ResumeService using S3 for storage
type S3ResumeService struct {
	s3Service S3Interface
	now       func() time.Time
}

var resumeServiceInstance ResumeService

// InitResumeService initializes the resume service with an S3 backend
func InitResumeService(s3Service S3Interface) ResumeService {
	resumeServiceInstance = NewS3ResumeService(s3Service)
	return resumeServiceInstance
}

// NewS3ResumeService creates a resume service backed by s3Service
func NewS3ResumeService(s3Service S3Interface) *S3ResumeService {
	return &S3ResumeService{s3Service: s3Service, now: time.Now}
}

// GetResumeService returns the initialized resume service instance
func GetResumeService() ResumeService {
	return resumeServiceInstance
}

// SetResumeService sets the resume service instance (primarily for testing)
func SetResumeService(service ResumeService) {
	resumeServiceInstance = service
}

// UploadResume validates the file and uploads it under a timestamp-prefixed key
func (s *S3ResumeService) UploadResume(ctx context.Context, fileHeader *multipart.FileHeader) (*StoredResume, error) {
	if err := utils.ValidateResumeFile(fileHeader); err != nil {
		return nil, err
	}

	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		return nil, err
	}

	key := utils.ResumeKey(fileHeader.Filename, s.now())
	if err := s.s3Service.UploadFile(ctx, key, content, utils.ResumeContentType); err != nil {
		return nil, fmt.Errorf("failed to upload resume: %w", err)
	}

	return &StoredResume{Key: key, URL: s.s3Service.GetPublicURL(key)}, nil
}

// DeleteResume deletes a resume from S3
func (s *S3ResumeService) DeleteResume(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}

	return nil
}
