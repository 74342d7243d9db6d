package service

import (
	"context"
	"fmt"

	"github.com/ikkim/bizmarket-backend/internal/storage"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
)

// ImageUploader presigns direct-to-storage image uploads.
type ImageUploader interface {
	PresignImageUpload(ctx context.Context, folder, filename, contentType string) (*storage.PresignedUpload, error)
}

type UploadService interface {
	PresignWorkImage(ctx context.Context, actor Actor, businessID uint, filename, contentType string) (*storage.PresignedUpload, error)
}

type uploadService struct {
	businesses BusinessService
	uploader   ImageUploader
}

func NewUploadService(businesses BusinessService, uploader ImageUploader) UploadService {
	return &uploadService{businesses: businesses, uploader: uploader}
}

// PresignWorkImage issues an upload URL scoped to the business's folder for
// its owner or a superuser.
func (s *uploadService) PresignWorkImage(ctx context.Context, actor Actor, businessID uint, filename, contentType string) (*storage.PresignedUpload, error) {
	business, err := s.businesses.ManagedBusiness(actor, businessID)
	if err != nil {
		return nil, err
	}

	upload, err := s.uploader.PresignImageUpload(ctx, fmt.Sprintf("businesses/%d/work", business.ID), filename, contentType)
	if err != nil {
		return nil, err
	}

	logger.Info("Work image upload presigned", map[string]interface{}{
		"business_id": business.ID,
		"key":         upload.Key,
	})
	return upload, nil
}
