package services

import (
	"fmt"

	"github.com/google/uuid"

	"repairtrack-backend/internal/assethost"
	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/supabase"
)

// PhotoService handles repair-photo uploads. Clients normally upload
// straight to the asset host with parameters signed here; the server-side
// path uploads on their behalf, preferring the asset host and falling back
// to Supabase Storage when no host is configured.
type PhotoService struct {
	assetClient    *assethost.Client
	storageClient  *supabase.StorageClient
	realtimeClient *supabase.RealtimeClient
	assetsEnabled  bool
}

func NewPhotoService(
	assetClient *assethost.Client,
	storageClient *supabase.StorageClient,
	realtimeClient *supabase.RealtimeClient,
	assetsEnabled bool,
) *PhotoService {
	return &PhotoService{
		assetClient:    assetClient,
		storageClient:  storageClient,
		realtimeClient: realtimeClient,
		assetsEnabled:  assetsEnabled,
	}
}

// SignDirectUpload issues signed upload parameters for one photo. An empty
// public id gets a generated one so retried uploads overwrite themselves
// instead of duplicating.
func (s *PhotoService) SignDirectUpload(publicID, folder string) (models.SignedUploadResponse, error) {
	if !s.assetsEnabled {
		return models.SignedUploadResponse{}, fmt.Errorf("asset host is not configured: %w", models.ErrUnavailable)
	}
	if publicID == "" {
		publicID = uuid.New().String()
	}

	signed := s.assetClient.SignUpload(publicID, folder)
	return models.SignedUploadResponse{
		APIKey:    signed.APIKey,
		Signature: signed.Signature,
		Timestamp: signed.Timestamp,
		UploadURL: signed.UploadURL,
		PublicID:  publicID,
	}, nil
}

// UploadRepairPhoto stores one photo for a repair and announces it. Upload
// failures against the asset host are retried with backoff before falling
// through to the error path.
func (s *PhotoService) UploadRepairPhoto(projectID, repairID int64, filename string, data []byte, contentType string) (models.PhotoUploadResponse, error) {
	if s.assetsEnabled {
		publicID := fmt.Sprintf("projects/%d/repairs/%d/%s", projectID, repairID, filename)
		signed := s.assetClient.SignUpload(publicID, "")

		var result *assethost.UploadResult
		err := s.assetClient.RetryWithBackoff(func() error {
			var uploadErr error
			result, uploadErr = s.assetClient.UploadBinary(signed, publicID, "", data)
			return uploadErr
		}, 3)
		if err != nil {
			return models.PhotoUploadResponse{}, fmt.Errorf("failed to upload photo: %w", err)
		}

		s.realtimeClient.PublishProjectEvent(projectID, "photo_uploaded",
			supabase.PhotoUploadedPayload(repairID, result.SecureURL))

		return models.PhotoUploadResponse{
			PublicID:  result.PublicID,
			SecureURL: result.SecureURL,
		}, nil
	}

	storagePath, publicURL, err := s.storageClient.UploadRepairPhoto(projectID, repairID, filename, data, contentType)
	if err != nil {
		return models.PhotoUploadResponse{}, err
	}

	s.realtimeClient.PublishProjectEvent(projectID, "photo_uploaded",
		supabase.PhotoUploadedPayload(repairID, publicURL))

	return models.PhotoUploadResponse{
		PublicID:    storagePath,
		SecureURL:   publicURL,
		StoragePath: storagePath,
	}, nil
}

// DeleteRepairPhotos clears stored photos when a project is removed.
func (s *PhotoService) DeleteRepairPhotos(projectID, repairID int64) error {
	return s.storageClient.DeleteRepairPhotos(projectID, repairID)
}
