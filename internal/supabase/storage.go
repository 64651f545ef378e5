package supabase

import (
	"bytes"
	"fmt"

	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadRepairPhoto stores a phase photo under
// projects/{project_id}/repairs/{repair_id}/{filename} and returns the
// storage path and public URL.
func (s *StorageClient) UploadRepairPhoto(projectID, repairID int64, filename string, data []byte, contentType string) (string, string, error) {
	storagePath := fmt.Sprintf("projects/%d/repairs/%d/%s", projectID, repairID, filename)

	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

// CreateSignedUploadURL hands out a one-shot URL a client can PUT a photo
// to without going through this server.
func (s *StorageClient) CreateSignedUploadURL(storagePath string) (string, error) {
	resp, err := s.client.CreateSignedUploadUrl(s.bucket, storagePath)
	if err != nil {
		return "", fmt.Errorf("failed to create signed upload url: %w", err)
	}
	return resp.Url, nil
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

// DeleteRepairPhotos removes everything stored for one repair.
func (s *StorageClient) DeleteRepairPhotos(projectID, repairID int64) error {
	prefix := fmt.Sprintf("projects/%d/repairs/%d/", projectID, repairID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}

	if len(files) > 0 {
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Name
		}
		if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
			return fmt.Errorf("failed to delete photos: %w", err)
		}
	}

	return nil
}
