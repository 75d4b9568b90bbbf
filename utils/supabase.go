package utils

import (
	"bytes"
	"fmt"

	storage "github.com/supabase-community/storage-go"

	"github.com/fifthdraft/fifthdraft-backend/config"
)

// StorageGateway moves audio blobs in and out of the Supabase bucket.
// Credentials come from the injected config, not the environment.
type StorageGateway struct {
	cfg config.AppConfig
}

func NewStorageGateway(cfg config.AppConfig) *StorageGateway {
	return &StorageGateway{cfg: cfg}
}

func (s *StorageGateway) client() *storage.Client {
	return storage.NewClient(s.cfg.SupabaseURL+"/storage/v1", s.cfg.SupabaseKey, nil)
}

// Download fetches the audio object at path from the recordings bucket.
func (s *StorageGateway) Download(path string) ([]byte, error) {
	data, err := s.client().DownloadFile(s.cfg.StorageBucket, path)
	if err != nil {
		return nil, fmt.Errorf("storage download %s: %w", path, err)
	}
	return data, nil
}

// Upload stores audio bytes under the given object path and returns the path.
func (s *StorageGateway) Upload(path string, data []byte, contentType string) (string, error) {
	options := storage.FileOptions{
		ContentType: &contentType,
	}
	if _, err := s.client().UploadFile(s.cfg.StorageBucket, path, bytes.NewReader(data), options); err != nil {
		return "", fmt.Errorf("storage upload %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes the object. Callers treat failures as best effort.
func (s *StorageGateway) Remove(path string) error {
	if path == "" {
		return nil
	}
	if _, err := s.client().RemoveFile(s.cfg.StorageBucket, []string{path}); err != nil {
		return fmt.Errorf("storage remove %s: %w", path, err)
	}
	return nil
}
