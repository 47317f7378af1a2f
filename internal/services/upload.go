// ===============================
// internal/services/upload.go - Thumbnail Upload Service
// ===============================

package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"seoulflix/internal/id"
	"seoulflix/internal/storage"
)

// MaxThumbnailSizeBytes caps uploaded thumbnail images.
const MaxThumbnailSizeBytes = 5 * 1024 * 1024 // 5MB

var thumbnailExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// UploadService stores drama thumbnails in R2 and hands back public URLs
// suitable for the drama thumbnail field.
type UploadService struct {
	r2Client *storage.R2Client
}

func NewUploadService(r2Client *storage.R2Client) *UploadService {
	return &UploadService{r2Client: r2Client}
}

// UploadThumbnail validates and stores one thumbnail image, returning its
// public URL.
func (s *UploadService) UploadThumbnail(ctx context.Context, file multipart.File, filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := thumbnailExtensions[ext]
	if !ok {
		return "", NewValidationError("thumbnail image (.jpg, .jpeg, .png, .webp)")
	}
	if size > MaxThumbnailSizeBytes {
		return "", NewValidationError(fmt.Sprintf("thumbnail under %dMB", MaxThumbnailSizeBytes/(1024*1024)))
	}

	key := fmt.Sprintf("thumbnails/%d_%s%s", time.Now().Unix(), id.New(), ext)
	if err := s.r2Client.UploadFile(ctx, key, file, contentType); err != nil {
		return "", storageErr("upload thumbnail", err)
	}
	return s.r2Client.GetPublicURL(key), nil
}
