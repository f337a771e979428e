package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores binary blobs (product images, payment proofs) and
// returns a public https URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, folder, filename string) (string, error)
	Delete(ctx context.Context, publicID string) error
}

type cloudinaryUploader struct {
	cld        *cloudinary.Cloudinary
	baseFolder string
}

func NewCloudinaryUploader(url, baseFolder string) (Uploader, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &cloudinaryUploader{cld: cld, baseFolder: baseFolder}, nil
}

func (u *cloudinaryUploader) Upload(ctx context.Context, data []byte, folder, filename string) (string, error) {
	folder = strings.Trim(u.baseFolder+"/"+folder, "/")
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	publicID := fmt.Sprintf("%s_%d", base, time.Now().UnixNano())

	truthy := true
	result, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UniqueFilename: &truthy,
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload to cloudinary: %w", err)
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	// Older accounts can return http-only URLs.
	return strings.Replace(result.URL, "http://", "https://", 1), nil
}

func (u *cloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	_, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("delete from cloudinary: %w", err)
	}
	return nil
}
