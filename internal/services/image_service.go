package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// avatarExtensions is the accepted upload set
var avatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageService stores user avatars in Cloudinary
type ImageService struct {
	cld *cloudinary.Cloudinary
}

// NewImageService reads the Cloudinary credentials from the environment.
// The service is optional; callers tolerate a nil service and disable
// avatar uploads.
func NewImageService() (*ImageService, error) {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Cloudinary configuration")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &ImageService{cld: cld}, nil
}

// UploadAvatar pushes an avatar image to Cloudinary and returns its URL.
// The public id is derived from the user so a re-upload replaces the old
// avatar instead of accumulating versions.
func (s *ImageService) UploadAvatar(file multipart.File, filename string, userID string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !avatarExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %s", ext)
	}

	overwrite := true
	result, err := s.cld.Upload.Upload(context.Background(), file, uploader.UploadParams{
		PublicID:       "user_" + userID,
		Folder:         "learnplanning/avatars",
		Overwrite:      &overwrite,
		ResourceType:   "image",
		Transformation: "c_fill,g_face,h_300,w_300/q_auto,f_auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	return result.SecureURL, nil
}

// DeleteAvatar removes a stored avatar
func (s *ImageService) DeleteAvatar(publicID string) error {
	_, err := s.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{PublicID: publicID})
	return err
}

// ValidateImageFile checks the upload against the size cap. The file
// position is rewound so the caller can hand the same reader to the
// uploader afterwards.
func (s *ImageService) ValidateImageFile(file multipart.File, maxSize int64) error {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}

	n, err := io.Copy(io.Discard, io.LimitReader(file, maxSize+1))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if n > maxSize {
		return fmt.Errorf("file too large (max %d bytes)", maxSize)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}
	return nil
}
