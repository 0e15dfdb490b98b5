package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/disintegration/imaging"
	"github.com/kendall-kelly/tee-store-api/utils"
	"go.uber.org/zap"
)

const (
	// maxImageDimension bounds the longest side of stored catalog images
	maxImageDimension = 1600
	jpegQuality       = 82
)

// UploadedImage is a stored image and the URL it is served from
type UploadedImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ImageService validates, downscales and stores product and reference images
type ImageService interface {
	// UploadImage stores the image under prefix in bucket
	UploadImage(ctx context.Context, bucket, prefix string, fileHeader *multipart.FileHeader) (UploadedImage, error)

	// DeleteImage removes a stored image
	DeleteImage(ctx context.Context, bucket, key string) error
}

// StorageImageService implements ImageService on top of a StorageService
type StorageImageService struct {
	storage StorageService
	log     *zap.Logger
}

// NewImageService creates an image service writing to storage
func NewImageService(storage StorageService, log *zap.Logger) *StorageImageService {
	return &StorageImageService{storage: storage, log: log}
}

// UploadImage validates and uploads an image, downscaling it first when it
// is larger than maxImageDimension.
func (s *StorageImageService) UploadImage(ctx context.Context, bucket, prefix string, fileHeader *multipart.FileHeader) (UploadedImage, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return UploadedImage{}, err
	}

	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		return UploadedImage{}, err
	}

	content = s.optimize(content, utils.Ext(fileHeader.Filename))

	key := fmt.Sprintf("%s/%d_%s", prefix, time.Now().UnixMilli(), utils.SafeFilename(fileHeader.Filename))
	key, err = s.storage.Upload(ctx, bucket, key, content, utils.ContentType(fileHeader.Filename), false)
	if err != nil {
		return UploadedImage{}, fmt.Errorf("failed to upload image: %w", err)
	}

	return UploadedImage{Key: key, URL: s.storage.PublicURL(bucket, key)}, nil
}

// optimize resizes oversized JPEG and PNG images. Anything it cannot decode
// is stored unchanged.
func (s *StorageImageService) optimize(content []byte, ext string) []byte {
	var format imaging.Format
	switch ext {
	case ".jpg", ".jpeg":
		format = imaging.JPEG
	case ".png":
		format = imaging.PNG
	default:
		return content
	}

	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		s.log.Warn("image could not be decoded, storing original", zap.Error(err))
		return content
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxImageDimension && bounds.Dy() <= maxImageDimension {
		return content
	}

	// A zero dimension keeps the aspect ratio
	if bounds.Dx() >= bounds.Dy() {
		img = imaging.Resize(img, maxImageDimension, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, maxImageDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		s.log.Warn("image could not be re-encoded, storing original", zap.Error(err))
		return content
	}

	s.log.Debug("image downscaled",
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Int("bytes_before", len(content)),
		zap.Int("bytes_after", buf.Len()),
	)
	return buf.Bytes()
}

// DeleteImage deletes an image from storage
func (s *StorageImageService) DeleteImage(ctx context.Context, bucket, key string) error {
	if key == "" {
		return nil
	}
	if err := s.storage.Remove(ctx, bucket, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// uploadError turns an upload validation failure into a service error
func uploadError(err error) error {
	var fe *utils.FileUploadError
	if errors.As(err, &fe) {
		return ValidationError(fe.Code, fe.Message)
	}
	return StoreError(err)
}
