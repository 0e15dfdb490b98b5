package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kendall-kelly/tee-store-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3(t *testing.T, endpoint, publicBase string) *S3StorageService {
	t.Helper()
	svc, err := NewS3StorageService(context.Background(), &config.Config{
		AWSRegion:            "eu-west-1",
		AWSAccessKeyID:       "test-key",
		AWSSecretAccessKey:   "test-secret",
		AWSS3Endpoint:        endpoint,
		StoragePublicBaseURL: publicBase,
	}, testLogger())
	require.NoError(t, err)
	return svc
}

func TestS3PublicURL(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   string
		publicBase string
		want       string
	}{
		{"aws", "", "", "https://product-images.s3.eu-west-1.amazonaws.com/products/1_tee%20one.png"},
		{"compatible endpoint", "http://localhost:9000/", "", "http://localhost:9000/product-images/products/1_tee%20one.png"},
		{"public base wins", "http://localhost:9000", "https://cdn.example.com/", "https://cdn.example.com/product-images/products/1_tee%20one.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestS3(t, tt.endpoint, tt.publicBase)
			assert.Equal(t, tt.want, svc.PublicURL("product-images", "products/1_tee one.png"))
		})
	}

	assert.Empty(t, newTestS3(t, "", "").PublicURL("product-images", ""))
}

func TestS3SignedURL(t *testing.T) {
	svc := newTestS3(t, "http://localhost:9000", "")

	url, err := svc.SignedURL(context.Background(), "payment-receipts", "auth0|u/order.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/payment-receipts/")
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")

	empty, err := svc.SignedURL(context.Background(), "payment-receipts", "", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMockStorageService(t *testing.T) {
	storage := NewMockStorageService()
	ctx := context.Background()

	_, err := storage.Upload(ctx, "b", "a/1.png", []byte("one"), "image/png", false)
	require.NoError(t, err)
	_, err = storage.Upload(ctx, "b", "a/1.png", []byte("two"), "image/png", false)
	assert.True(t, errors.Is(err, ErrObjectExists))
	_, err = storage.Upload(ctx, "b", "a/1.png", []byte("two"), "image/png", true)
	require.NoError(t, err)
	_, err = storage.Upload(ctx, "b", "c/2.png", []byte("x"), "image/png", false)
	require.NoError(t, err)

	listed, err := storage.List(ctx, "b", "a/")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "a/1.png", listed[0].Key)
	assert.Equal(t, int64(3), listed[0].Size)

	_, err = storage.SignedURL(ctx, "b", "missing", time.Minute)
	assert.Error(t, err)

	require.NoError(t, storage.Remove(ctx, "b", "a/1.png", "c/2.png", "missing"))
	assert.Zero(t, storage.Count())
}
