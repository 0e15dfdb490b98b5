package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/kendall-kelly/tee-store-api/config"
	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/kendall-kelly/tee-store-api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// TestConfig is the configuration the fixtures run with
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:            ":memory:",
		Port:                   "8080",
		GoEnv:                  "test",
		Auth0Domain:            "test.auth0.com",
		Auth0Audience:          "https://api.tee-store.test",
		LogLevel:               "info",
		BucketProductImages:    "product-images",
		BucketPaymentReceipts:  "payment-receipts",
		ReceiptURLTTL:          15 * time.Minute,
		PaymentCodePrefix:      "PTTEE",
		ShippingReducedRegions: []string{"Lagos", "Ogun"},
		ShippingReducedFee:     decimal.NewFromInt(2000),
		ShippingStandardFee:    decimal.NewFromInt(5000),
		CORSAllowedOrigins:     []string{"http://localhost:5173"},
	}
}

// NewTestDB opens a migrated in-memory database. A single connection keeps
// every query, transactions included, on the same in-memory schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// Fixture is a fully wired set of services on in-memory backends
type Fixture struct {
	Config   *config.Config
	DB       *gorm.DB
	Storage  *services.MockStorageService
	Verifier *services.MockPaymentVerifier
	UserInfo *services.MockUserInfoProvider
	Audit    *services.MemoryAuditLog
	Services *services.Services
	Log      *zap.Logger
}

// NewFixture builds the services against sqlite and the in-memory mocks
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	RequireTestEnvironment(t)

	f := &Fixture{
		Config:   TestConfig(),
		DB:       NewTestDB(t),
		Storage:  services.NewMockStorageService(),
		Verifier: services.NewMockPaymentVerifier(),
		UserInfo: services.NewMockUserInfoProvider(),
		Audit:    services.NewMemoryAuditLog(),
		Log:      zap.NewNop(),
	}
	f.Services = services.New(f.Config, services.Backends{
		DB:       f.DB,
		Storage:  f.Storage,
		Verifier: f.Verifier,
		UserInfo: f.UserInfo,
		Locker:   services.NewLocalLocker(),
		Audit:    f.Audit,
	}, f.Log)
	return f
}

// CreateProfile stores a profile and registers its identity with the
// mock userinfo provider
func (f *Fixture) CreateProfile(t *testing.T, auth0ID, name, email, role string) models.Profile {
	t.Helper()
	profile := models.Profile{Auth0ID: auth0ID, Name: name, Email: email, Role: role}
	require.NoError(t, f.DB.Create(&profile).Error)
	f.UserInfo.SetUser(AccessToken(auth0ID), services.Auth0UserInfo{Sub: auth0ID, Email: email, Name: name})
	return profile
}

// SeedProduct stores an available product in sizes S, M, L and colors Black, White
func (f *Fixture) SeedProduct(t *testing.T, id, name string, price int64, oneOfOne bool) models.Product {
	t.Helper()
	product := models.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.NewFromInt(price),
		Category:   "tees",
		Sizes:      []string{"S", "M", "L"},
		Colors:     []string{"Black", "White"},
		Available:  true,
		IsOneOfOne: oneOfOne,
	}
	require.NoError(t, f.DB.Create(&product).Error)
	return product
}

// MultipartBody encodes form fields and files. It returns the body and its
// content type.
func MultipartBody(t *testing.T, fields map[string]string, files ...FormFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		require.NoError(t, err)
		_, err = part.Write(file.Content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// FormFile is a file part of a multipart body
type FormFile struct {
	Field   string
	Name    string
	Content []byte
}

// ParseResponse decodes the JSON envelope of a recorded response
func ParseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON: %s", w.Body.String())
	return response
}
