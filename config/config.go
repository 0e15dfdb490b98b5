package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSS3Endpoint      string
	LogLevel           string

	// Storage buckets and URL settings
	StoragePublicBaseURL  string
	BucketProductImages   string
	BucketPaymentReceipts string
	ReceiptURLTTL         time.Duration

	// Remote payment verification function
	PaymentVerifyURL   string
	PaymentVerifyToken string
	PaymentCodePrefix  string

	// Shipping rule
	ShippingReducedRegions []string
	ShippingReducedFee     decimal.Decimal
	ShippingStandardFee    decimal.Decimal

	// Optional coordination and audit backends
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	MongoURI             string
	MongoDatabase        string
	MongoAuditCollection string
	CORSAllowedOrigins   []string
}

var current *Config

// defaults lists every key the service reads, with its fallback value
var defaults = map[string]interface{}{
	"DATABASE_URL":             "",
	"PORT":                     "8080",
	"GO_ENV":                   "development",
	"AUTH0_DOMAIN":             "",
	"AUTH0_AUDIENCE":           "",
	"AWS_REGION":               "us-east-1",
	"AWS_ACCESS_KEY_ID":        "",
	"AWS_SECRET_ACCESS_KEY":    "",
	"AWS_S3_ENDPOINT":          "",
	"LOG_LEVEL":                "info",
	"STORAGE_PUBLIC_BASE_URL":  "",
	"BUCKET_PRODUCT_IMAGES":    "product-images",
	"BUCKET_PAYMENT_RECEIPTS":  "payment-receipts",
	"RECEIPT_URL_TTL":          "1h",
	"PAYMENT_VERIFY_URL":       "",
	"PAYMENT_VERIFY_TOKEN":     "",
	"PAYMENT_CODE_PREFIX":      "PTTEE",
	"SHIPPING_REDUCED_REGIONS": "Lagos,Ogun",
	"SHIPPING_REDUCED_FEE":     "2000",
	"SHIPPING_STANDARD_FEE":    "5000",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"MONGODB_URI":              "",
	"MONGODB_DATABASE":         "tee_store",
	"MONGODB_AUDIT_COLLECTION": "audit_logs",
	"CORS_ALLOWED_ORIGINS":     "http://localhost:5173",
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production, environment variables are set directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	reducedFee, err := decimal.NewFromString(v.GetString("SHIPPING_REDUCED_FEE"))
	if err != nil {
		return nil, fmt.Errorf("SHIPPING_REDUCED_FEE is not a number: %w", err)
	}
	standardFee, err := decimal.NewFromString(v.GetString("SHIPPING_STANDARD_FEE"))
	if err != nil {
		return nil, fmt.Errorf("SHIPPING_STANDARD_FEE is not a number: %w", err)
	}
	receiptTTL, err := time.ParseDuration(v.GetString("RECEIPT_URL_TTL"))
	if err != nil {
		return nil, fmt.Errorf("RECEIPT_URL_TTL is not a duration: %w", err)
	}

	config := &Config{
		DatabaseURL:            v.GetString("DATABASE_URL"),
		Port:                   v.GetString("PORT"),
		GoEnv:                  v.GetString("GO_ENV"),
		Auth0Domain:            v.GetString("AUTH0_DOMAIN"),
		Auth0Audience:          v.GetString("AUTH0_AUDIENCE"),
		AWSRegion:              v.GetString("AWS_REGION"),
		AWSAccessKeyID:         v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:     v.GetString("AWS_SECRET_ACCESS_KEY"),
		AWSS3Endpoint:          v.GetString("AWS_S3_ENDPOINT"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		StoragePublicBaseURL:   v.GetString("STORAGE_PUBLIC_BASE_URL"),
		BucketProductImages:    v.GetString("BUCKET_PRODUCT_IMAGES"),
		BucketPaymentReceipts:  v.GetString("BUCKET_PAYMENT_RECEIPTS"),
		ReceiptURLTTL:          receiptTTL,
		PaymentVerifyURL:       v.GetString("PAYMENT_VERIFY_URL"),
		PaymentVerifyToken:     v.GetString("PAYMENT_VERIFY_TOKEN"),
		PaymentCodePrefix:      v.GetString("PAYMENT_CODE_PREFIX"),
		ShippingReducedRegions: splitList(v.GetString("SHIPPING_REDUCED_REGIONS")),
		ShippingReducedFee:     reducedFee,
		ShippingStandardFee:    standardFee,
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		MongoURI:               v.GetString("MONGODB_URI"),
		MongoDatabase:          v.GetString("MONGODB_DATABASE"),
		MongoAuditCollection:   v.GetString("MONGODB_AUDIT_COLLECTION"),
		CORSAllowedOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	current = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.PaymentCodePrefix == "" {
		return fmt.Errorf("PAYMENT_CODE_PREFIX must not be empty")
	}
	return nil
}

// GetConfig returns the most recently loaded configuration
func GetConfig() *Config {
	return current
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
