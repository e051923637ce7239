package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	aws_pkg "github.com/yashrajoria/affiliate-storefront/pkg/aws"
)

const (
	BackendDynamo = "dynamodb"
	BackendMongo  = "mongo"
	BackendLocal  = "local"
)

// Config holds all environment variables for the storefront service.
type Config struct {
	Port           string
	Env            string
	ProductBackend string // dynamodb, mongo or local

	DynamoTable string
	MongoURI    string
	MongoDB     string
	RedisURL    string

	AWS              aws_pkg.Options
	S3Endpoint       string
	S3Bucket         string
	CloudFrontDomain string
	CatalogTopicArn  string

	StaticDataURL   string
	CatalogCacheTTL time.Duration

	JWTSecret         string
	SessionTTL        time.Duration
	AdminEmail        string
	AdminPasswordHash string
	AdminPasscode     string

	AllowedOrigins    string
	CloudWatchEnabled bool
	MetricsEnabled    bool
}

// secretLookup resolves secrets by key. *aws.SecretsClient satisfies it.
type secretLookup interface {
	Lookup(ctx context.Context, keys ...string) map[string]string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// LoadConfig loads environment variables into Config and validates them.
// If AWS_USE_SECRETS=true the JWT secret and admin passcode are read from
// Secrets Manager, falling back to env vars on failure.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8082"),
		Env:            getEnv("APP_ENV", "development"),
		ProductBackend: strings.ToLower(getEnv("PRODUCT_BACKEND", BackendDynamo)),

		DynamoTable: getEnv("DDB_TABLE_PRODUCTS", "AffiliateProducts"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "storefront"),
		RedisURL:    getEnv("REDIS_URL", "redis://redis:6379"),

		AWS: aws_pkg.Options{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        os.Getenv("AWS_ENDPOINT"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		S3Bucket:         getEnv("AWS_S3_BUCKET", "storefront-media"),
		CloudFrontDomain: os.Getenv("AWS_CLOUDFRONT_DOMAIN"),
		CatalogTopicArn:  os.Getenv("CATALOG_SNS_TOPIC_ARN"),

		StaticDataURL:   strings.TrimRight(os.Getenv("STATIC_DATA_URL"), "/"),
		CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		SessionTTL:        getDuration("SESSION_TTL", 24*time.Hour),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminPasscode:     os.Getenv("ADMIN_PASSCODE"),

		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		CloudWatchEnabled: os.Getenv("CLOUDWATCH_ENABLED") == "true",
		MetricsEnabled:    os.Getenv("METRICS_ENABLED") == "true",
	}
	cfg.S3Endpoint = getEnv("AWS_S3_ENDPOINT", cfg.AWS.Endpoint)

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background(), cfg.AWS); err == nil {
			applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg, "storefront/"))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySecrets overrides secret fields with the values sm resolves.
func applySecrets(ctx context.Context, cfg *Config, sm secretLookup) {
	found := sm.Lookup(ctx, "JWT_SECRET", "ADMIN_PASSCODE")
	if v, ok := found["JWT_SECRET"]; ok {
		cfg.JWTSecret = v
	}
	if v, ok := found["ADMIN_PASSCODE"]; ok {
		cfg.AdminPasscode = v
	}
}

func (c *Config) validate() error {
	switch c.ProductBackend {
	case BackendDynamo, BackendMongo, BackendLocal:
	default:
		return fmt.Errorf("PRODUCT_BACKEND must be one of %s, %s, %s; got %q", BackendDynamo, BackendMongo, BackendLocal, c.ProductBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.S3Bucket == "" {
		return fmt.Errorf("AWS_S3_BUCKET is required")
	}
	return nil
}
