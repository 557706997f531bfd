package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort     string
	Environment    string
	AllowedOrigins []string

	FirebaseProject            string
	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string
	FirebaseAPIKey             string

	StorageDriver   string // "gcs" or "s3"
	StorageBucket   string
	GCSPublicACL    bool // false for buckets with uniform bucket-level access
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3UseSSL        bool
	S3PublicBaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DedupMode          string
	AttachmentMaxBytes int64
	StagingTTL         time.Duration
	CleanupInterval    time.Duration
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),

		FirebaseProject:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-adminsdk.json"),
		FirebaseAPIKey:             getEnv("FIREBASE_API_KEY", ""),

		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", "gcs")),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),
		GCSPublicACL:    getEnvAsBool("GCS_PUBLIC_ACL", true),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3UseSSL:        getEnvAsBool("S3_USE_SSL", true),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(getEnvAsInt64("REDIS_DB", 0)),

		DedupMode:          strings.ToLower(getEnv("CONVERSATION_DEDUP_MODE", "directional")),
		AttachmentMaxBytes: getEnvAsInt64("ATTACHMENT_MAX_BYTES", 10<<20),
		StagingTTL:         time.Duration(getEnvAsInt64("STAGING_TTL_SECONDS", 30*60)) * time.Second,
		CleanupInterval:    time.Duration(getEnvAsInt64("CLEANUP_INTERVAL_SECONDS", 10*60)) * time.Second,
		RateLimitPerMinute: int(getEnvAsInt64("RATE_LIMIT_PER_MINUTE", 30)),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "local"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var values []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}
