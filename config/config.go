package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	BIND_ADDRESS = "0.0.0.0:5000"
	TLS_DOMAINS  = "" // e.g. "example.com,example2.com"
	DEBUG_MODE   = false
	MYSQL_DSN    = ""          // MySQL will be used if this is set
	SQLITE_FILE  = "places.db" // SQLite is used when MYSQL_DSN is empty
	LOG_LEVEL    = "info"
	LOG_FORMAT   = "json" // or "console"

	// Credentials
	JWT_KEY           = ""
	TOKEN_TTL_MINUTES = 60
	BCRYPT_COST       = 12

	// Geocoding
	GOOGLE_API_KEY          = ""
	GEOCODE_URL             = "https://maps.googleapis.com/maps/api/geocode/json"
	GEOCODE_TIMEOUT_SECONDS = 10

	// Image storage. STORAGE_TYPE is "file" or "s3"
	STORAGE_TYPE        = "file"
	UPLOADS_DIR         = "uploads/images" // Disk location when STORAGE_TYPE is "file"
	S3_BUCKET           = ""
	S3_REGION           = "us-east-1"
	S3_KEY              = ""
	S3_SECRET           = ""
	S3_ENDPOINT         = "" // Set for S3 compatible services (MinIO, R2, ...)
	S3_PREFIX           = ""
	MAX_IMAGE_DIMENSION = 1280 // Bigger images are scaled down, 0 disables it
	MAX_UPLOAD_MB       = 10
)

func init() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("LOG_LEVEL", &LOG_LEVEL)
	readEnvString("LOG_FORMAT", &LOG_FORMAT)
	readEnvString("JWT_KEY", &JWT_KEY)
	readEnvInt("TOKEN_TTL_MINUTES", &TOKEN_TTL_MINUTES)
	readEnvInt("BCRYPT_COST", &BCRYPT_COST)
	readEnvString("GOOGLE_API_KEY", &GOOGLE_API_KEY)
	readEnvString("GEOCODE_URL", &GEOCODE_URL)
	readEnvInt("GEOCODE_TIMEOUT_SECONDS", &GEOCODE_TIMEOUT_SECONDS)
	readEnvString("STORAGE_TYPE", &STORAGE_TYPE)
	readEnvString("UPLOADS_DIR", &UPLOADS_DIR)
	readEnvString("S3_BUCKET", &S3_BUCKET)
	readEnvString("S3_REGION", &S3_REGION)
	readEnvString("S3_KEY", &S3_KEY)
	readEnvString("S3_SECRET", &S3_SECRET)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvString("S3_PREFIX", &S3_PREFIX)
	readEnvInt("MAX_IMAGE_DIMENSION", &MAX_IMAGE_DIMENSION)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
}

// Validate reports settings the server cannot start without
func Validate() error {
	if JWT_KEY == "" {
		return errors.New("JWT_KEY must be set")
	}
	if BCRYPT_COST < 12 {
		return errors.New("BCRYPT_COST must be at least 12")
	}
	if STORAGE_TYPE != "file" && STORAGE_TYPE != "s3" {
		return errors.New("STORAGE_TYPE must be one of 'file' or 's3'")
	}
	if STORAGE_TYPE == "s3" && S3_BUCKET == "" {
		return errors.New("S3_BUCKET must be set when STORAGE_TYPE is 's3'")
	}
	return nil
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = i
}
