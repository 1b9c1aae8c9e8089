package main

import (
	"strings"
	"time"

	"places/auth"
	"places/config"
	"places/db"
	"places/handlers"
	"places/locations"
	"places/logging"
	"places/models"
	"places/storage"

	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.Init(config.LOG_LEVEL, config.LOG_FORMAT)
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	gdb, err := db.Open(config.MYSQL_DSN, config.SQLITE_FILE, config.DEBUG_MODE)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open database")
	}
	if err = models.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	store, err := newStorage()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialise image storage")
	}
	tokens, err := auth.NewTokenManager(config.JWT_KEY, time.Duration(config.TOKEN_TTL_MINUTES)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create token manager")
	}
	if config.GOOGLE_API_KEY == "" {
		log.Warn().Msg("GOOGLE_API_KEY is not set, address lookups will fail")
	}

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(&handlers.Handler{
		Repo:              models.NewRepo(gdb),
		Tokens:            tokens,
		Geocoder:          locations.NewGoogleGeocoder(config.GEOCODE_URL, config.GOOGLE_API_KEY, time.Duration(config.GEOCODE_TIMEOUT_SECONDS)*time.Second),
		Storage:           store,
		BcryptCost:        config.BCRYPT_COST,
		MaxImageDimension: uint(config.MAX_IMAGE_DIMENSION),
		MaxUploadBytes:    int64(config.MAX_UPLOAD_MB) << 20,
	}, config.DEBUG_MODE)

	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		log.Info().Str("address", config.BIND_ADDRESS).Msg("listening")
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatal().Err(err).Msg("server stopped")
}

func newStorage() (storage.StorageAPI, error) {
	storageType, err := storage.ParseStorageType(config.STORAGE_TYPE)
	if err != nil {
		return nil, err
	}
	bucket := &storage.Bucket{StorageType: storageType, Path: config.UPLOADS_DIR}
	if storageType == storage.StorageTypeS3 {
		bucket.Name = config.S3_BUCKET
		bucket.Path = config.S3_PREFIX
		bucket.Region = config.S3_REGION
		bucket.S3Key = config.S3_KEY
		bucket.S3Secret = config.S3_SECRET
		bucket.Endpoint = config.S3_ENDPOINT
	}
	return storage.NewStorage(bucket)
}
