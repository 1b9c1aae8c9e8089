package handlers

import (
	"fmt"
	"net/http"

	"places/apperr"
	"places/metrics"
	"places/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const uploadsKey = "uploaded_images"

// trackUpload records an image stored during this request, so it can be removed if the
// request fails afterwards
func trackUpload(c *gin.Context, name string) {
	names := c.GetStringSlice(uploadsKey)
	c.Set(uploadsKey, append(names, name))
}

// keepUploads marks the request's images as owned by committed rows
func keepUploads(c *gin.Context) {
	c.Set(uploadsKey, []string(nil))
}

func dropUploads(c *gin.Context, store storage.StorageAPI) {
	for _, name := range c.GetStringSlice(uploadsKey) {
		deleteImage(store, name)
	}
	keepUploads(c)
}

// deleteImage is best-effort, failures are only logged
func deleteImage(store storage.StorageAPI, name string) {
	if err := store.Delete(name); err != nil {
		metrics.StorageCleanupFailures.Inc()
		log.Warn().Err(err).Str("image", name).Msg("could not delete image")
	}
}

// ErrorHandler turns errors registered with c.Error into a {message} response and
// removes images stored by a failed request
func ErrorHandler(store storage.StorageAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		dropUploads(c, store)

		err := c.Errors.Last().Err
		status, message := apperr.Response(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"message": message})
	}
}

// Recovery answers panics like any other unknown error
func Recovery(store storage.StorageAPI) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		dropUploads(c, store)
		err := fmt.Errorf("panic: %v", recovered)
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request panicked")
		status, message := apperr.Response(err)
		c.AbortWithStatusJSON(status, gin.H{"message": message})
	})
}
