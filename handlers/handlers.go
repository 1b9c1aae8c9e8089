package handlers

import (
	"errors"
	"strconv"

	"places/apperr"
	"places/auth"
	"places/locations"
	"places/models"
	"places/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Handler holds everything request handlers depend on. It is immutable after startup.
type Handler struct {
	Repo              *models.Repo
	Tokens            *auth.TokenManager
	Geocoder          locations.Geocoder
	Storage           storage.StorageAPI
	BcryptCost        int
	MaxImageDimension uint
	MaxUploadBytes    int64
}

var (
	ErrInvalidInputs = apperr.Validation("Invalid inputs passed, please check your data")
	ErrRouteNotFound = apperr.NotFound("Could not find this route")
)

// parseID reads a numeric path parameter. Ids that can't exist are reported as notFound.
func parseID(c *gin.Context, name string, notFound error) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return id, nil
}

// invalidInputs logs which fields failed binding and returns the client facing error
func invalidInputs(c *gin.Context, err error) error {
	event := log.Debug().Str("path", c.Request.URL.Path)
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		fields := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		event = event.Strs("fields", fields)
	} else {
		event = event.Err(err)
	}
	event.Msg("invalid inputs")
	return ErrInvalidInputs
}
