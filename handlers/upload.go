package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"places/apperr"
	"places/storage"
	"places/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var ErrImageTooLarge = apperr.Validation("Image is too large")

type uploadedImage struct {
	Name string
	Data []byte
}

// receiveImage reads and checks the "image" form file. Nothing is stored yet.
func (h *Handler) receiveImage(c *gin.Context) (*uploadedImage, error) {
	header, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrImageTooLarge
		}
		return nil, ErrInvalidInputs
	}
	if h.MaxUploadBytes > 0 && header.Size > h.MaxUploadBytes {
		return nil, ErrImageTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, ErrInvalidInputs
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, ErrInvalidInputs
	}

	ext, mimeType, err := storage.DetectImageType(header.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, err
	}
	shrunk, err := utils.ShrinkImage(h.MaxImageDimension, mimeType, data)
	if err != nil {
		log.Debug().Err(err).Str("filename", header.Filename).Msg("cannot decode image")
		return nil, storage.ErrImageType
	}
	if shrunk.NewX != shrunk.OldX {
		log.Debug().Int("from", shrunk.OldX).Int("to", shrunk.NewX).Msg("image scaled down")
	}
	return &uploadedImage{Name: storage.NewImageName(ext), Data: shrunk.Data}, nil
}

// storeImage returns the commit hook that writes img as the last step of a transaction
func (h *Handler) storeImage(c *gin.Context, img *uploadedImage) func() error {
	return func() error {
		if _, err := h.Storage.Save(img.Name, bytes.NewReader(img.Data)); err != nil {
			return err
		}
		trackUpload(c, img.Name)
		return nil
	}
}

// limitBody caps request bodies, leaving room for the text fields of a form
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n+1<<20)
		}
		c.Next()
	}
}

func (h *Handler) ServeImage(c *gin.Context) {
	err := h.Storage.Serve(c.Param("filename"), c.Request, c.Writer)
	if errors.Is(err, storage.ErrNotFound) {
		_ = c.Error(ErrRouteNotFound)
		return
	}
	if err != nil {
		_ = c.Error(apperr.Persistence("Could not load the image, please try again later", err))
	}
}
