package storage

import (
	"mime"
	"path/filepath"
	"strings"

	"places/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrImageType = apperr.Validation("Invalid image type, only png, jpeg and jpg are allowed")

// allowedImageTypes maps the declared upload type to the file extension
var allowedImageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

// DetectImageType checks both the declared type and the actual content, and returns
// the extension and the sniffed MIME type ("image/png" or "image/jpeg")
func DetectImageType(declared string, content []byte) (ext, mimeType string, err error) {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	ext, ok := allowedImageTypes[declared]
	if !ok {
		return "", "", ErrImageType
	}
	sniffed := mimetype.Detect(content)
	switch {
	case sniffed.Is("image/png") && ext == "png":
		return ext, "image/png", nil
	case sniffed.Is("image/jpeg") && (ext == "jpeg" || ext == "jpg"):
		return ext, "image/jpeg", nil
	}
	return "", "", ErrImageType
}

func NewImageName(ext string) string {
	return uuid.NewString() + "." + ext
}

func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
