package storage

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
)

// ImagesURLPrefix is where images are served from. Stored image paths are relative to
// the site root, e.g. "uploads/images/<name>".
const ImagesURLPrefix = "/uploads/images"

// StorageAPI stores uploaded images by name. Names are flat, generated by NewImageName.
type StorageAPI interface {
	Save(name string, reader io.Reader) (int64, error)
	Delete(name string) error
	// Serve writes the image or returns ErrNotFound without writing anything
	Serve(name string, request *http.Request, writer http.ResponseWriter) error
}

var ErrNotFound = errors.New("image not found")

// PublicPath is the path persisted with users and places for an image name
func PublicPath(name string) string {
	return strings.TrimPrefix(ImagesURLPrefix, "/") + "/" + name
}

// NameFromPublicPath reverses PublicPath
func NameFromPublicPath(p string) string {
	return path.Base(p)
}

// validName rejects anything that could escape the storage root
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\")
}
