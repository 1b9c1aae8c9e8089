package storage

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	cmap "github.com/orcaman/concurrent-map/v2"
)

var errInvalidName = errors.New("invalid image name")

type DiskStorage struct {
	// BasePath is a directory that is writable by the current process
	BasePath string
	dirs     cmap.ConcurrentMap[string, bool]
}

func NewDiskStorage(bucket *Bucket) *DiskStorage {
	return &DiskStorage{
		BasePath: bucket.Path,
		dirs:     cmap.New[bool](),
	}
}

func (s *DiskStorage) createDir(dir string) error {
	if s.dirs.Has(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	s.dirs.Set(dir, true)
	return nil
}

func (s *DiskStorage) getFullPath(name string) string {
	return filepath.Join(s.BasePath, name)
}

func (s *DiskStorage) Save(name string, reader io.Reader) (int64, error) {
	if !validName(name) {
		return 0, errInvalidName
	}
	if err := s.createDir(s.BasePath); err != nil {
		return 0, err
	}
	file, err := os.Create(s.getFullPath(name))
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(s.getFullPath(name))
	}
	return result, err
}

func (s *DiskStorage) Serve(name string, request *http.Request, writer http.ResponseWriter) error {
	if !validName(name) {
		return ErrNotFound
	}
	fullPath := s.getFullPath(name)
	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	http.ServeFile(writer, request, fullPath)
	return nil
}

func (s *DiskStorage) Delete(name string) error {
	if !validName(name) {
		return errInvalidName
	}
	return os.Remove(s.getFullPath(name))
}
