package storage

import (
	"fmt"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

// Bucket describes where uploaded images live
type Bucket struct {
	StorageType StorageType
	Path        string // Directory on a drive or a key prefix in a S3 bucket
	Name        string // S3 bucket name
	Region      string
	S3Key       string
	S3Secret    string
	Endpoint    string // S3 compatible endpoint, empty for AWS
}

func ParseStorageType(s string) (StorageType, error) {
	switch s {
	case "", "file":
		return StorageTypeFile, nil
	case "s3":
		return StorageTypeS3, nil
	}
	return 0, fmt.Errorf("unknown storage type %q", s)
}

// NewStorage returns the backend for bucket
func NewStorage(bucket *Bucket) (StorageAPI, error) {
	switch bucket.StorageType {
	case StorageTypeFile:
		return NewDiskStorage(bucket), nil
	case StorageTypeS3:
		return NewS3Storage(bucket)
	}
	return nil, fmt.Errorf("storage type unavailable: %d", bucket.StorageType)
}
