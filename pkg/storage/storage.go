// Package storage keeps uploaded files, such as profile images, in S3 or on
// local disk.
//
//	store, err := storage.NewS3(cfg)
//	key, err := storage.PutImage(ctx, store, fileHeader, "profiles", storage.DefaultImageRules())
//	url := store.URL(key)
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")
	ErrEmptyFile     = errors.New("storage: file is empty")
	ErrFileTooLarge  = errors.New("storage: file exceeds size limit")
	ErrInvalidType   = errors.New("storage: file type not allowed")
	ErrInvalidKey    = errors.New("storage: invalid key")
	ErrNotFound      = errors.New("storage: file not found")
	ErrAccessDenied  = errors.New("storage: access denied")
	ErrUploadFailed  = errors.New("storage: upload failed")
	ErrDeleteFailed  = errors.New("storage: delete failed")
)

// Storage stores objects under slash separated keys.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}
