package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/google/uuid"
)

// imageExtensions maps the accepted image MIME types to file extensions.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// ImageRules bound an image upload.
type ImageRules struct {
	// Allowed lists extensions: jpg, png or gif.
	Allowed []string
	MaxSize int64
}

// DefaultImageRules accepts jpg, png and gif files up to 2 MB.
func DefaultImageRules() ImageRules {
	return ImageRules{MaxSize: 2 << 20, Allowed: []string{"jpg", "png", "gif"}}
}

// DetectImage sniffs the first bytes of r and returns the image extension,
// or "" when the content is not an accepted image.
func DetectImage(r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return imageExtensions[http.DetectContentType(head[:n])], nil
}

// ValidateImage checks the size and sniffed type of an upload and returns its
// extension. The declared filename and content type are ignored.
func ValidateImage(fh *multipart.FileHeader, rules ImageRules) (string, error) {
	if fh == nil || fh.Size == 0 {
		return "", ErrEmptyFile
	}
	if rules.MaxSize > 0 && fh.Size > rules.MaxSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, fh.Size, rules.MaxSize)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open upload: %w", err)
	}
	defer f.Close()

	ext, err := DetectImage(f)
	if err != nil {
		return "", fmt.Errorf("storage: read upload: %w", err)
	}
	if ext == "" || !slices.Contains(rules.Allowed, ext) {
		return "", ErrInvalidType
	}
	return ext, nil
}

// PutImage validates an uploaded image and stores it as <prefix>/<uuid>.<ext>.
// It returns the new key.
func PutImage(ctx context.Context, s Storage, fh *multipart.FileHeader, prefix string, rules ImageRules) (string, error) {
	ext, err := ValidateImage(fh, rules)
	if err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open upload: %w", err)
	}
	defer f.Close()

	key := uuid.NewString() + "." + ext
	if prefix != "" {
		key = prefix + "/" + key
	}
	contentType := "application/octet-stream"
	for mime, e := range imageExtensions {
		if e == ext {
			contentType = mime
		}
	}
	if err := s.Put(ctx, key, f, fh.Size, contentType); err != nil {
		return "", err
	}
	return key, nil
}
