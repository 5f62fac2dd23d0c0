// Package media stores user images in an S3 compatible object store and
// returns the public URL recorded on the user.
package media

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile          = errors.New("file is empty")
	ErrUnsupportedType    = errors.New("file is not a supported image type")
	ErrFileTooLarge       = errors.New("file exceeds the upload size limit")
	ErrUploaderNotEnabled = errors.New("media uploads are disabled")
)

const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, body []byte) (string, error)
}

// ValidateImage checks size and declared type and returns the canonical
// extension for the stored object.
func ValidateImage(contentType string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", ErrEmptyFile
	}
	if len(body) > MaxImageSize {
		return "", ErrFileTooLarge
	}

	mediaType, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), ";")
	ext, ok := allowedImageTypes[strings.TrimSpace(mediaType)]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// ObjectKey builds a collision free key such as "avatars/<user>/<uuid>.png".
func ObjectKey(kind string, userID string, ext string) string {
	return path.Join(kind, userID, uuid.NewString()+ext)
}
