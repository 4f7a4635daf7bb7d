// Package assets stores the images of custom games.
//
// S3Store writes to any S3-compatible bucket (AWS, Cloudflare R2, MinIO).
// LocalStore writes below a directory that the HTTP server exposes under /images/.
// Both return the URL the image is served from; that URL becomes the card identifier.
package assets

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// MaxImageBytes caps the size of a single uploaded image
const MaxImageBytes = 5 << 20

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
	ErrInvalidKey       = errors.New("invalid object key")
)

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentTypeFor returns the content type for an image key, based on its extension
func ContentTypeFor(key string) (string, error) {
	ext := strings.ToLower(path.Ext(key))
	contentType, ok := contentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	return contentType, nil
}

// checkUpload validates the key, extension and declared size of an upload
// and resolves the content type to store. The stored type follows the
// extension, never the client's declaration.
func checkUpload(key string, size int64) (string, string, error) {
	cleaned := path.Clean(strings.TrimPrefix(key, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(key, "\\") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if size > MaxImageBytes {
		return "", "", fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, size, MaxImageBytes)
	}

	contentType, err := ContentTypeFor(cleaned)
	if err != nil {
		return "", "", err
	}
	return cleaned, contentType, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
