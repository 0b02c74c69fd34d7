package services

import (
	"fmt"
	"strings"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
)

const (
	megabyte = 1 << 20
	gigabyte = 1 << 30
)

// uploadPolicy is the MIME allow-list with per-type byte ceilings. Anything
// not listed here never receives a writable URL.
var uploadPolicy = map[string]domain.ByteSize{
	"image/jpeg":    25 * megabyte,
	"image/png":     25 * megabyte,
	"image/gif":     25 * megabyte,
	"image/webp":    25 * megabyte,
	"image/svg+xml": 5 * megabyte,
	"image/bmp":     25 * megabyte,
	"image/tiff":    50 * megabyte,

	"video/mp4":        2 * gigabyte,
	"video/quicktime":  2 * gigabyte,
	"video/webm":       2 * gigabyte,
	"video/x-msvideo":  2 * gigabyte,
	"video/x-matroska": 2 * gigabyte,

	"audio/mpeg": 500 * megabyte,
	"audio/wav":  500 * megabyte,
	"audio/ogg":  500 * megabyte,
	"audio/flac": 500 * megabyte,

	"application/pdf": 50 * megabyte,
	"application/msword": 50 * megabyte,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": 50 * megabyte,
	"application/vnd.ms-excel": 50 * megabyte,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       50 * megabyte,
	"application/vnd.ms-powerpoint":                                           50 * megabyte,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": 50 * megabyte,
	"text/plain": 10 * megabyte,
	"text/csv":   50 * megabyte,

	"model/gltf-binary": 500 * megabyte,
	"model/gltf+json":   500 * megabyte,
	"model/obj":         500 * megabyte,

	"application/zip":          1 * gigabyte,
	"application/octet-stream": 1 * gigabyte,
}

// ValidateUpload enforces the allow-list and size ceiling before any signed
// URL is produced.
func ValidateUpload(mimeType string, fileSize domain.ByteSize) error {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	limit, ok := uploadPolicy[mt]
	if !ok {
		return fmt.Errorf("file type %q is not allowed", mimeType)
	}
	if fileSize == 0 {
		return fmt.Errorf("file size must be greater than zero")
	}
	if fileSize > limit {
		return fmt.Errorf("file of type %q exceeds the %d byte limit", mimeType, limit)
	}
	return nil
}
