// Package ingest drives the upload pipeline: file validation, the blob
// write, record creation, and the session state machine the UI observes.
package ingest

import "errors"

// MaxUploadBytes is the upload size ceiling (500 MiB). A file of exactly
// this size is accepted; one byte more is rejected.
const MaxUploadBytes = 500 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("upload a valid video file (MP4, MOV, WebM, AVI, or MPEG)")
	ErrFileTooLarge    = errors.New("file size must be 500MB or less")
)

var allowedMediaTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
	"video/x-msvideo": true,
	"video/mpeg":      true,
}

// FileMeta describes a candidate file as declared by the client.
type FileMeta struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// Validate checks a candidate file against the allow-list and size
// ceiling, type first. It has no side effects.
func Validate(meta FileMeta) error {
	if !allowedMediaTypes[meta.MediaType] {
		return ErrUnsupportedType
	}
	if meta.SizeBytes > MaxUploadBytes {
		return ErrFileTooLarge
	}
	return nil
}
