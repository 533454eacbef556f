// Package library owns the persisted video records. A record is created
// when ingestion succeeds and its status is completed by the stage tracker;
// records are never deleted.
package library

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Video is the persisted record for one uploaded video. Filename is the
// generated storage name; OriginalName is the name the user supplied.
type Video struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `json:"status"`
	StoragePath  string    `json:"storage_path"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}
