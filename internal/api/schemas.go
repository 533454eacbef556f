package api

import (
	"time"

	"github.com/pulsepoint/pulsepoint-agent/internal/curation"
	"github.com/pulsepoint/pulsepoint-agent/internal/ingest"
	"github.com/pulsepoint/pulsepoint-agent/internal/library"
	"github.com/pulsepoint/pulsepoint-agent/internal/stages"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State           string `json:"state"`
	ActiveUploads   int    `json:"active_uploads"`
	VideosTotal     int    `json:"videos_total"`
	VideosCompleted int    `json:"videos_completed"`
}

type UploadEventRequest struct {
	Type string `json:"type"`
}

type UploadResponse struct {
	ID       string           `json:"id"`
	State    string           `json:"state"`
	FileName string           `json:"file_name,omitempty"`
	FileSize int64            `json:"file_size,omitempty"`
	Progress ProgressResponse `json:"progress"`
	Error    string           `json:"error,omitempty"`
	VideoID  string           `json:"video_id,omitempty"`
}

type ProgressResponse struct {
	Loaded int64 `json:"loaded"`
	Total  int64 `json:"total"`
}

type VideoResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	SizeBytes    int64  `json:"size_bytes"`
	Status       string `json:"status"`
	StoragePath  string `json:"storage_path"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type StageResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type ProcessingResponse struct {
	VideoID   string          `json:"video_id"`
	VideoName string          `json:"video_name"`
	Done      bool            `json:"done"`
	Stages    []StageResponse `json:"stages"`
}

type ClipResponse struct {
	ID         string `json:"id"`
	Duration   string `json:"duration"`
	Tag        string `json:"tag"`
	Confidence int    `json:"confidence"`
	Preview    string `json:"preview"`
	Decision   string `json:"decision"`
}

type ClipsResponse struct {
	Clips    []ClipResponse `json:"clips"`
	Approved int            `json:"approved"`
	Pending  int            `json:"pending"`
}

type ExportResponse struct {
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func UploadToResponse(s ingest.Snapshot) UploadResponse {
	return UploadResponse{
		ID:       s.ID,
		State:    string(s.State),
		FileName: s.File.Name,
		FileSize: s.File.SizeBytes,
		Progress: ProgressResponse{Loaded: s.Progress.Loaded, Total: s.Progress.Total},
		Error:    s.Error,
		VideoID:  s.VideoID,
	}
}

func VideoToResponse(v *library.Video) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		Filename:     v.Filename,
		OriginalName: v.OriginalName,
		SizeBytes:    v.SizeBytes,
		Status:       v.Status,
		StoragePath:  v.StoragePath,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    v.UpdatedAt.Format(time.RFC3339),
	}
}

func ProcessingToResponse(s stages.Snapshot) ProcessingResponse {
	resp := ProcessingResponse{
		VideoID:   s.VideoID,
		VideoName: s.VideoName,
		Done:      s.Done,
		Stages:    make([]StageResponse, len(s.Stages)),
	}
	for i, view := range s.Stages {
		resp.Stages[i] = StageResponse{
			ID:          view.ID,
			Label:       view.Label,
			Description: view.Description,
			Status:      string(view.Status),
		}
	}
	return resp
}

func ClipToResponse(c curation.Clip) ClipResponse {
	return ClipResponse{
		ID:         c.ID,
		Duration:   c.Duration,
		Tag:        string(c.Tag),
		Confidence: c.Confidence,
		Preview:    c.Preview,
		Decision:   string(c.Decision),
	}
}

func LedgerToResponse(l *curation.Ledger) ClipsResponse {
	clips := l.Clips()
	counts := l.Counts()

	resp := ClipsResponse{
		Clips:    make([]ClipResponse, len(clips)),
		Approved: counts.Approved,
		Pending:  counts.Pending,
	}
	for i, c := range clips {
		resp.Clips[i] = ClipToResponse(c)
	}
	return resp
}
