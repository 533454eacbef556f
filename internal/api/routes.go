package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulsepoint/pulsepoint-agent/internal/curation"
	"github.com/pulsepoint/pulsepoint-agent/internal/export"
	"github.com/pulsepoint/pulsepoint-agent/internal/ingest"
	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Post("/uploads", createUploadHandler(cfg))
		r.Get("/uploads/{id}", getUploadHandler(cfg))
		r.Post("/uploads/{id}/events", uploadEventHandler(cfg))
		r.Delete("/uploads/{id}", resetUploadHandler(cfg))

		r.Get("/videos", listVideosHandler(cfg))
		r.Get("/videos/{id}", getVideoHandler(cfg))
		r.Get("/videos/{id}/processing", processingHandler(cfg))
		r.Get("/videos/{id}/clips", listClipsHandler(cfg))
		r.Post("/videos/{id}/clips/{clipID}/approve", clipDecisionHandler(cfg, (*curation.Ledger).Approve))
		r.Post("/videos/{id}/clips/{clipID}/discard", clipDecisionHandler(cfg, (*curation.Ledger).Discard))
		r.Post("/videos/{id}/clips/{clipID}/undo", clipDecisionHandler(cfg, (*curation.Ledger).Undo))
		r.Post("/videos/{id}/export", exportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		total, _ := cfg.Repository.CountVideos(ctx, "")
		completed, _ := cfg.Repository.CountVideos(ctx, library.StatusCompleted)
		active := cfg.Ingest.ActiveUploads()

		state := "idle"
		switch {
		case active > 0:
			state = "uploading"
		case total > completed:
			state = "processing"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:           state,
			ActiveUploads:   active,
			VideosTotal:     total,
			VideosCompleted: completed,
		})
	}
}

// createUploadHandler receives the file as multipart form data and runs
// the whole session synchronously: the response carries the settled
// session state, success or error.
func createUploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Headroom above the content ceiling so the session itself gets
		// to reject oversized files with its own error.
		r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxUploadBytes+10*1024*1024)

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "file field is required", "BAD_REQUEST")
			return
		}
		defer file.Close()

		meta := ingest.FileMeta{
			Name:      header.Filename,
			MediaType: header.Header.Get("Content-Type"),
			SizeBytes: header.Size,
		}

		ctrl := cfg.Ingest.NewSession()
		if err := ctrl.Submit(r.Context(), meta, file); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
			return
		}

		WriteJSON(w, http.StatusCreated, UploadToResponse(ctrl.Snapshot()))
	}
}

func getUploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := cfg.Ingest.Session(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "upload session not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, UploadToResponse(ctrl.Snapshot()))
	}
}

func uploadEventHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := cfg.Ingest.Session(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "upload session not found", "NOT_FOUND")
			return
		}

		var req UploadEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		switch req.Type {
		case "drag_enter":
			ctrl.DragEnter()
		case "drag_leave":
			ctrl.DragLeave()
		default:
			WriteError(w, http.StatusBadRequest, "unknown event type", "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, UploadToResponse(ctrl.Snapshot()))
	}
}

func resetUploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := cfg.Ingest.Session(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "upload session not found", "NOT_FOUND")
			return
		}

		if err := ctrl.Reset(); err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
			return
		}

		WriteJSON(w, http.StatusOK, UploadToResponse(ctrl.Snapshot()))
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := cfg.Repository.ListVideos(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list videos", "INTERNAL_ERROR")
			return
		}

		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := cfg.Repository.GetVideo(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if video == nil {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, VideoToResponse(video))
	}
}

func processingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracker, ok := cfg.Stages.Tracker(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "no processing for video", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ProcessingToResponse(tracker.Snapshot()))
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ledger, ok := cfg.Curation.Ledger(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "clips not ready for video", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, LedgerToResponse(ledger))
	}
}

func clipDecisionHandler(cfg ServerConfig, decide func(*curation.Ledger, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ledger, ok := cfg.Curation.Ledger(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "clips not ready for video", "NOT_FOUND")
			return
		}

		if err := decide(ledger, chi.URLParam(r, "clipID")); err != nil {
			if errors.Is(err, curation.ErrClipNotFound) {
				WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, LedgerToResponse(ledger))
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := chi.URLParam(r, "id")

		video, err := cfg.Repository.GetVideo(r.Context(), videoID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if video == nil {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		ledger, ok := cfg.Curation.Ledger(videoID)
		if !ok {
			WriteError(w, http.StatusNotFound, "clips not ready for video", "NOT_FOUND")
			return
		}

		manifest, err := export.BuildManifest(video, ledger.Approved())
		if err != nil {
			if errors.Is(err, export.ErrNoApprovedClips) {
				WriteError(w, http.StatusConflict, "no approved clips to export", "CONFLICT")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		path, err := export.WriteManifest(manifest, cfg.ExportDir)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		cfg.Logger.Info("export written", "video_id", videoID, "path", path, "clip_count", manifest.ClipCount)
		WriteJSON(w, http.StatusOK, ExportResponse{OutputPath: path, ClipCount: manifest.ClipCount})
	}
}
