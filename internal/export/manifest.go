// Package export turns a curation session's approved clips into a
// manifest file a downstream render pipeline can pick up.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pulsepoint/pulsepoint-agent/internal/curation"
	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

var ErrNoApprovedClips = errors.New("no approved clips to export")

const maxNameLen = 64

// Manifest describes one export: the source video plus every approved
// clip in detector order.
type Manifest struct {
	VideoID      string         `json:"video_id"`
	VideoName    string         `json:"video_name"`
	StoragePath  string         `json:"storage_path"`
	GeneratedAt  time.Time      `json:"generated_at"`
	ClipCount    int            `json:"clip_count"`
	Clips        []ManifestClip `json:"clips"`
	AgentVersion string         `json:"agent_version,omitempty"`
}

type ManifestClip struct {
	ID         string `json:"id"`
	Duration   string `json:"duration"`
	Tag        string `json:"tag"`
	Confidence int    `json:"confidence"`
}

// BuildManifest assembles the manifest for a video's approved clips.
func BuildManifest(video *library.Video, approved []curation.Clip) (*Manifest, error) {
	if len(approved) == 0 {
		return nil, ErrNoApprovedClips
	}

	clips := make([]ManifestClip, len(approved))
	for i, c := range approved {
		clips[i] = ManifestClip{
			ID:         c.ID,
			Duration:   c.Duration,
			Tag:        string(c.Tag),
			Confidence: c.Confidence,
		}
	}

	return &Manifest{
		VideoID:     video.ID,
		VideoName:   video.OriginalName,
		StoragePath: video.StoragePath,
		GeneratedAt: time.Now().UTC(),
		ClipCount:   len(clips),
		Clips:       clips,
	}, nil
}

// WriteManifest serializes the manifest into dir and returns the path.
func WriteManifest(m *Manifest, dir string) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}

	base := SanitizeName(m.VideoName, maxNameLen)
	if base == "" {
		base = m.VideoID
	}
	filename := fmt.Sprintf("%s-%s.pulsepoint.json", base, m.GeneratedAt.Format("20060102-150405"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return path, nil
}
