// Package analysis is the boundary to the emotional-peak detection
// pipeline. The agent never runs analysis itself; it asks this
// collaborator for detected moments and, when polling is enabled, for
// how far processing has advanced.
package analysis

import "context"

// Moment is one detected emotionally salient segment, ranked by the
// detector. Order of a returned slice is meaningful and must be kept.
type Moment struct {
	ID         string `yaml:"id" json:"id"`
	Duration   string `yaml:"duration" json:"duration"`
	Tag        string `yaml:"tag" json:"tag"`
	Confidence int    `yaml:"confidence" json:"confidence"`
	Preview    string `yaml:"preview" json:"preview"`
}

type Client interface {
	// Moments returns the detected clips for a processed video,
	// strongest signal first.
	Moments(ctx context.Context, videoID string) ([]Moment, error)

	// StageIndex reports how many processing stages the backend has
	// passed for the video (0..len(stages); the upper bound means all
	// stages are complete).
	StageIndex(ctx context.Context, videoID string) (int, error)
}
