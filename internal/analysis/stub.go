package analysis

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed moments.yaml
var momentsFixture []byte

// stubTimings mirror the simulated processing schedule: one stage passed
// at each offset, everything complete at the end.
var stubTimings = []time.Duration{
	2000 * time.Millisecond,
	4500 * time.Millisecond,
	7000 * time.Millisecond,
	10000 * time.Millisecond,
}

// StubClient stands in for the analysis backend. It serves a fixed set
// of detected moments and reports stage progress from wall-clock time
// since a video was first seen.
type StubClient struct {
	logger *slog.Logger

	mu        sync.Mutex
	moments   []Moment
	firstSeen map[string]time.Time
}

func NewStubClient(logger *slog.Logger) (*StubClient, error) {
	var payload struct {
		Moments []Moment `yaml:"moments"`
	}
	if err := yaml.Unmarshal(momentsFixture, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse moments fixture: %w", err)
	}

	return &StubClient{
		logger:    logger,
		moments:   payload.Moments,
		firstSeen: make(map[string]time.Time),
	}, nil
}

func (s *StubClient) Moments(ctx context.Context, videoID string) ([]Moment, error) {
	s.logger.Info("analysis stub: serving fixture moments", "video_id", videoID, "count", len(s.moments))

	out := make([]Moment, len(s.moments))
	copy(out, s.moments)
	return out, nil
}

func (s *StubClient) StageIndex(ctx context.Context, videoID string) (int, error) {
	s.mu.Lock()
	start, ok := s.firstSeen[videoID]
	if !ok {
		start = time.Now()
		s.firstSeen[videoID] = start
	}
	s.mu.Unlock()

	elapsed := time.Since(start)
	stage := 0
	for _, d := range stubTimings {
		if elapsed >= d {
			stage++
		}
	}
	return stage, nil
}
