package stages

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

// SourceFactory builds the progress source for a given video.
type SourceFactory func(videoID string) Source

// Service owns one tracker per video under processing.
type Service struct {
	repo       library.Repository
	newSource  SourceFactory
	onComplete CompletionFunc
	logger     *slog.Logger

	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewService(repo library.Repository, newSource SourceFactory, onComplete CompletionFunc, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		newSource:  newSource,
		onComplete: onComplete,
		logger:     logger,
		trackers:   make(map[string]*Tracker),
	}
}

// Begin starts tracking a video. Calling it again for the same video is
// a no-op so retried handoffs cannot restart progress.
func (s *Service) Begin(ctx context.Context, videoID string) *Tracker {
	s.mu.Lock()
	if existing, ok := s.trackers[videoID]; ok {
		s.mu.Unlock()
		return existing
	}

	tracker := NewTracker(videoID, s.repo, s.newSource(videoID), s.onComplete, s.logger)
	s.trackers[videoID] = tracker
	s.mu.Unlock()

	tracker.Start(ctx)
	return tracker
}

// Tracker returns the tracker for a video, if one exists.
func (s *Service) Tracker(videoID string) (*Tracker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker, ok := s.trackers[videoID]
	return tracker, ok
}

// StopAll cancels every tracker. Used during shutdown.
func (s *Service) StopAll() {
	s.mu.Lock()
	trackers := make([]*Tracker, 0, len(s.trackers))
	for _, t := range s.trackers {
		trackers = append(trackers, t)
	}
	s.mu.Unlock()

	for _, t := range trackers {
		t.Stop()
	}
}
