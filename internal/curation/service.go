package curation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pulsepoint/pulsepoint-agent/internal/analysis"
)

// Service holds one ledger per video, seeded from the analysis
// collaborator when processing completes.
type Service struct {
	client analysis.Client
	logger *slog.Logger

	mu      sync.Mutex
	ledgers map[string]*Ledger
}

func NewService(client analysis.Client, logger *slog.Logger) *Service {
	return &Service{
		client:  client,
		logger:  logger,
		ledgers: make(map[string]*Ledger),
	}
}

// Begin seeds the ledger for a video from the detected moments. Calling
// it again for the same video returns the existing ledger untouched, so
// review decisions survive a duplicate hand-off.
func (s *Service) Begin(ctx context.Context, videoID string) (*Ledger, error) {
	s.mu.Lock()
	if ledger, ok := s.ledgers[videoID]; ok {
		s.mu.Unlock()
		return ledger, nil
	}
	s.mu.Unlock()

	moments, err := s.client.Moments(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch moments: %w", err)
	}

	clips := make([]Clip, len(moments))
	for i, m := range moments {
		clips[i] = Clip{
			ID:         m.ID,
			Duration:   m.Duration,
			Tag:        Tag(m.Tag),
			Confidence: m.Confidence,
			Preview:    m.Preview,
			Decision:   DecisionUndecided,
		}
	}

	ledger := NewLedger(clips)

	s.mu.Lock()
	// A concurrent Begin may have won; keep the first ledger.
	if existing, ok := s.ledgers[videoID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.ledgers[videoID] = ledger
	s.mu.Unlock()

	s.logger.Info("curation ready", "video_id", videoID, "clip_count", ledger.Len())
	return ledger, nil
}

// Ledger returns the ledger for a video, if curation has begun.
func (s *Service) Ledger(videoID string) (*Ledger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.ledgers[videoID]
	return ledger, ok
}
