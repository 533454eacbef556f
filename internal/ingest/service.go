package ingest

import (
	"log/slog"
	"sync"

	"github.com/pulsepoint/pulsepoint-agent/internal/blob"
	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

// Service tracks upload sessions by ID for the HTTP surface.
type Service struct {
	store   blob.Store
	repo    library.Repository
	handoff HandoffFunc
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewService(store blob.Store, repo library.Repository, handoff HandoffFunc, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		repo:     repo,
		handoff:  handoff,
		logger:   logger,
		sessions: make(map[string]*Controller),
	}
}

// NewSession creates a fresh upload session.
func (s *Service) NewSession() *Controller {
	ctrl := NewController(library.NewID(), s.store, s.repo, s.handoff, s.logger)

	s.mu.Lock()
	s.sessions[ctrl.ID()] = ctrl
	s.mu.Unlock()

	return ctrl
}

// Session returns an existing session by ID.
func (s *Service) Session(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.sessions[id]
	return ctrl, ok
}

// ActiveUploads counts sessions currently in the uploading state.
func (s *Service) ActiveUploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, ctrl := range s.sessions {
		if ctrl.Snapshot().State == StateUploading {
			count++
		}
	}
	return count
}
