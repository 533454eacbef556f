package stages

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

// CompletionFunc is invoked once when a tracker finishes all stages.
type CompletionFunc func(videoID string)

// Snapshot is a point-in-time view of one video's processing progress.
type Snapshot struct {
	VideoID   string
	VideoName string
	Cursor    int
	Stages    []View
	Done      bool
}

// Tracker follows one video through the processing stages. The cursor
// only moves forward; stale or duplicate advances from the source are
// ignored.
type Tracker struct {
	videoID    string
	repo       library.Repository
	source     Source
	onComplete CompletionFunc
	logger     *slog.Logger

	mu        sync.Mutex
	videoName string
	cursor    int
	done      bool

	cancel context.CancelFunc
	runWG  sync.WaitGroup
}

func NewTracker(videoID string, repo library.Repository, source Source, onComplete CompletionFunc, logger *slog.Logger) *Tracker {
	return &Tracker{
		videoID:    videoID,
		repo:       repo,
		source:     source,
		onComplete: onComplete,
		logger:     logger,
		videoName:  "Your video",
	}
}

// Start begins driving the tracker from its source. The video name is
// looked up once for display; a lookup failure is not fatal.
func (t *Tracker) Start(ctx context.Context) {
	if video, err := t.repo.GetVideo(ctx, t.videoID); err != nil {
		t.logger.Warn("video lookup failed", "video_id", t.videoID, "error", err)
	} else if video != nil {
		t.mu.Lock()
		t.videoName = video.OriginalName
		t.mu.Unlock()
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.runWG.Add(1)
	go func() {
		defer t.runWG.Done()
		t.source.Run(runCtx, t.advance, t.complete)
	}()
}

// Stop cancels the source and waits for it to exit.
func (t *Tracker) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.runWG.Wait()
}

func (t *Tracker) advance(cursor int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done || cursor < t.cursor {
		return
	}
	t.cursor = cursor
	t.logger.Info("stage advanced", "video_id", t.videoID, "cursor", cursor)
}

func (t *Tracker) complete() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.cursor = len(Definitions)
	t.mu.Unlock()

	// Persistence is best-effort: the in-memory state is authoritative
	// for the session and the handoff must still happen.
	if err := t.repo.UpdateVideoStatus(context.Background(), t.videoID, library.StatusCompleted); err != nil {
		t.logger.Error("failed to mark video completed", "video_id", t.videoID, "error", err)
	}

	t.logger.Info("processing complete", "video_id", t.videoID)

	if t.onComplete != nil {
		t.onComplete(t.videoID)
	}
}

// Snapshot returns the current progress view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		VideoID:   t.videoID,
		VideoName: t.videoName,
		Cursor:    t.cursor,
		Stages:    Derive(t.cursor),
		Done:      t.done,
	}
}
