package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/pulsepoint/pulsepoint-agent/internal/blob"
	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

type State string

const (
	StateIdle      State = "idle"
	StateDragging  State = "dragging"
	StateUploading State = "uploading"
	StateSuccess   State = "success"
	StateError     State = "error"
)

const (
	// The transport does not expose byte-level progress, so the session
	// estimates: a tenth of the file every estimatorTick until settled.
	estimatorTick = 200 * time.Millisecond

	// How long a finished session stays visible before handing off.
	successHold = 1500 * time.Millisecond

	fallbackErrorMessage = "Upload failed. Please try again."
)

// Progress is the observed/estimated byte pair for one upload.
// Loaded never exceeds Total; Total is zero only before an upload starts.
type Progress struct {
	Loaded int64 `json:"loaded"`
	Total  int64 `json:"total"`
}

// HandoffFunc receives the created video ID once the success hold ends.
type HandoffFunc func(videoID string)

// Snapshot is a point-in-time copy of a session for the API layer.
type Snapshot struct {
	ID       string
	State    State
	File     FileMeta
	Progress Progress
	Error    string
	VideoID  string
}

// Controller owns one upload session's state machine:
// idle -> dragging -> uploading -> success | error, with error
// resettable back to idle. dragging is a visual sub-state of idle.
type Controller struct {
	id      string
	store   blob.Store
	repo    library.Repository
	handoff HandoffFunc
	logger  *slog.Logger

	hold time.Duration
	tick time.Duration

	mu            sync.Mutex
	state         State
	file          FileMeta
	progress      Progress
	lastErr       string
	videoID       string
	stopEstimator func()
	handoffDone   bool
	gen           int
}

func NewController(id string, store blob.Store, repo library.Repository, handoff HandoffFunc, logger *slog.Logger) *Controller {
	return newController(id, store, repo, handoff, logger, successHold, estimatorTick)
}

func newController(id string, store blob.Store, repo library.Repository, handoff HandoffFunc, logger *slog.Logger, hold, tick time.Duration) *Controller {
	return &Controller{
		id:      id,
		store:   store,
		repo:    repo,
		handoff: handoff,
		logger:  logger,
		hold:    hold,
		tick:    tick,
		state:   StateIdle,
	}
}

func (c *Controller) ID() string {
	return c.id
}

// DragEnter moves an idle session to the dragging visual state.
func (c *Controller) DragEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		c.state = StateDragging
	}
}

// DragLeave returns a dragging session to idle.
func (c *Controller) DragLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDragging {
		c.state = StateIdle
	}
}

// Submit validates and uploads a file. A validation failure is returned
// to the caller and leaves the session idle; it is not an upload failure.
// Transport and persistence failures are captured into the session state
// and are not returned.
func (c *Controller) Submit(ctx context.Context, meta FileMeta, content io.Reader) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateDragging {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("session is %s, not accepting files", state)
	}

	if err := Validate(meta); err != nil {
		c.state = StateIdle
		c.mu.Unlock()
		return err
	}

	c.state = StateUploading
	c.file = meta
	c.progress = Progress{Loaded: 0, Total: meta.SizeBytes}
	c.lastErr = ""
	gen := c.gen
	c.mu.Unlock()

	c.startEstimator(meta.SizeBytes)

	key := blob.NewKey(meta.Name)
	err := c.store.Put(ctx, key, content, meta.SizeBytes, blob.PutOptions{
		ContentType:  meta.MediaType,
		CacheControl: blob.DefaultCacheControl,
	})
	if err != nil {
		c.fail(gen, err)
		return nil
	}

	// The record is only created after the blob write settles.
	now := time.Now()
	video := &library.Video{
		ID:           library.NewID(),
		Filename:     path.Base(key),
		OriginalName: meta.Name,
		SizeBytes:    meta.SizeBytes,
		Status:       library.StatusProcessing,
		StoragePath:  key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.repo.CreateVideo(ctx, video); err != nil {
		c.fail(gen, err)
		return nil
	}

	c.settle(gen, video.ID)
	return nil
}

// Reset clears the session after a failure, or cancels an in-flight
// upload display. Refused once the upload has succeeded: the hand-off is
// already committed.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSuccess {
		return fmt.Errorf("upload already complete")
	}

	c.stopEstimatorLocked()
	c.gen++
	c.state = StateIdle
	c.file = FileMeta{}
	c.progress = Progress{}
	c.lastErr = ""
	return nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:       c.id,
		State:    c.state,
		File:     c.file,
		Progress: c.progress,
		Error:    c.lastErr,
		VideoID:  c.videoID,
	}
}

func (c *Controller) settle(gen int, videoID string) {
	c.mu.Lock()
	if c.gen != gen {
		// Session was reset while the upload was in flight.
		c.mu.Unlock()
		return
	}
	c.stopEstimatorLocked()
	c.progress.Loaded = c.progress.Total
	c.state = StateSuccess
	c.videoID = videoID
	c.mu.Unlock()

	c.logger.Info("upload complete", "session_id", c.id, "video_id", videoID)

	// Fixed display hold before the hand-off. Not cancellable, fires once.
	time.AfterFunc(c.hold, func() {
		c.mu.Lock()
		if c.handoffDone {
			c.mu.Unlock()
			return
		}
		c.handoffDone = true
		c.mu.Unlock()

		if c.handoff != nil {
			c.handoff(videoID)
		}
	})
}

func (c *Controller) fail(gen int, err error) {
	msg := fallbackErrorMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.stopEstimatorLocked()
	c.state = StateError
	c.lastErr = msg
	c.mu.Unlock()

	c.logger.Error("upload failed", "session_id", c.id, "error", msg)
}

func (c *Controller) startEstimator(total int64) {
	done := make(chan struct{})
	var once sync.Once

	c.mu.Lock()
	c.stopEstimator = func() {
		once.Do(func() { close(done) })
	}
	c.mu.Unlock()

	step := total / 10
	if step < 1 {
		step = 1
	}

	go func() {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.state != StateUploading {
					c.mu.Unlock()
					return
				}
				c.progress.Loaded += step
				if c.progress.Loaded > c.progress.Total {
					c.progress.Loaded = c.progress.Total
				}
				c.mu.Unlock()
			}
		}
	}()
}

// stopEstimatorLocked tears down the estimator. Callers hold c.mu.
func (c *Controller) stopEstimatorLocked() {
	if c.stopEstimator != nil {
		c.stopEstimator()
		c.stopEstimator = nil
	}
}
