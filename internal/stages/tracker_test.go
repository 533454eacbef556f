package stages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	mu        sync.Mutex
	videos    map[string]*library.Video
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{videos: make(map[string]*library.Video)}
}

func (r *fakeRepo) CreateVideo(ctx context.Context, v *library.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *v
	r.videos[v.ID] = &copied
	return nil
}

func (r *fakeRepo) GetVideo(ctx context.Context, id string) (*library.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (r *fakeRepo) ListVideos(ctx context.Context, limit int) ([]*library.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*library.Video
	for _, v := range r.videos {
		copied := *v
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRepo) UpdateVideoStatus(ctx context.Context, id, status string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.videos[id]; ok {
		v.Status = status
	}
	return nil
}

func (r *fakeRepo) CountVideos(ctx context.Context, status string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.videos), nil
}

func (r *fakeRepo) GetConfig(ctx context.Context, key string) (string, error) { return "", nil }
func (r *fakeRepo) SetConfig(ctx context.Context, key, value string) error   { return nil }

func (r *fakeRepo) status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.videos[id]; ok {
		return v.Status
	}
	return ""
}

func seedVideo(t *testing.T, repo *fakeRepo, name string) string {
	t.Helper()
	v := &library.Video{
		ID:           library.NewID(),
		Filename:     "uploads/abc.mp4",
		OriginalName: name,
		SizeBytes:    1024,
		Status:       library.StatusProcessing,
		StoragePath:  "uploads/abc.mp4",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.CreateVideo(context.Background(), v); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}
	return v.ID
}

// fastSchedule compresses the production timeline so tests finish quickly.
func fastSchedule() *ScheduleSource {
	return &ScheduleSource{
		Advances: []time.Duration{
			0,
			10 * time.Millisecond,
			20 * time.Millisecond,
			30 * time.Millisecond,
			40 * time.Millisecond,
		},
		CompleteAt: 50 * time.Millisecond,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestTracker_RunsToCompletion(t *testing.T) {
	repo := newFakeRepo()
	videoID := seedVideo(t, repo, "keynote.mp4")

	var completedMu sync.Mutex
	var completed []string
	onComplete := func(id string) {
		completedMu.Lock()
		completed = append(completed, id)
		completedMu.Unlock()
	}

	tracker := NewTracker(videoID, repo, fastSchedule(), onComplete, testLogger())
	tracker.Start(context.Background())
	defer tracker.Stop()

	waitFor(t, 2*time.Second, func() bool { return tracker.Snapshot().Done })

	snap := tracker.Snapshot()
	if snap.Cursor != len(Definitions) {
		t.Errorf("Cursor = %d, want %d", snap.Cursor, len(Definitions))
	}
	if snap.VideoName != "keynote.mp4" {
		t.Errorf("VideoName = %s, want keynote.mp4", snap.VideoName)
	}
	for i, view := range snap.Stages {
		if view.Status != StatusComplete {
			t.Errorf("stage %d status = %v, want complete", i, view.Status)
		}
	}

	if got := repo.status(videoID); got != library.StatusCompleted {
		t.Errorf("video status = %s, want %s", got, library.StatusCompleted)
	}

	completedMu.Lock()
	defer completedMu.Unlock()
	if len(completed) != 1 || completed[0] != videoID {
		t.Errorf("onComplete calls = %v, want exactly one for %s", completed, videoID)
	}
}

func TestTracker_StopCancelsPendingAdvances(t *testing.T) {
	repo := newFakeRepo()
	videoID := seedVideo(t, repo, "talk.mov")

	source := &ScheduleSource{
		Advances:   []time.Duration{0, 5 * time.Millisecond, time.Hour},
		CompleteAt: 2 * time.Hour,
	}

	tracker := NewTracker(videoID, repo, source, func(string) {
		t.Error("onComplete fired after Stop")
	}, testLogger())
	tracker.Start(context.Background())

	waitFor(t, 2*time.Second, func() bool { return tracker.Snapshot().Cursor >= 1 })
	tracker.Stop()

	snap := tracker.Snapshot()
	if snap.Done {
		t.Error("tracker done after Stop, want in-flight")
	}
	if got := repo.status(videoID); got != library.StatusProcessing {
		t.Errorf("video status = %s, want %s", got, library.StatusProcessing)
	}
}

func TestTracker_CursorNeverMovesBackward(t *testing.T) {
	repo := newFakeRepo()
	videoID := seedVideo(t, repo, "demo.webm")

	tracker := NewTracker(videoID, repo, fastSchedule(), nil, testLogger())
	tracker.advance(2)
	tracker.advance(1)

	if got := tracker.Snapshot().Cursor; got != 2 {
		t.Errorf("Cursor = %d after stale advance, want 2", got)
	}
}

func TestTracker_CompletionSurvivesPersistenceFailure(t *testing.T) {
	repo := newFakeRepo()
	videoID := seedVideo(t, repo, "webinar.mp4")
	repo.updateErr = errors.New("disk full")

	done := make(chan string, 1)
	tracker := NewTracker(videoID, repo, fastSchedule(), func(id string) { done <- id }, testLogger())
	tracker.Start(context.Background())
	defer tracker.Stop()

	select {
	case id := <-done:
		if id != videoID {
			t.Errorf("onComplete(%s), want %s", id, videoID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onComplete not called when persistence fails")
	}

	if !tracker.Snapshot().Done {
		t.Error("tracker not done after completion")
	}
}

func TestTracker_MissingVideoUsesPlaceholderName(t *testing.T) {
	repo := newFakeRepo()

	tracker := NewTracker("no-such-id", repo, fastSchedule(), nil, testLogger())
	tracker.Start(context.Background())
	defer tracker.Stop()

	if got := tracker.Snapshot().VideoName; got != "Your video" {
		t.Errorf("VideoName = %q, want placeholder", got)
	}
}

func TestService_BeginIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	videoID := seedVideo(t, repo, "keynote.mp4")

	svc := NewService(repo, func(string) Source { return fastSchedule() }, nil, testLogger())
	defer svc.StopAll()

	first := svc.Begin(context.Background(), videoID)
	second := svc.Begin(context.Background(), videoID)
	if first != second {
		t.Error("Begin() returned a new tracker for an already-tracked video")
	}

	got, ok := svc.Tracker(videoID)
	if !ok || got != first {
		t.Error("Tracker() did not return the registered tracker")
	}

	if _, ok := svc.Tracker("other"); ok {
		t.Error("Tracker() found a tracker for an unknown video")
	}
}

func TestScheduleSource_AdvancesInOrder(t *testing.T) {
	source := fastSchedule()

	var mu sync.Mutex
	var cursors []int
	completed := make(chan struct{})

	go source.Run(context.Background(), func(cursor int) {
		mu.Lock()
		cursors = append(cursors, cursor)
		mu.Unlock()
	}, func() { close(completed) })

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("schedule did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(cursors) != 5 {
		t.Fatalf("got %d advances, want 5", len(cursors))
	}
	for i, c := range cursors {
		if c != i {
			t.Errorf("advance %d delivered cursor %d, want %d", i, c, i)
		}
	}
}
