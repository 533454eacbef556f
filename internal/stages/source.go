package stages

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsepoint/pulsepoint-agent/internal/analysis"
)

// Source drives a tracker's cursor. Run blocks until completion or
// context cancellation; advance receives monotonically increasing cursor
// positions and complete fires at most once, after the final advance.
type Source interface {
	Run(ctx context.Context, advance func(cursor int), complete func())
}

// ScheduleSource advances the cursor on a fixed schedule of offsets from
// start. It stands in for backend status polling: the machine shape is
// identical, only the transition trigger differs.
type ScheduleSource struct {
	Advances   []time.Duration
	CompleteAt time.Duration
}

// DefaultSchedule matches the product's simulated processing timeline.
func DefaultSchedule() *ScheduleSource {
	return &ScheduleSource{
		Advances: []time.Duration{
			0,
			2000 * time.Millisecond,
			4500 * time.Millisecond,
			7000 * time.Millisecond,
			10000 * time.Millisecond,
		},
		CompleteAt: 12000 * time.Millisecond,
	}
}

func (s *ScheduleSource) Run(ctx context.Context, advance func(cursor int), complete func()) {
	start := time.Now()

	for i, offset := range s.Advances {
		if !sleepUntil(ctx, start.Add(offset)) {
			return
		}
		advance(i)
	}

	if !sleepUntil(ctx, start.Add(s.CompleteAt)) {
		return
	}
	complete()
}

// sleepUntil waits for the deadline, returning false if the context is
// cancelled first.
func sleepUntil(ctx context.Context, deadline time.Time) bool {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// PollSource drives the cursor from the analysis backend's reported
// progress instead of a fixed schedule.
type PollSource struct {
	Client   analysis.Client
	VideoID  string
	Interval time.Duration
	Logger   *slog.Logger
}

func (p *PollSource) Run(ctx context.Context, advance func(cursor int), complete func()) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stage, err := p.Client.StageIndex(ctx, p.VideoID)
			if err != nil {
				// Polling is best-effort; try again on the next tick.
				p.Logger.Warn("stage poll failed", "video_id", p.VideoID, "error", err)
				continue
			}

			advance(stage)
			if stage >= len(Definitions) {
				complete()
				return
			}
		}
	}
}
