// Package stages tracks a video's progress through the fixed processing
// steps. All per-stage statuses are derived from a single cursor: stages
// before it are complete, the one at it is active, the rest are pending.
package stages

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
)

// Definition is the immutable description of one processing stage.
type Definition struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Definitions is the fixed ordered stage list.
var Definitions = []Definition{
	{ID: "upload-complete", Label: "Upload complete", Description: "Your video is safely stored"},
	{ID: "analyze-audio", Label: "Analyzing audio", Description: "Detecting speech patterns and energy"},
	{ID: "find-moments", Label: "Finding moments", Description: "Identifying emotional peaks"},
	{ID: "generate-clips", Label: "Generating clips", Description: "Creating vertical versions"},
}

// View is one stage with its status derived from the cursor.
type View struct {
	Definition
	Status Status `json:"status"`
}

// StatusAt derives the status of stage i for a given cursor position.
func StatusAt(cursor, i int) Status {
	switch {
	case cursor > i:
		return StatusComplete
	case cursor == i:
		return StatusActive
	default:
		return StatusPending
	}
}

// Derive maps a cursor to the full stage view.
func Derive(cursor int) []View {
	views := make([]View, len(Definitions))
	for i, def := range Definitions {
		views[i] = View{Definition: def, Status: StatusAt(cursor, i)}
	}
	return views
}
