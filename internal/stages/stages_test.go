package stages

import (
	"testing"
)

func TestStatusAt(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		stage  int
		want   Status
	}{
		{"first stage active at start", 0, 0, StatusActive},
		{"later stage pending at start", 0, 2, StatusPending},
		{"earlier stage complete", 2, 0, StatusComplete},
		{"stage at cursor active", 2, 2, StatusActive},
		{"stage past cursor pending", 2, 3, StatusPending},
		{"all complete past end", 4, 3, StatusComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusAt(tt.cursor, tt.stage); got != tt.want {
				t.Errorf("StatusAt(%d, %d) = %v, want %v", tt.cursor, tt.stage, got, tt.want)
			}
		})
	}
}

func TestDerive_EveryCursor(t *testing.T) {
	for cursor := 0; cursor <= len(Definitions); cursor++ {
		views := Derive(cursor)
		if len(views) != len(Definitions) {
			t.Fatalf("Derive(%d) returned %d views, want %d", cursor, len(views), len(Definitions))
		}

		active := 0
		for i, view := range views {
			if view.ID != Definitions[i].ID {
				t.Errorf("Derive(%d)[%d].ID = %s, want %s", cursor, i, view.ID, Definitions[i].ID)
			}
			switch view.Status {
			case StatusActive:
				active++
				if i != cursor {
					t.Errorf("Derive(%d): stage %d active, want stage %d", cursor, i, cursor)
				}
			case StatusComplete:
				if i >= cursor {
					t.Errorf("Derive(%d): stage %d complete, want pending or active", cursor, i)
				}
			case StatusPending:
				if i < cursor {
					t.Errorf("Derive(%d): stage %d pending, want complete", cursor, i)
				}
			}
		}

		wantActive := 1
		if cursor >= len(Definitions) {
			wantActive = 0
		}
		if active != wantActive {
			t.Errorf("Derive(%d): %d active stages, want %d", cursor, active, wantActive)
		}
	}
}

func TestDefinitions_StableOrder(t *testing.T) {
	wantIDs := []string{"upload-complete", "analyze-audio", "find-moments", "generate-clips"}
	if len(Definitions) != len(wantIDs) {
		t.Fatalf("len(Definitions) = %d, want %d", len(Definitions), len(wantIDs))
	}
	for i, id := range wantIDs {
		if Definitions[i].ID != id {
			t.Errorf("Definitions[%d].ID = %s, want %s", i, Definitions[i].ID, id)
		}
	}
}
