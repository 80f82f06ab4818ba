package pretty

import (
	"strings"
	"testing"

	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/tasktree"
)

// root
// ├─ a (complete)
// │  └─ a-sub-1 (running)
// └─ b (running)
//    └─ b-sub-1 (complete)
//       └─ b-sub-1-sub-1 (failed)
func mixedTree() tasktree.Snapshot {
	tree := tasktree.New()
	tree.UpdateStatus("a", dashcore.StatusComplete, tasktree.RootID, dashcore.RoleUnset)
	tree.UpdateStatus("b", dashcore.StatusRunning, tasktree.RootID, dashcore.RoleUnset)
	tree.UpdateStatus("a-sub-1", dashcore.StatusRunning, "a", dashcore.RoleWorker)
	tree.UpdateStatus("b-sub-1", dashcore.StatusComplete, "b", dashcore.RoleUnset)
	tree.UpdateStatus("b-sub-1-sub-1", dashcore.StatusFailed, "b-sub-1", dashcore.RoleWorker)
	return tree.Snapshot()
}

type expectedLine struct {
	prefix string
	id     string
	muted  bool
	hidden int
}

func checkLines(t *testing.T, got []GridLine, want []expectedLine) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %+v", len(want), len(got), got)
	}
	for at, line := range got {
		expect := want[at]
		if line.Prefix != expect.prefix || line.Node.ID != expect.id || line.Muted != expect.muted || line.Hidden != expect.hidden {
			t.Errorf("line %d: got {%q %q muted=%v hidden=%d}, want %+v", at, line.Prefix, line.Node.ID, line.Muted, line.Hidden, expect)
		}
	}
}

func TestBucketLinesInProgress(t *testing.T) {
	checkLines(t, BucketLines(mixedTree(), 3, BucketInProgress), []expectedLine{
		{prefix: "├─ ", id: "a", muted: true},
		{prefix: "│  └─ ", id: "a-sub-1"},
		{prefix: "└─ ", id: "b"},
	})
}

func TestBucketLinesCompleted(t *testing.T) {
	checkLines(t, BucketLines(mixedTree(), 3, BucketCompleted), []expectedLine{
		{prefix: "├─ ", id: "a"},
		{prefix: "└─ ", id: "b", muted: true},
		{prefix: "   └─ ", id: "b-sub-1"},
		{prefix: "      └─ ", id: "b-sub-1-sub-1"},
	})
}

func TestBucketLinesCollapseHiddenLevels(t *testing.T) {
	checkLines(t, BucketLines(mixedTree(), 1, BucketCompleted), []expectedLine{
		{prefix: "├─ ", id: "a"},
		{prefix: "└─ ", id: "b", muted: true},
		{prefix: "   └─ ", hidden: 2},
	})
	checkLines(t, BucketLines(mixedTree(), 1, BucketInProgress), []expectedLine{
		{prefix: "├─ ", id: "a", muted: true},
		{prefix: "│  └─ ", hidden: 1},
		{prefix: "└─ ", id: "b"},
	})
}

func TestBucketLinesNeverListRoot(t *testing.T) {
	if lines := BucketLines(tasktree.New().Snapshot(), 2, BucketInProgress); len(lines) != 0 {
		t.Errorf("a lone running root is not a bucket entry, got %+v", lines)
	}
	if lines := BucketLines(tasktree.Snapshot{}, 2, BucketInProgress); lines != nil {
		t.Errorf("empty snapshot should have no lines, got %+v", lines)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("feat-001"); got != "feat-001" {
		t.Errorf("short ids stay as they are, got %q", got)
	}
	long := "feat-" + strings.Repeat("x", 40) + "-sub-12"
	got := ShortID(long)
	if len(got) != 44 || !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "-sub-12") {
		t.Errorf("expected ... plus 41 tail characters, got %q (%d)", got, len(got))
	}
}

func TestMeterFill(t *testing.T) {
	tests := []struct {
		progress float64
		status   dashcore.TaskStatus
		fill     int
		failed   bool
	}{
		{0, dashcore.StatusPending, 0, false},
		{0.5, dashcore.StatusRunning, 2, false},
		{1, dashcore.StatusComplete, 4, false},
		{1.7, dashcore.StatusComplete, 4, false},
		{-0.3, dashcore.StatusIdle, 0, false},
		{0, dashcore.StatusFailed, 4, true},
		{0.2, dashcore.StatusCancelled, 4, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			fill, failed := MeterFill(tt.progress, tt.status)
			if fill != tt.fill || failed != tt.failed {
				t.Errorf("MeterFill(%v, %s) = %d,%v want %d,%v", tt.progress, tt.status, fill, failed, tt.fill, tt.failed)
			}
		})
	}
}

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		name                string
		total, offset, size int
		want                Window
	}{
		{"empty", 0, 5, 3, Window{}},
		{"clamped to end", 10, 20, 3, Window{Offset: 7, Start: 8, End: 10, Total: 10}},
		{"negative offset", 10, -4, 3, Window{Offset: 0, Start: 1, End: 3, Total: 10}},
		{"fits entirely", 2, 1, 5, Window{Offset: 0, Start: 1, End: 2, Total: 2}},
		{"middle", 10, 4, 3, Window{Offset: 4, Start: 5, End: 7, Total: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScrollWindow(tt.total, tt.offset, tt.size); got != tt.want {
				t.Errorf("ScrollWindow(%d, %d, %d) = %+v, want %+v", tt.total, tt.offset, tt.size, got, tt.want)
			}
		})
	}
	indicator := ScrollWindow(10, 20, 3).Indicator("w/s to scroll")
	if indicator != " 8-10/10 (w/s to scroll)" {
		t.Errorf("unexpected indicator %q", indicator)
	}
}

func TestPaneSizing(t *testing.T) {
	tests := []struct {
		lines, height, window int
	}{
		{28, 18, 15},
		{12, 10, 7},
		{0, 10, 7},
		{60, 50, 47},
	}
	for _, tt := range tests {
		height := PaneHeight(tt.lines)
		if height != tt.height || PaneWindow(height) != tt.window {
			t.Errorf("%d lines: got pane %d window %d, want %d/%d", tt.lines, height, PaneWindow(height), tt.height, tt.window)
		}
	}
	if PaneWindow(4) != 3 {
		t.Errorf("window never drops below 3, got %d", PaneWindow(4))
	}
}
