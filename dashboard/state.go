// Package dashboard is the state engine behind the monitor: it folds the
// event stream into metrics, an activity feed and the task tree, and hands
// consistent snapshots to the render loop.
//
// All state sits behind one mutex. Exported methods take the lock; helpers
// named *Locked expect the caller to hold it.
package dashboard

import (
	"sync"
	"time"

	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/logbuf"
	"github.com/joshyorko/swarmdash/progresscore"
	"github.com/joshyorko/swarmdash/tasktree"
)

const (
	DefaultMaxAgents     = 100
	DefaultTotalFeatures = 200
	DefaultCostRate      = 0.001 // dollars per 1K tokens
	DefaultVisibleLevels = 2
)

// Config carries the engine's capacities and rates.
type Config struct {
	ActivityCapacity int
	MaxAgents        int
	TotalFeatures    int
	CostRate         float64
	VisibleLevels    int
	Now              func() time.Time
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		ActivityCapacity: logbuf.DefaultCapacity,
		MaxAgents:        DefaultMaxAgents,
		TotalFeatures:    DefaultTotalFeatures,
		CostRate:         DefaultCostRate,
		VisibleLevels:    DefaultVisibleLevels,
		Now:              time.Now,
	}
}

// Metrics mirrors the orchestrator's periodic metrics report.
type Metrics struct {
	ActiveWorkers    int
	PendingTasks     int
	CompletedTasks   int
	FailedTasks      int
	CommitsPerHour   float64
	MergeSuccessRate float64
	TotalTokens      int64
}

// MergeCounters counts merge results by outcome.
type MergeCounters struct {
	Merged    int
	Conflicts int
	Failed    int
}

func (m MergeCounters) Total() int {
	return m.Merged + m.Conflicts + m.Failed
}

// Cursor is the UI position the input mapper moves around.
type Cursor struct {
	Tab              dashcore.Tab
	InProgressScroll int
	CompletedScroll  int
	VisibleLevels    int
}

// State is the shared dashboard state.
type State struct {
	mu sync.Mutex

	config    Config
	started   time.Time
	metrics   Metrics
	merges    MergeCounters
	iteration int
	activity  *logbuf.Buffer
	tree      *tasktree.Tree
	cursor    Cursor
}

// New builds an empty state. Zero config fields take their defaults.
func New(config Config) *State {
	defaults := DefaultConfig()
	if config.ActivityCapacity < 1 {
		config.ActivityCapacity = defaults.ActivityCapacity
	}
	if config.MaxAgents < 1 {
		config.MaxAgents = defaults.MaxAgents
	}
	if config.TotalFeatures < 1 {
		config.TotalFeatures = defaults.TotalFeatures
	}
	if config.CostRate < 0 {
		config.CostRate = defaults.CostRate
	}
	if config.VisibleLevels < 1 {
		config.VisibleLevels = defaults.VisibleLevels
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	return &State{
		config:   config,
		started:  config.Now(),
		activity: logbuf.New(config.ActivityCapacity),
		tree:     tasktree.New(),
		cursor: Cursor{
			Tab:           dashcore.TabGrid,
			VisibleLevels: config.VisibleLevels,
		},
	}
}

// Snapshot is a consistent copy of everything the renderer needs. It shares
// nothing mutable with the State.
type Snapshot struct {
	Elapsed        time.Duration
	Metrics        Metrics
	Cost           float64
	MaxAgents      int
	TotalFeatures  int
	Merges         MergeCounters
	Iteration      int
	Activity       []logbuf.Entry
	Tree           tasktree.Snapshot
	ActiveMaxDepth int
	Stats          progresscore.ProgressStats
	Cursor
}

// LevelCap is the largest number of tree levels worth showing.
func (s Snapshot) LevelCap() int {
	return s.ActiveMaxDepth + 1
}

// Snapshot reads the whole state. As a side effect it clamps the visible
// level count to what the current tree can show, and keeps the clamp.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree := s.tree.Snapshot()
	activeMaxDepth := activeMaxDepth(tree)
	s.cursor.VisibleLevels = clampLevels(s.cursor.VisibleLevels, activeMaxDepth+1)

	stats := progresscore.ProgressStats{}
	for _, id := range tree.Order {
		stats.Count(tree.Nodes[id].Status)
	}
	if root, ok := tree.Node(tree.Root); ok {
		stats.Progress = root.Progress
	}

	return Snapshot{
		Elapsed:        s.config.Now().Sub(s.started),
		Metrics:        s.metrics,
		Cost:           float64(s.metrics.TotalTokens) / 1000.0 * s.config.CostRate,
		MaxAgents:      s.config.MaxAgents,
		TotalFeatures:  s.config.TotalFeatures,
		Merges:         s.merges,
		Iteration:      s.iteration,
		Activity:       s.activity.All(),
		Tree:           tree,
		ActiveMaxDepth: activeMaxDepth,
		Stats:          stats,
		Cursor:         s.cursor,
	}
}

// AdjustVisibleLevels zooms the tree in or out by delta levels, within
// [1, active max depth + 1].
func (s *State) AdjustVisibleLevels(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.VisibleLevels = clampLevels(s.cursor.VisibleLevels+delta, s.levelCapLocked())
}

// SwitchTab moves to the next (direction > 0) or previous tab, wrapping.
func (s *State) SwitchTab(direction int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := 0
	for i, tab := range dashcore.Tabs {
		if tab == s.cursor.Tab {
			at = i
		}
	}
	count := len(dashcore.Tabs)
	s.cursor.Tab = dashcore.Tabs[((at+direction)%count+count)%count]
}

// SetTab selects a tab; unknown tabs are ignored.
func (s *State) SetTab(tab dashcore.Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, known := range dashcore.Tabs {
		if known == tab {
			s.cursor.Tab = tab
		}
	}
}

// ActiveTab returns the selected tab.
func (s *State) ActiveTab() dashcore.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Tab
}

// AdjustScroll moves one grid pane's scroll offset; it never goes below 0.
// The upper bound depends on the rendered height and is applied there.
func (s *State) AdjustScroll(pane dashcore.Pane, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch pane {
	case dashcore.PaneInProgress:
		s.cursor.InProgressScroll = max(0, s.cursor.InProgressScroll+delta)
	case dashcore.PaneCompleted:
		s.cursor.CompletedScroll = max(0, s.cursor.CompletedScroll+delta)
	}
}

func (s *State) levelCapLocked() int {
	return activeMaxDepth(s.tree.Snapshot()) + 1
}

// activeMaxDepth is the deepest pending, assigned or running node; 0 when
// nothing is active.
func activeMaxDepth(tree tasktree.Snapshot) int {
	deepest := 0
	for _, view := range tree.Nodes {
		if view.Status.IsActive() && view.Depth > deepest {
			deepest = view.Depth
		}
	}
	return deepest
}

func clampLevels(levels, limit int) int {
	return max(1, min(levels, max(1, limit)))
}
