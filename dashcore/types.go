// Package dashcore provides shared dashboard types used by the model, the
// state engine, the input mapper and the renderer.
// This package breaks import cycles by holding the enums they all need.
package dashcore

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// activeDashboard tracks if a dashboard currently owns the terminal.
// Loggers consult it to avoid scribbling over the frame.
var activeDashboard atomic.Int32

// IsDashboardActive returns true if any dashboard is currently rendering
func IsDashboardActive() bool {
	return activeDashboard.Load() > 0
}

// SetDashboardActive increments or decrements the active dashboard counter
func SetDashboardActive(active bool) {
	if active {
		activeDashboard.Add(1)
	} else {
		activeDashboard.Add(-1)
	}
}

// Iconic controls whether to use Unicode icons or ASCII fallback
var Iconic = true

// TaskStatus is the lifecycle state of a task node as reported by the
// event stream. Values are not validated; unknown strings are kept verbatim.
type TaskStatus string

const (
	StatusIdle      TaskStatus = "idle"
	StatusPending   TaskStatus = "pending"
	StatusAssigned  TaskStatus = "assigned"
	StatusRunning   TaskStatus = "running"
	StatusComplete  TaskStatus = "complete"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports complete, failed and cancelled.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports pending, assigned and running: the statuses that make
// up the active frontier of the tree.
func (s TaskStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusRunning:
		return true
	}
	return false
}

// Icon returns the visual representation of a task status
func (s TaskStatus) Icon() string {
	if Iconic {
		switch s {
		case StatusPending, StatusIdle:
			return "○"
		case StatusAssigned:
			return "◔"
		case StatusRunning:
			return "⠋"
		case StatusComplete:
			return "✓"
		case StatusFailed:
			return "✗"
		case StatusCancelled:
			return "⊘"
		default:
			return "?"
		}
	}

	switch s {
	case StatusPending, StatusIdle:
		return "o"
	case StatusAssigned:
		return ">"
	case StatusRunning:
		return "-"
	case StatusComplete:
		return "+"
	case StatusFailed:
		return "x"
	case StatusCancelled:
		return "/"
	default:
		return "?"
	}
}

// Role is the position a node plays in the planner hierarchy.
type Role string

const (
	RoleUnset       Role = ""
	RoleRootPlanner Role = "root-planner"
	RolePlanner     Role = "planner"
	RoleSubplanner  Role = "subplanner"
	RoleWorker      Role = "worker"
)

// RoleFromAgent maps an event's agentRole onto a node role. Only
// subplanner and worker are meaningful; everything else stays unset so
// the depth default applies.
func RoleFromAgent(agentRole string) Role {
	switch agentRole {
	case "subplanner":
		return RoleSubplanner
	case "worker":
		return RoleWorker
	default:
		return RoleUnset
	}
}

// DefaultRole is the role a node without an explicit one gets at depth.
func DefaultRole(depth int) Role {
	switch depth {
	case 0:
		return RoleRootPlanner
	case 1:
		return RolePlanner
	default:
		return RoleSubplanner
	}
}

// Label is the human form of the role.
func (r Role) Label() string {
	switch r {
	case RoleRootPlanner:
		return "root planner"
	case RoleUnset:
		return "unknown"
	default:
		return string(r)
	}
}

// Tab is the active right-hand view
type Tab int

const (
	TabGrid Tab = iota
	TabActivity
)

// Tabs lists the tab cycle order.
var Tabs = []Tab{TabGrid, TabActivity}

func (t Tab) String() string {
	switch t {
	case TabGrid:
		return "grid"
	case TabActivity:
		return "activity"
	default:
		return "unknown"
	}
}

// ParseTab accepts "grid" and "activity".
func ParseTab(name string) (Tab, bool) {
	for _, tab := range Tabs {
		if tab.String() == name {
			return tab, true
		}
	}
	return TabGrid, false
}

// Pane is one of the two independently scrolled tree panes on the grid tab.
type Pane int

const (
	PaneInProgress Pane = iota
	PaneCompleted
)

func (p Pane) String() string {
	switch p {
	case PaneInProgress:
		return "in-progress"
	case PaneCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// SetupDashboardSignals returns a context that is cancelled on Ctrl+C or
// termination, so the render loop unwinds and deferred terminal cleanup
// runs instead of the process dying mid-frame.
func SetupDashboardSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// RunTicker calls frame on every tick until ctx is done or frame returns
// false. The first frame runs immediately.
func RunTicker(ctx context.Context, interval time.Duration, frame func() bool) {
	if !frame() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !frame() {
				return
			}
		}
	}
}

// IntervalFor converts a refresh rate into a tick interval, at least 1 Hz.
func IntervalFor(hz int) time.Duration {
	if hz < 1 {
		hz = 1
	}
	return time.Second / time.Duration(hz)
}
