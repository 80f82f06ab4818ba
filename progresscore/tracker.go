// Package progresscore holds the progress policy for task nodes and the
// per-status statistics derived from a tree snapshot. It depends only on
// dashcore so the tree, the state engine and the renderer can share it.
package progresscore

import "github.com/joshyorko/swarmdash/dashcore"

// leafProgress is the progress of a non-terminal node without children.
var leafProgress = map[dashcore.TaskStatus]float64{
	dashcore.StatusIdle:     0.0,
	dashcore.StatusPending:  0.1,
	dashcore.StatusAssigned: 0.25,
	dashcore.StatusRunning:  0.6,
}

// Clamp limits p to [0, 1].
func Clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// LeafProgress returns the progress of a childless node. Terminal statuses
// are done; unknown statuses count as not started.
func LeafProgress(status dashcore.TaskStatus) float64 {
	if status.IsTerminal() {
		return 1.0
	}
	return Clamp(leafProgress[status])
}

// NodeProgress applies the aggregation policy: terminal nodes are done
// regardless of their children, parents take the unweighted mean of their
// children's computed progress, leaves use the lookup table.
func NodeProgress(status dashcore.TaskStatus, children []float64) float64 {
	if status.IsTerminal() {
		return 1.0
	}
	if len(children) == 0 {
		return LeafProgress(status)
	}
	return Clamp(Mean(children))
}

// Mean is the unweighted arithmetic mean; zero for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, value := range values {
		total += value
	}
	return total / float64(len(values))
}

// ProgressStats holds status counts over the nodes of a snapshot
type ProgressStats struct {
	Total     int
	Idle      int
	Pending   int
	Assigned  int
	Running   int
	Complete  int
	Failed    int
	Cancelled int
	Other     int
	Progress  float64 // root progress
}

// Count tallies one node.
func (s *ProgressStats) Count(status dashcore.TaskStatus) {
	s.Total++
	switch status {
	case dashcore.StatusIdle:
		s.Idle++
	case dashcore.StatusPending:
		s.Pending++
	case dashcore.StatusAssigned:
		s.Assigned++
	case dashcore.StatusRunning:
		s.Running++
	case dashcore.StatusComplete:
		s.Complete++
	case dashcore.StatusFailed:
		s.Failed++
	case dashcore.StatusCancelled:
		s.Cancelled++
	default:
		s.Other++
	}
}

// Active returns pending + assigned + running.
func (s ProgressStats) Active() int {
	return s.Pending + s.Assigned + s.Running
}

// Terminal returns complete + failed + cancelled.
func (s ProgressStats) Terminal() int {
	return s.Complete + s.Failed + s.Cancelled
}

// IsComplete returns true once every counted node is terminal
func (s ProgressStats) IsComplete() bool {
	return s.Total > 0 && s.Terminal() == s.Total
}

// HasFailed returns true if any node has failed or was cancelled
func (s ProgressStats) HasFailed() bool {
	return s.Failed+s.Cancelled > 0
}
