package dashboard

import (
	"fmt"

	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/logbuf"
	"github.com/joshyorko/swarmdash/tasktree"
)

// Messages with special handling.
const (
	MsgMetrics           = "Metrics"
	MsgTaskStatus        = "Task status"
	MsgTaskCreated       = "Task created"
	MsgTaskCompleted     = "Task completed"
	MsgDispatching       = "Dispatching task to ephemeral sandbox"
	MsgDecomposing       = "Calling LLM for task decomposition"
	MsgSubtaskRecursing  = "Subtask still complex — recursing"
	MsgSubtaskCompleted  = "Subtask completed by worker"
	MsgMergeResult       = "Merge result"
	MsgIterationComplete = "Iteration complete"
	MsgReconcilerFixes   = "Reconciler created fix tasks"
	MsgSweepResults      = "Sweep check results"
	MsgWorkerTimedOut    = "Worker timed out"
)

// Ingest folds one event into the state. It never fails: unknown messages
// are ignored and malformed fields count as absent.
func (s *State) Ingest(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingestLocked(event)
}

// IngestAll folds a batch under a single lock acquisition.
func (s *State) IngestAll(events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		s.ingestLocked(event)
	}
}

func (s *State) ingestLocked(event Event) {
	data := event.Data
	role := dashcore.RoleFromAgent(event.AgentRole)
	stamp := s.stampLocked(event)

	if taskID := firstOf(data.ID("taskId"), event.TaskID); taskID != "" {
		s.tree.Ensure(taskID, parentOf(data, taskID), role)
	}

	switch event.Message {
	case MsgMetrics:
		s.applyMetricsLocked(data)

	case MsgTaskStatus:
		taskID, to := data.ID("taskId"), data.Text("to")
		if taskID != "" && to != "" {
			s.tree.UpdateStatus(taskID, dashcore.TaskStatus(to), explicitParent(data), role)
		}

	case MsgTaskCreated:
		taskID := data.ID("taskId")
		if taskID != "" {
			s.tree.UpdateStatus(taskID, dashcore.StatusPending, explicitParent(data), role)
		}
		s.activity.Add(stamp, logbuf.LevelInfo, fmt.Sprintf("+ %s  %s", taskID, clip(data.Text("desc"), 52)))

	case MsgTaskCompleted:
		taskID, status := data.ID("taskId"), data.Text("status")
		final := outcome(status)
		if taskID != "" {
			s.tree.UpdateStatus(taskID, final, explicitParent(data), role)
		}
		level := logbuf.LevelSuccess
		if final != dashcore.StatusComplete {
			level = logbuf.LevelError
		}
		s.activity.Add(stamp, level, fmt.Sprintf("%s  %s", taskID, status))

	case MsgDispatching:
		if taskID := data.ID("taskId"); taskID != "" {
			s.tree.UpdateStatus(taskID, dashcore.StatusAssigned, explicitParent(data), role)
		}

	case MsgDecomposing:
		if planner := firstOf(data.ID("parentTaskId"), event.TaskID); planner != "" {
			grandparent, _ := tasktree.InferParentID(planner)
			s.tree.UpdateStatus(planner, dashcore.StatusRunning, grandparent, dashcore.RoleSubplanner)
		}

	case MsgSubtaskRecursing:
		if subtask := data.ID("subtaskId"); subtask != "" {
			s.tree.UpdateStatus(subtask, dashcore.StatusRunning, parentOf(data, subtask), dashcore.RoleSubplanner)
		}

	case MsgSubtaskCompleted:
		if subtask := data.ID("subtaskId"); subtask != "" {
			s.tree.UpdateStatus(subtask, outcome(data.Text("status")), parentOf(data, subtask), dashcore.RoleUnset)
		}

	case MsgMergeResult:
		branch := clip(data.Text("branch"), 30)
		switch data.Text("status") {
		case "merged":
			s.merges.Merged++
			s.activity.Add(stamp, logbuf.LevelSuccess, ">> merged  "+branch)
		case "conflict":
			s.merges.Conflicts++
			s.activity.Add(stamp, logbuf.LevelWarn, "!! conflict  "+branch)
		default:
			s.merges.Failed++
			s.activity.Add(stamp, logbuf.LevelError, "xx merge fail  "+branch)
		}

	case MsgIterationComplete:
		if iteration, ok := data.Int("iteration"); ok {
			s.iteration = int(iteration)
		}
		tasks, _ := data.Int("tasks")
		if workers, ok := data.Int("activeWorkers"); ok {
			s.metrics.ActiveWorkers = int(workers)
		}
		if completed, ok := data.Int("completedTasks"); ok {
			s.metrics.CompletedTasks = int(completed)
		}
		s.activity.Add(stamp, logbuf.LevelNotice, fmt.Sprintf("-- iteration %d  (%d tasks)", s.iteration, tasks))

	case MsgReconcilerFixes:
		count, _ := data.Int("count")
		s.activity.Add(stamp, logbuf.LevelWarn, fmt.Sprintf("reconciler  %d fix tasks", count))

	case MsgSweepResults:
		if data.Flag("buildOk") && data.Flag("testsOk") {
			s.activity.Add(stamp, logbuf.LevelSuccess, "sweep: all green")
		} else {
			s.activity.Add(stamp, logbuf.LevelError, "sweep: NEEDS FIX")
		}

	case MsgWorkerTimedOut:
		taskID := data.ID("taskId")
		if taskID != "" {
			s.tree.UpdateStatus(taskID, dashcore.StatusFailed, explicitParent(data), role)
		}
		s.activity.Add(stamp, logbuf.LevelCritical, "TIMEOUT  "+taskID)

	default:
		if event.Level == "error" {
			s.activity.Add(stamp, logbuf.LevelCritical, "ERR  "+clip(event.Message, 60))
		}
	}
}

func (s *State) applyMetricsLocked(data Payload) {
	if value, ok := data.Int("activeWorkers"); ok {
		s.metrics.ActiveWorkers = int(value)
	}
	if value, ok := data.Int("pendingTasks"); ok {
		s.metrics.PendingTasks = int(value)
	}
	if value, ok := data.Int("completedTasks"); ok {
		s.metrics.CompletedTasks = int(value)
	}
	if value, ok := data.Int("failedTasks"); ok {
		s.metrics.FailedTasks = int(value)
	}
	if value, ok := data.Float("commitsPerHour"); ok {
		s.metrics.CommitsPerHour = value
	}
	if value, ok := data.Float("mergeSuccessRate"); ok {
		s.metrics.MergeSuccessRate = value
	}
	if value, ok := data.Int("totalTokensUsed"); ok {
		s.metrics.TotalTokens = value
	}
}

// stampLocked formats the event time as wall clock, falling back to now.
func (s *State) stampLocked(event Event) string {
	when := event.Time()
	if when.IsZero() {
		when = s.config.Now()
	}
	return when.Format("15:04:05")
}

// explicitParent is the parent named by the event, if any.
func explicitParent(data Payload) string {
	return firstOf(data.ID("parentId"), data.ID("parentTaskId"))
}

// parentOf is the explicit parent, else the one the id's naming implies.
// Empty lets the tree fall back to the root.
func parentOf(data Payload, id string) string {
	if parent := explicitParent(data); parent != "" {
		return parent
	}
	parent, _ := tasktree.InferParentID(id)
	return parent
}

// outcome collapses a reported result into complete or failed.
func outcome(status string) dashcore.TaskStatus {
	if status == string(dashcore.StatusComplete) {
		return dashcore.StatusComplete
	}
	return dashcore.StatusFailed
}

func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// clip keeps at most limit runes of text.
func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
