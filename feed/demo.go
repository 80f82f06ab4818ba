package feed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/joshyorko/swarmdash/dashboard"
)

var demoDescriptions = []string{
	"Implement chunk meshing system",
	"Add block face culling",
	"Create player controller",
	"Setup WebGL2 renderer",
	"Build terrain noise generator",
	"Add skybox shader",
	"Implement block placement",
	"Create inventory UI overlay",
	"Add ambient occlusion",
	"Build water flow simulation",
	"Setup collision detection",
	"Create world save/load",
	"Add fog distance shader",
	"Implement biome blending",
	"Build particle system",
	"Add block breaking animation",
	"Create crafting grid UI",
	"Implement greedy meshing",
	"Add texture atlas packer",
	"Build chunk LOD system",
	"Setup audio manager",
	"Create main menu screen",
	"Add day/night cycle",
	"Implement frustum culling",
	"Build entity component system",
}

// Demo synthesizes an orchestrator run: tasks spawn up to MaxAgents at a
// time, finish after a few seconds, merge, and get reported in periodic
// metrics until TotalFeatures tasks are done.
type Demo struct {
	MaxAgents     int
	TotalFeatures int
	Interval      time.Duration
	RampUp        time.Duration

	Random *rand.Rand
	Now    func() time.Time
	// Sleep waits for d; it returns false when ctx ends first.
	Sleep func(ctx context.Context, d time.Duration) bool
}

// NewDemo returns a generator on the wall clock.
func NewDemo(maxAgents, totalFeatures int) *Demo {
	seed := uint64(time.Now().UnixNano())
	return &Demo{
		MaxAgents:     maxAgents,
		TotalFeatures: totalFeatures,
		Interval:      250 * time.Millisecond,
		RampUp:        25 * time.Second,
		Random:        rand.New(rand.NewPCG(seed, seed>>1)),
		Now:           time.Now,
		Sleep:         sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type demoRun struct {
	*Demo
	queue *Queue

	started   time.Time
	spawned   int
	done      int
	failed    int
	merged    int
	conflicts int
	iteration int
	tokens    int64

	active   map[string]time.Time
	order    []string // active ids in spawn order
	created  []string
	children map[string]int
}

// Run emits events until every feature has finished or ctx ends, then
// closes the queue.
func (d *Demo) Run(ctx context.Context, queue *Queue) {
	defer queue.Close()

	run := &demoRun{
		Demo:     d,
		queue:    queue,
		started:  d.Now(),
		active:   make(map[string]time.Time),
		children: make(map[string]int),
	}
	for run.done+run.failed < d.TotalFeatures {
		run.tick()
		if !d.Sleep(ctx, d.Interval) {
			return
		}
	}
}

func (r *demoRun) emit(now time.Time, level, agentID, agentRole, message string, data dashboard.Payload) {
	r.queue.Push(dashboard.Event{
		Timestamp: now.UnixMilli(),
		Level:     level,
		AgentID:   agentID,
		AgentRole: agentRole,
		Message:   message,
		Data:      data,
	})
}

func (r *demoRun) tick() {
	now := r.Now()
	elapsed := now.Sub(r.started)

	r.finishTasks(now)
	r.spawnTasks(now, elapsed)

	if r.Random.Float64() < 0.35 {
		hours := max(elapsed.Hours(), 0.001)
		attempts := r.merged + r.conflicts
		rate := 0.0
		if attempts > 0 {
			rate = float64(r.merged) / float64(attempts)
		}
		r.emit(now, "info", "monitor", "root-planner", dashboard.MsgMetrics, dashboard.Payload{
			"timestamp":        now.UnixMilli(),
			"activeWorkers":    len(r.active),
			"pendingTasks":     max(0, r.spawned-r.done-r.failed-len(r.active)),
			"completedTasks":   r.done,
			"failedTasks":      r.failed,
			"commitsPerHour":   float64(r.done) / hours,
			"mergeSuccessRate": rate,
			"totalTokensUsed":  r.tokens,
			"totalCostUsd":     0,
		})
	}

	if r.done > 0 && r.done%15 == 0 && r.Random.Float64() < 0.4 {
		r.iteration++
		r.emit(now, "info", "main", "root-planner", dashboard.MsgIterationComplete, dashboard.Payload{
			"iteration":      r.iteration,
			"tasks":          8 + r.Random.IntN(13),
			"handoffs":       8 + r.Random.IntN(13),
			"activeWorkers":  len(r.active),
			"completedTasks": r.done,
		})
	}

	if r.Random.Float64() < 0.015 {
		buildOK := r.Random.Float64() < 0.85
		testsOK := r.Random.Float64() < 0.80
		r.emit(now, "info", "reconciler", "reconciler", dashboard.MsgSweepResults, dashboard.Payload{
			"buildOk": buildOK,
			"testsOk": testsOK,
		})
		if !(buildOK && testsOK) {
			r.emit(now, "info", "main", "root-planner", dashboard.MsgReconcilerFixes, dashboard.Payload{
				"count": 1 + r.Random.IntN(3),
			})
		}
	}
}

func (r *demoRun) finishTasks(now time.Time) {
	remaining := r.order[:0]
	for _, id := range r.order {
		duration := time.Duration((2.5 + r.Random.Float64()*7.5) * float64(time.Second))
		if now.Sub(r.active[id]) <= duration {
			remaining = append(remaining, id)
			continue
		}
		delete(r.active, id)

		ok := r.Random.Float64() < 0.92
		status := "failed"
		if ok {
			status = "complete"
			r.done++
		} else {
			r.failed++
		}
		r.tokens += int64(3000 + r.Random.IntN(15001))

		r.emit(now, "info", "main", "root-planner", dashboard.MsgTaskCompleted, dashboard.Payload{
			"taskId": id, "status": status,
		})
		r.emit(now, "info", "main", "root-planner", dashboard.MsgTaskStatus, dashboard.Payload{
			"taskId": id, "from": "running", "to": status,
		})
		if !ok {
			continue
		}
		branch := "worker/" + id
		if r.Random.Float64() < 0.94 {
			r.merged++
			r.emit(now, "info", "planner", "root-planner", dashboard.MsgMergeResult, dashboard.Payload{
				"branch": branch, "status": "merged", "success": true,
			})
		} else {
			r.conflicts++
			r.emit(now, "warn", "planner", "root-planner", dashboard.MsgMergeResult, dashboard.Payload{
				"branch": branch, "status": "conflict", "success": false,
			})
		}
	}
	r.order = remaining
}

func (r *demoRun) spawnTasks(now time.Time, elapsed time.Duration) {
	ramp := 1.0
	if r.RampUp > 0 {
		ramp = min(1.0, float64(elapsed)/float64(r.RampUp))
	}
	target := int(float64(max(1, r.MaxAgents)) * ramp)

	for len(r.active) < target && r.spawned < r.TotalFeatures {
		r.spawned++
		id, parent := r.nextTaskID()
		r.created = append(r.created, id)

		var parentID any
		if parent != "" {
			parentID = parent
		}
		r.emit(now, "info", "main", "root-planner", dashboard.MsgTaskCreated, dashboard.Payload{
			"taskId": id, "desc": demoDescriptions[r.Random.IntN(len(demoDescriptions))], "parentId": parentID,
		})
		r.emit(now, "info", "worker-pool", "root-planner", dashboard.MsgDispatching, dashboard.Payload{
			"taskId": id, "parentId": parentID,
		})
		r.emit(now, "info", "main", "root-planner", dashboard.MsgTaskStatus, dashboard.Payload{
			"taskId": id, "parentId": parentID, "from": "pending", "to": "running",
		})
		r.active[id] = now
		r.order = append(r.order, id)
	}
}

// nextTaskID either nests under an earlier task (at most two levels of
// "-sub-") or starts a new top-level agent.
func (r *demoRun) nextTaskID() (string, string) {
	var pool []string
	for _, id := range r.created {
		if strings.Count(id, "-sub-") < 2 {
			pool = append(pool, id)
		}
	}
	if len(pool) > 0 && r.Random.Float64() < 0.5 {
		parent := pool[r.Random.IntN(len(pool))]
		r.children[parent]++
		return fmt.Sprintf("%s-sub-%d", parent, r.children[parent]), parent
	}
	return fmt.Sprintf("agent-%03d", r.spawned), ""
}
