package tasktree

import (
	"cmp"
	"slices"

	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/progresscore"
)

// NodeView is the computed, read-only view of one node.
type NodeView struct {
	ID       string
	Depth    int
	Status   dashcore.TaskStatus
	Progress float64
	Children []string // sorted by discovery order
	Role     dashcore.Role
}

// Snapshot is an immutable view of the nodes reachable from the root.
type Snapshot struct {
	Root     string
	Nodes    map[string]NodeView
	Order    []string // breadth-first from the root
	MaxDepth int
}

// Node returns the view for id.
func (s Snapshot) Node(id string) (NodeView, bool) {
	view, ok := s.Nodes[id]
	return view, ok
}

// Snapshot computes depth, progress and effective role for every node
// reachable from the root. Nothing is cached between calls.
func (t *Tree) Snapshot() Snapshot {
	order, depth := t.breadthFirst()

	// Reverse breadth-first order visits every child before its parent.
	progress := make([]float64, len(t.nodes))
	scratch := make([]float64, 0, 8)
	for i := len(order) - 1; i >= 0; i-- {
		at := order[i]
		record := &t.nodes[at]
		scratch = scratch[:0]
		for _, child := range record.children {
			scratch = append(scratch, progress[child])
		}
		progress[at] = progresscore.NodeProgress(record.status, scratch)
	}

	snapshot := Snapshot{
		Root:  RootID,
		Nodes: make(map[string]NodeView, len(order)),
		Order: make([]string, 0, len(order)),
	}
	for _, at := range order {
		record := &t.nodes[at]
		nodeDepth := depth[at]

		children := slices.Clone(record.children)
		slices.SortStableFunc(children, func(a, b int32) int {
			return cmp.Compare(t.nodes[a].order, t.nodes[b].order)
		})
		childIDs := make([]string, len(children))
		for i, child := range children {
			childIDs[i] = t.nodes[child].id
		}

		role := record.role
		if role == dashcore.RoleUnset {
			role = dashcore.DefaultRole(nodeDepth)
		}

		snapshot.Nodes[record.id] = NodeView{
			ID:       record.id,
			Depth:    nodeDepth,
			Status:   record.status,
			Progress: progress[at],
			Children: childIDs,
			Role:     role,
		}
		snapshot.Order = append(snapshot.Order, record.id)
		snapshot.MaxDepth = max(snapshot.MaxDepth, nodeDepth)
	}
	return snapshot
}

// breadthFirst walks from the root and returns the visit order plus the
// depth of every visited index (-1 for unreachable nodes).
func (t *Tree) breadthFirst() ([]int32, []int) {
	depth := make([]int, len(t.nodes))
	for i := range depth {
		depth[i] = -1
	}
	root := t.index[RootID]
	depth[root] = 0
	order := make([]int32, 0, len(t.nodes))
	order = append(order, root)
	for head := 0; head < len(order); head++ {
		current := order[head]
		for _, child := range t.nodes[current].children {
			if depth[child] >= 0 {
				continue
			}
			depth[child] = depth[current] + 1
			order = append(order, child)
		}
	}
	return order, depth
}
