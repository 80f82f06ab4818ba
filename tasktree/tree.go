// Package tasktree models the planner/task hierarchy discovered from the
// event stream. Nodes are stored in an arena indexed by int32, with a string
// intern table, and linked by explicit parent and child indices.
//
// The tree is an observational mirror: it never rejects a node, a parent or
// a status. Status transitions are not validated and parent cycles are not
// detected; producers are trusted. A Tree is not safe for concurrent use;
// the dashboard state engine serializes access.
package tasktree

import (
	"strings"

	"github.com/joshyorko/swarmdash/dashcore"
)

// RootID is the well-known id of the root planner.
const RootID = "root-planner"

const noParent int32 = -1

// subMarker separates a parent id from a child counter: "<parent>-sub-<n>".
const subMarker = "-sub-"

type node struct {
	id       string
	parent   int32
	children []int32
	status   dashcore.TaskStatus
	role     dashcore.Role
	order    int
}

// Tree is an incrementally built task hierarchy rooted at RootID.
type Tree struct {
	nodes   []node
	index   map[string]int32
	counter int
}

// New returns a tree holding only the running root planner.
func New() *Tree {
	tree := &Tree{
		index: make(map[string]int32),
	}
	tree.nodes = append(tree.nodes, node{
		id:     RootID,
		parent: noParent,
		status: dashcore.StatusRunning,
		role:   dashcore.RoleRootPlanner,
		order:  0,
	})
	tree.index[RootID] = 0
	tree.counter = 1
	return tree
}

// InferParentID derives the probable parent of an id following the
// "<parent>-sub-<n>" naming convention. The last marker wins, so
// "a-sub-1-sub-2" yields "a-sub-1".
func InferParentID(id string) (string, bool) {
	at := strings.LastIndex(id, subMarker)
	if at <= 0 {
		return "", false
	}
	suffix := id[at+len(subMarker):]
	if len(suffix) == 0 {
		return "", false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id[:at], true
}

func inferOrRoot(id string) string {
	if parent, ok := InferParentID(id); ok {
		return parent
	}
	return RootID
}

// Ensure upserts a node. An empty parentID resolves to the parent the id's
// naming implies, else the root. A resolved parent that differs from the
// current one moves the node, so an event without a parent can pull a node
// back under its inferred parent. Unknown parents are created on the way,
// so every node has a path to the root. A non-empty role overwrites the
// node's role; status is never touched. Empty ids are ignored.
func (t *Tree) Ensure(id, parentID string, role dashcore.Role) {
	t.ensure(id, parentID, role)
}

func (t *Tree) ensure(id, parentID string, role dashcore.Role) int32 {
	if id == "" {
		return noParent
	}
	if id == RootID {
		parentID = ""
	} else if parentID == "" {
		parentID = inferOrRoot(id)
	}

	at, known := t.index[id]
	if !known {
		at = int32(len(t.nodes))
		t.nodes = append(t.nodes, node{
			id:     id,
			parent: noParent,
			status: dashcore.StatusPending,
			role:   role,
			order:  t.counter,
		})
		t.index[id] = at
		t.counter++
		if parentID != "" {
			t.link(at, t.ensureParent(parentID))
		}
		return at
	}

	if role != dashcore.RoleUnset {
		t.nodes[at].role = role
	}
	if parentID != "" {
		if parent := t.ensureParent(parentID); t.nodes[at].parent != parent {
			t.link(at, parent)
		}
	}
	return at
}

// ensureParent resolves a parent id to its index, creating it (under its
// own inferred parent) when unknown.
func (t *Tree) ensureParent(parentID string) int32 {
	if at, ok := t.index[parentID]; ok {
		return at
	}
	return t.ensure(parentID, "", dashcore.RoleUnset)
}

// link moves child under parent, detaching it from its old parent's list.
func (t *Tree) link(child, parent int32) {
	if old := t.nodes[child].parent; old != noParent {
		siblings := t.nodes[old].children
		for i, sibling := range siblings {
			if sibling == child {
				t.nodes[old].children = append(siblings[:i:i], siblings[i+1:]...)
				break
			}
		}
	}
	t.nodes[child].parent = parent
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// UpdateStatus ensures the node, then overwrites its status. Any status
// may replace any other, including terminal ones.
func (t *Tree) UpdateStatus(id string, status dashcore.TaskStatus, parentID string, role dashcore.Role) {
	at := t.ensure(id, parentID, role)
	if at == noParent {
		return
	}
	t.nodes[at].status = status
}

// Len returns the number of known nodes, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NodeInfo is the raw, uncomputed record of a node.
type NodeInfo struct {
	ID       string
	Parent   string
	Children []string
	Status   dashcore.TaskStatus
	Role     dashcore.Role
	Order    int
}

// Lookup returns the raw record for id. Children are in link order.
func (t *Tree) Lookup(id string) (NodeInfo, bool) {
	at, ok := t.index[id]
	if !ok {
		return NodeInfo{}, false
	}
	record := t.nodes[at]
	info := NodeInfo{
		ID:       record.id,
		Status:   record.status,
		Role:     record.role,
		Order:    record.order,
		Children: make([]string, 0, len(record.children)),
	}
	if record.parent != noParent {
		info.Parent = t.nodes[record.parent].id
	}
	for _, child := range record.children {
		info.Children = append(info.Children, t.nodes[child].id)
	}
	return info, true
}
