package pretty

import (
	"fmt"
	"math"

	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/tasktree"
)

const (
	maxIDWidth  = 44
	meterCells  = 4
	treeBranch  = "├─ "
	treeLast    = "└─ "
	treeContin  = "│  "
	treeSpacing = "   "
)

// Bucket selects which half of the tree a grid pane shows.
type Bucket int

const (
	BucketInProgress Bucket = iota
	BucketCompleted
)

func (b Bucket) matches(status dashcore.TaskStatus) bool {
	if b == BucketCompleted {
		return status.IsTerminal()
	}
	return !status.IsTerminal()
}

// GridLine is one row of a bucket pane. A line with Hidden > 0 stands for
// that many matching nodes below the visible levels.
type GridLine struct {
	Prefix string
	Node   tasktree.NodeView
	Muted  bool
	Hidden int
}

type bucketer struct {
	tree            tasktree.Snapshot
	bucket          Bucket
	maxVisibleDepth int
	memo            map[string]bool
	lines           []GridLine
}

// BucketLines lays out the part of the tree that belongs in bucket. A node
// is listed when it matches or has a matching descendant; ancestors listed
// only for their descendants are muted. Levels below visibleLevels collapse
// into a hidden count.
func BucketLines(tree tasktree.Snapshot, visibleLevels int, bucket Bucket) []GridLine {
	if _, ok := tree.Nodes[tree.Root]; !ok {
		return nil
	}
	it := &bucketer{
		tree:            tree,
		bucket:          bucket,
		maxVisibleDepth: max(0, visibleLevels-1),
		memo:            make(map[string]bool),
	}
	it.emit(tree.Root, 0, "")
	return it.lines
}

func (it *bucketer) has(id string) bool {
	if known, ok := it.memo[id]; ok {
		return known
	}
	node, ok := it.tree.Nodes[id]
	if !ok {
		return false
	}
	found := id != it.tree.Root && it.bucket.matches(node.Status)
	for _, child := range node.Children {
		if found {
			break
		}
		found = it.has(child)
	}
	it.memo[id] = found
	return found
}

func (it *bucketer) hidden(id string) int {
	count := 0
	for _, child := range it.tree.Nodes[id].Children {
		if it.has(child) {
			count += 1 + it.hidden(child)
		}
	}
	return count
}

func (it *bucketer) emit(parent string, depth int, prefix string) {
	visible := make([]string, 0, len(it.tree.Nodes[parent].Children))
	for _, child := range it.tree.Nodes[parent].Children {
		if it.has(child) {
			visible = append(visible, child)
		}
	}
	for at, id := range visible {
		node := it.tree.Nodes[id]
		connector, tail := treeBranch, treeContin
		if at == len(visible)-1 {
			connector, tail = treeLast, treeSpacing
		}
		it.lines = append(it.lines, GridLine{
			Prefix: prefix + connector,
			Node:   node,
			Muted:  !it.bucket.matches(node.Status),
		})
		if depth >= it.maxVisibleDepth {
			if hidden := it.hidden(id); hidden > 0 {
				it.lines = append(it.lines, GridLine{Prefix: prefix + tail + treeLast, Hidden: hidden})
			}
			continue
		}
		it.emit(id, depth+1, prefix+tail)
	}
}

// ShortID keeps the tail of long ids, which is where they differ.
func ShortID(id string) string {
	runes := []rune(id)
	if len(runes) <= maxIDWidth {
		return id
	}
	return "..." + string(runes[len(runes)-(maxIDWidth-3):])
}

// MeterFill is the number of lit cells of a node meter. Failed and
// cancelled nodes light every cell.
func MeterFill(progress float64, status dashcore.TaskStatus) (int, bool) {
	if status == dashcore.StatusFailed || status == dashcore.StatusCancelled {
		return meterCells, true
	}
	fill := int(math.Round(progress * meterCells))
	return min(meterCells, max(0, fill)), false
}

// Window is the visible part of a scrolled pane.
type Window struct {
	Offset int
	Start  int
	End    int
	Total  int
}

// ScrollWindow clamps offset so that size lines stay in view.
func ScrollWindow(total, offset, size int) Window {
	maxOffset := max(0, total-size)
	clamped := min(max(0, offset), maxOffset)
	window := Window{Offset: clamped, Total: total}
	if total > 0 {
		window.Start = clamped + 1
		window.End = min(total, clamped+size)
	}
	return window
}

// Indicator is the position line under a pane.
func (w Window) Indicator(hint string) string {
	return fmt.Sprintf(" %d-%d/%d (%s)", w.Start, w.End, w.Total, hint)
}

// PaneHeight is the outer height of a grid pane for a terminal of lines rows.
func PaneHeight(lines int) int {
	return max(10, lines-10)
}

// PaneWindow is how many tree lines fit in a pane, leaving room for the
// borders and the indicator.
func PaneWindow(paneHeight int) int {
	return max(3, paneHeight-3)
}
