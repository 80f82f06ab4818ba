package pretty

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	teaprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/joshyorko/swarmdash/dashboard"
	"github.com/joshyorko/swarmdash/dashcore"
)

const (
	LeftWidth      = 30
	headerHeight   = 3
	footerHeight   = 3
	mergeHeight    = 9
	metricsKeys    = 13
	mergeKeys      = 11
	mergeBarWidth  = 20
	featureBarSize = 50
	minWidth       = 72
	minHeight      = 20
)

// Renderer turns snapshots into full-screen frames.
type Renderer struct {
	styles    Styles
	features  teaprogress.Model
	merges    teaprogress.Model
	leftWidth int
}

// NewRenderer lays frames out with a left column of leftWidth cells;
// anything below 1 means LeftWidth.
func NewRenderer(leftWidth int) *Renderer {
	if leftWidth < 1 {
		leftWidth = LeftWidth
	}
	theme := DefaultTheme()
	return &Renderer{
		leftWidth: leftWidth,
		styles:    NewStyles(theme),
		features: teaprogress.New(
			teaprogress.WithGradient(theme.Accent.Dark, theme.Success.Dark),
			teaprogress.WithWidth(featureBarSize),
			teaprogress.WithoutPercentage(),
		),
		merges: teaprogress.New(
			teaprogress.WithSolidFill(theme.Success.Dark),
			teaprogress.WithWidth(mergeBarWidth),
			teaprogress.WithoutPercentage(),
		),
	}
}

// LeftWidth is the width of the metrics column.
func (it *Renderer) LeftWidth() int {
	return it.leftWidth
}

// FrameWidth is the width a frame for a terminal of width cells is drawn
// at. Narrow terminals still get the minimum layout.
func (it *Renderer) FrameWidth(width int) int {
	return max(width, minWidth, it.leftWidth+minWidth-LeftWidth)
}

// Render draws one frame of width by height cells.
func (it *Renderer) Render(snapshot dashboard.Snapshot, width, height int) string {
	width = it.FrameWidth(width)
	height = max(height, minHeight)

	paneHeight := PaneHeight(height)
	bodyHeight := paneHeight + 2
	rightWidth := width - it.leftWidth

	left := lipgloss.JoinVertical(lipgloss.Left,
		it.metrics(snapshot, it.leftWidth, bodyHeight-mergeHeight),
		it.merge(snapshot, it.leftWidth, mergeHeight),
	)
	var right string
	if snapshot.Tab == dashcore.TabActivity {
		right = it.activity(snapshot, rightWidth, bodyHeight)
	} else {
		right = it.grid(snapshot, rightWidth, bodyHeight, paneHeight)
	}

	half := width / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		it.header(snapshot, width),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		lipgloss.JoinHorizontal(lipgloss.Top,
			it.footer(snapshot, half),
			it.controls(snapshot, width-half),
		),
	)
}

// box draws a bordered panel of exactly width by height cells, with an
// optional title set into the top border.
func (it *Renderer) box(border lipgloss.AdaptiveColor, title, body string, width, height int) string {
	inner := max(1, width-2)
	rows := max(1, height-2)
	content := max(1, inner-2)

	lines := strings.Split(body, "\n")
	if len(lines) > rows {
		lines = lines[:rows]
	}
	for at, line := range lines {
		lines[at] = ansi.Truncate(line, content, "")
	}
	rendered := it.styles.PanelStyle(border).
		Width(inner).
		Height(rows).
		Render(strings.Join(lines, "\n"))
	if title == "" {
		return rendered
	}
	framed := strings.Split(rendered, "\n")
	framed[0] = topBorder(border, title, width)
	return strings.Join(framed, "\n")
}

func topBorder(border lipgloss.AdaptiveColor, title string, width int) string {
	edges := lipgloss.RoundedBorder()
	edge := lipgloss.NewStyle().Foreground(border)
	label := " " + title + " "
	room := max(0, width-3)
	if lipgloss.Width(label) > room {
		label = ansi.Truncate(label, room, "")
	}
	fill := max(0, width-3-lipgloss.Width(label))
	return edge.Render(edges.TopLeft+edges.Top) + label + edge.Render(strings.Repeat(edges.Top, fill)+edges.TopRight)
}

func (it *Renderer) header(snapshot dashboard.Snapshot, width int) string {
	s := it.styles
	column := max(1, (width-4)/3)
	brand := s.Accent.Bold(true).Render("AGENTSWARM") + "  " + s.Muted.Render(FormatElapsed(snapshot.Elapsed))
	agents := s.Title.Render(strconv.Itoa(snapshot.Metrics.ActiveWorkers)) + s.Muted.Render(fmt.Sprintf("/%d agents", snapshot.MaxAgents))
	rate := s.Success.Bold(true).Render(GroupThousands(int64(math.Round(snapshot.Metrics.CommitsPerHour)))) + " " + s.Muted.Render("commits/hr")
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(column).Align(lipgloss.Left).Render(brand),
		lipgloss.NewStyle().Width(column).Align(lipgloss.Center).Render(agents),
		lipgloss.NewStyle().Width(width-4-2*column).Align(lipgloss.Right).Render(rate),
	)
	return it.box(s.Theme.Accent, "", row, width, headerHeight)
}

func keyValue(key, value string, keyWidth, width int, keyStyle lipgloss.Style) string {
	gap := max(1, width-keyWidth-lipgloss.Width(value))
	return keyStyle.Width(keyWidth).Render(key) + strings.Repeat(" ", gap) + value
}

func countStyle(n int, hot lipgloss.Style, cold lipgloss.Style) string {
	if n == 0 {
		return cold.Render("0")
	}
	return hot.Render(strconv.Itoa(n))
}

// MergeRateStyle colors a merge success rate: above 90% is healthy, above
// 70% is a warning.
func (s Styles) MergeRateStyle(rate float64) lipgloss.Style {
	switch {
	case rate > 0.9:
		return s.Success
	case rate > 0.7:
		return s.Warning
	default:
		return s.Error
	}
}

func (it *Renderer) metrics(snapshot dashboard.Snapshot, width, height int) string {
	s := it.styles
	metrics := snapshot.Metrics
	content := width - 4
	done := metrics.CompletedTasks
	percent := 0.0
	if snapshot.TotalFeatures > 0 {
		percent = float64(done) / float64(snapshot.TotalFeatures) * 100
	}
	rows := []string{
		keyValue("Iteration", s.Bright.Render(strconv.Itoa(snapshot.Iteration)), metricsKeys, content, s.Muted),
		keyValue("Commits/hr", s.Success.Render(GroupThousands(int64(math.Round(metrics.CommitsPerHour)))), metricsKeys, content, s.Muted),
		keyValue("Agents done", s.Success.Render(strconv.Itoa(done))+s.Muted.Render(fmt.Sprintf("/%d  %.0f%%", snapshot.TotalFeatures, percent)), metricsKeys, content, s.Muted),
		keyValue("Failed", countStyle(metrics.FailedTasks, s.Error, s.Dim), metricsKeys, content, s.Muted),
		keyValue("Pending", countStyle(metrics.PendingTasks, s.Warning, s.Dim), metricsKeys, content, s.Muted),
		keyValue("Merge rate", s.MergeRateStyle(metrics.MergeSuccessRate).Render(fmt.Sprintf("%.1f%%", metrics.MergeSuccessRate*100)), metricsKeys, content, s.Muted),
		keyValue("Tokens", s.Accent.Render(FormatTokens(metrics.TotalTokens)), metricsKeys, content, s.Muted),
		keyValue("Est. cost", s.Accent.Render(fmt.Sprintf("$%.2f", snapshot.Cost)), metricsKeys, content, s.Muted),
	}
	return it.box(s.Theme.Primary, s.Title.Render("METRICS"), strings.Join(rows, "\n"), width, height)
}

func (it *Renderer) merge(snapshot dashboard.Snapshot, width, height int) string {
	s := it.styles
	content := width - 4
	rate, percent := 0.0, " -- "
	if snapshot.Merges.Total() > 0 {
		rate = snapshot.Metrics.MergeSuccessRate
		percent = fmt.Sprintf("%.0f%%", rate*100)
	}
	it.merges.Width = min(mergeBarWidth, max(4, content-mergeKeys-6))
	rows := []string{
		keyValue("Success", it.merges.ViewAs(rate)+" "+percent, mergeKeys, content, s.Muted),
		keyValue("Merged", s.Success.Render(strconv.Itoa(snapshot.Merges.Merged)), mergeKeys, content, s.Muted),
		keyValue("Conflicts", countStyle(snapshot.Merges.Conflicts, s.Warning, s.Dim), mergeKeys, content, s.Muted),
		keyValue("Failed", countStyle(snapshot.Merges.Failed, s.Error, s.Dim), mergeKeys, content, s.Muted),
	}
	return it.box(s.Theme.Secondary, s.Title.Render("MERGE QUEUE"), strings.Join(rows, "\n"), width, height)
}

func (it *Renderer) tabsTitle(active dashcore.Tab) string {
	parts := make([]string, 0, len(dashcore.Tabs))
	for _, tab := range dashcore.Tabs {
		name := "Agent Grid"
		if tab == dashcore.TabActivity {
			name = "Activity"
		}
		if tab == active {
			parts = append(parts, it.styles.TabActive.Render(name))
		} else {
			parts = append(parts, it.styles.TabInactive.Render(name))
		}
	}
	return strings.Join(parts, " ")
}

func (it *Renderer) grid(snapshot dashboard.Snapshot, width, height, paneHeight int) string {
	s := it.styles
	title := it.tabsTitle(snapshot.Tab)
	if _, ok := snapshot.Tree.Node(snapshot.Tree.Root); !ok {
		return it.box(s.Theme.Warning, title, s.Dim.Render("waiting for planner events ..."), width, height)
	}

	inner := width - 4
	leftPane := inner / 2
	window := PaneWindow(paneHeight)
	progressPane := it.pane(
		BucketLines(snapshot.Tree, snapshot.VisibleLevels, BucketInProgress),
		snapshot.InProgressScroll, "w/s to scroll", window)
	completedPane := it.pane(
		BucketLines(snapshot.Tree, snapshot.VisibleLevels, BucketCompleted),
		snapshot.CompletedScroll, "e/d to scroll", window)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		it.box(s.Theme.Warning, s.Title.Render("In Progress"), progressPane, leftPane, paneHeight),
		it.box(s.Theme.Success, s.Title.Render("Completed"), completedPane, inner-leftPane, paneHeight),
	)
	return it.box(s.Theme.Warning, title, panes, width, height)
}

func (it *Renderer) pane(lines []GridLine, offset int, hint string, size int) string {
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, it.gridLine(line))
	}
	if len(rendered) == 0 {
		rendered = append(rendered, it.styles.Dim.Render("none"))
	}
	window := ScrollWindow(len(rendered), offset, size)
	out := make([]string, size, size+1)
	copy(out, rendered[window.Offset:min(len(rendered), window.Offset+size)])
	out = append(out, it.styles.Dim.Render(window.Indicator(hint)))
	return strings.Join(out, "\n")
}

func (it *Renderer) gridLine(line GridLine) string {
	s := it.styles
	prefix := s.Connector.Render(line.Prefix)
	if line.Hidden > 0 {
		return prefix + s.Dim.Render(fmt.Sprintf("... %d hidden", line.Hidden))
	}
	node := line.Node
	id, role, status := s.Title, s.Muted, s.Status(node.Status)
	if line.Muted {
		id, role, status = s.Dim, s.Dim, s.Dim
	}
	return prefix + it.meter(node.Progress, node.Status, line.Muted) + " " +
		id.Render(ShortID(node.ID)) + " " +
		role.Render("("+node.Role.Label()+")") + " " +
		status.Render(string(node.Status)) + " " +
		s.Dim.Render(fmt.Sprintf("%d%%", int(node.Progress*100)))
}

func (it *Renderer) meter(progress float64, status dashcore.TaskStatus, muted bool) string {
	full, empty := "■", "□"
	if !Iconic {
		full, empty = "#", "."
	}
	fill, failed := MeterFill(progress, status)
	lit := it.styles.MeterFilled
	switch {
	case failed:
		lit = it.styles.Error
	case muted:
		lit = it.styles.Dim
	}
	return lit.Render(strings.Repeat(full, fill)) + it.styles.MeterEmpty.Render(strings.Repeat(empty, meterCells-fill))
}

func (it *Renderer) activity(snapshot dashboard.Snapshot, width, height int) string {
	s := it.styles
	rows := make([]string, 0, len(snapshot.Activity))
	for _, entry := range snapshot.Activity {
		rows = append(rows, " "+s.Dim.Render(entry.Stamp)+"  "+s.Level(entry.Level).Render(entry.Level.Icon()+" "+entry.Message))
	}
	if len(rows) == 0 {
		rows = append(rows, s.Dim.Italic(true).Render("  waiting for events ..."))
	}
	return it.box(s.Theme.Success, it.tabsTitle(snapshot.Tab), strings.Join(rows, "\n"), width, height)
}

func (it *Renderer) footer(snapshot dashboard.Snapshot, width int) string {
	s := it.styles
	done, total := snapshot.Metrics.CompletedTasks, snapshot.TotalFeatures
	ratio := 0.0
	if total > 0 {
		ratio = float64(done) / float64(total)
	}
	it.features.Width = min(featureBarSize, max(8, width-4-30))
	row := "  " + s.Title.Render("FEATURES") + "  " + it.features.ViewAs(ratio) + "  " +
		s.Bright.Render(strconv.Itoa(done)) + s.Muted.Render(fmt.Sprintf("/%d", total)) + "  " +
		s.Accent.Render(fmt.Sprintf("%.0f%%", ratio*100))
	return it.box(s.Theme.Accent, "", row, width, footerHeight)
}

func (it *Renderer) controls(snapshot dashboard.Snapshot, width int) string {
	s := it.styles
	separator := s.Dim.Render(" | ")
	row := s.Title.Render(fmt.Sprintf("Showing levels %d/%d of agents", snapshot.VisibleLevels, snapshot.LevelCap())) +
		separator + s.Title.Render("+/- zoom levels") +
		separator + s.Title.Render("tab="+snapshot.Tab.String())
	return it.box(s.Theme.Accent, s.Title.Render("CONTROLS"), row, width, footerHeight)
}

// FormatElapsed renders d as HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	total := int64(max(0, d/time.Second))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// FormatTokens abbreviates token counts with K and M suffixes.
func FormatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// GroupThousands formats n with comma separators.
func GroupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}
	var builder strings.Builder
	for at, digit := range digits {
		if at > 0 && (len(digits)-at)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return sign + builder.String()
}
