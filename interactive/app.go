package interactive

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/dashboard"
	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/feed"
	"github.com/joshyorko/swarmdash/keyinput"
	"github.com/joshyorko/swarmdash/pretty"
)

const (
	DefaultBatchSize  = 200
	DefaultScrollStep = 2
	DefaultHz         = 2
)

// Options tune the render loop.
type Options struct {
	Hz         int
	BatchSize  int
	ScrollStep int
	LeftWidth  int
	Linger     bool
}

func (it Options) withDefaults() Options {
	if it.Hz < 1 {
		it.Hz = DefaultHz
	}
	if it.BatchSize < 1 {
		it.BatchSize = DefaultBatchSize
	}
	if it.ScrollStep < 1 {
		it.ScrollStep = DefaultScrollStep
	}
	if it.LeftWidth < 1 {
		it.LeftWidth = pretty.LeftWidth
	}
	return it
}

// App is the render loop. It is the only consumer of the event queue and
// the only goroutine touching the dashboard state.
type App struct {
	State    *dashboard.State
	Queue    *feed.Queue
	Input    *keyinput.Decoder
	Screen   *pretty.Screen
	Renderer *pretty.Renderer
	Keys     KeyMap
	Size     func() (int, int)
	Options  Options

	ended  bool
	quit   bool
	frames int
}

// NewApp wires a loop with no input and no screen; callers attach those
// when stdin and stdout are a terminal.
func NewApp(state *dashboard.State, queue *feed.Queue, options Options) *App {
	options = options.withDefaults()
	return &App{
		State:    state,
		Queue:    queue,
		Renderer: pretty.NewRenderer(options.LeftWidth),
		Keys:     DefaultKeyMap(),
		Size: func() (int, int) {
			return pretty.TerminalSize(os.Stdout.Fd())
		},
		Options: options,
	}
}

// Run ticks at the configured rate until ctx ends, the user quits or the
// stream is over.
func (it *App) Run(ctx context.Context) {
	common.Debug("render loop at %d Hz, batch %d", it.Options.Hz, it.Options.BatchSize)
	dashcore.RunTicker(ctx, dashcore.IntervalFor(it.Options.Hz), it.Tick)
	common.Debug("render loop done after %d frames (stream ended: %v, quit: %v)", it.frames, it.ended, it.quit)
}

// Tick runs one frame: input, then at most one batch of events, then a
// redraw. It reports whether the loop should go on.
func (it *App) Tick() bool {
	it.readInput()
	if it.quit {
		return false
	}

	if !it.ended {
		batch, ended := it.Queue.Drain(it.Options.BatchSize)
		if len(batch) > 0 {
			it.State.IngestAll(batch)
		}
		if ended {
			common.Debug("event stream ended")
			it.ended = true
		}
	}

	it.draw()
	it.frames++
	return !it.ended || it.Options.Linger
}

// StreamEnded reports whether the end of the event stream was consumed.
func (it *App) StreamEnded() bool {
	return it.ended
}

// Quit reports whether the user asked to leave.
func (it *App) Quit() bool {
	return it.quit
}

func (it *App) readInput() {
	if it.Input == nil {
		return
	}
	it.Input.Drain(it.Handle)
	if err := it.Input.Err(); err != nil {
		common.Debug("keyboard input closed: %v", err)
		it.Input = nil
	}
}

func (it *App) draw() {
	if it.Screen == nil {
		return
	}
	width, height := it.Size()
	frame := it.Renderer.Render(it.State.Snapshot(), width, height)
	if err := it.Screen.Draw(frame); err != nil {
		common.Trace("draw failed: %v", err)
	}
}

// Handle applies one decoded input message.
func (it *App) Handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		it.apply(it.Keys.Command(msg))
	case tea.MouseMsg:
		mouse, direction, ok := keyinput.IsWheel(msg)
		if !ok || it.State.ActiveTab() != dashcore.TabGrid {
			return
		}
		width, _ := it.Size()
		width = it.Renderer.FrameWidth(width)
		if pane, ok := PaneAt(mouse.X, width, it.Renderer.LeftWidth()); ok {
			it.State.AdjustScroll(pane, direction*it.Options.ScrollStep)
		}
	}
}

func (it *App) apply(command Command) {
	step := it.Options.ScrollStep
	switch command {
	case CommandQuit:
		it.quit = true
	case CommandZoomIn:
		it.State.AdjustVisibleLevels(1)
	case CommandZoomOut:
		it.State.AdjustVisibleLevels(-1)
	case CommandNextTab:
		it.State.SwitchTab(1)
	case CommandPrevTab:
		it.State.SwitchTab(-1)
	case CommandGridTab:
		it.State.SetTab(dashcore.TabGrid)
	case CommandActivityTab:
		it.State.SetTab(dashcore.TabActivity)
	case CommandInProgressUp:
		it.scroll(dashcore.PaneInProgress, -step)
	case CommandInProgressDown:
		it.scroll(dashcore.PaneInProgress, step)
	case CommandCompletedUp:
		it.scroll(dashcore.PaneCompleted, -step)
	case CommandCompletedDown:
		it.scroll(dashcore.PaneCompleted, step)
	}
}

func (it *App) scroll(pane dashcore.Pane, delta int) {
	if it.State.ActiveTab() == dashcore.TabGrid {
		it.State.AdjustScroll(pane, delta)
	}
}

// PaneAt maps a mouse column onto a grid pane, for a frame width cells
// wide. Columns left of the right panel's content belong to no pane; the
// rest splits where the grid puts the completed box.
func PaneAt(x, width, leftWidth int) (dashcore.Pane, bool) {
	rightStart := leftWidth + 2
	if x < rightStart {
		return dashcore.PaneInProgress, false
	}
	split := rightStart + max(0, width-leftWidth-4)/2
	if x < split {
		return dashcore.PaneInProgress, true
	}
	return dashcore.PaneCompleted, true
}
