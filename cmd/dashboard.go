package cmd

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/dashboard"
	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/feed"
	"github.com/joshyorko/swarmdash/interactive"
	"github.com/joshyorko/swarmdash/keyinput"
	"github.com/joshyorko/swarmdash/pretty"
	"github.com/joshyorko/swarmdash/settings"
)

var (
	demoFlag  bool
	stdinFlag bool
)

// producer feeds the queue and closes it when done.
type producer struct {
	name string
	run  func(ctx context.Context, queue *feed.Queue)
	stop func()
	once sync.Once
}

// halt stops the producer; only the first call does anything.
func (it *producer) halt() {
	it.once.Do(it.stop)
}

func pickProducer(config *settings.Settings, demo, stdin bool, input io.Reader) (*producer, error) {
	switch {
	case demo:
		generator := feed.NewDemo(config.Agents, config.Features)
		return &producer{name: "demo", run: generator.Run, stop: func() {}}, nil
	case stdin:
		return &producer{
			name: "stdin",
			run: func(_ context.Context, queue *feed.Queue) {
				feed.ReadStream(input, queue)
			},
			stop: func() {},
		}, nil
	}
	process, err := feed.NewSubprocess(config.Command, config.Workdir)
	if err != nil {
		return nil, err
	}
	return &producer{
		name: config.Command,
		run: func(ctx context.Context, queue *feed.Queue) {
			process.Run(ctx, queue)
		},
		stop: func() {
			if err := process.Stop(); err != nil {
				common.Uncritical("stop orchestrator", err)
			}
		},
	}, nil
}

func runDashboard(cmd *cobra.Command, args []string) {
	pretty.Setup()
	config, err := loadSettings()
	pretty.Guard(err == nil, 2, "%v", err)
	pretty.Guard(!(demoFlag && stdinFlag), 2, "Use either --demo or --stdin, not both.")

	source, err := pickProducer(config, demoFlag, stdinFlag, os.Stdin)
	pretty.Guard(err == nil, 3, "%v", err)
	common.Debug("dashboard fed by %s", source.name)

	ctx, cancel := dashcore.SetupDashboardSignals(cmd.Context())
	defer cancel()

	state := dashboard.New(config.DashboardConfig())
	queue := feed.NewQueue()
	app := interactive.NewApp(state, queue, config.AppOptions())

	go source.run(ctx, queue)
	defer source.halt()

	restore := func() {}
	if pretty.Interactive || (stdinFlag && pretty.ScreenOutput) {
		restore = takeScreen(app, config, !stdinFlag)
	}
	defer restore()

	app.Run(ctx)
	cancel()
	source.halt()
	restore()

	if err := pretty.PrintSummary(os.Stdout, state.Snapshot()); err != nil {
		common.Uncritical("summary", err)
	}
}

// takeScreen hands stdout (and stdin, when keyboard is set) to the
// dashboard. The returned function gives them back; it is safe to call
// more than once and must be deferred.
func takeScreen(app *interactive.App, config *settings.Settings, keyboard bool) func() {
	var terminal *keyinput.Terminal
	if keyboard {
		var err error
		terminal, err = keyinput.OpenTerminal(os.Stdin, os.Stdout)
		if err != nil {
			common.Log("keyboard disabled: %v", err)
		} else {
			app.Input = keyinput.NewDecoder(terminal.Source(), config.EscapeTimeout, config.EscapePoll)
		}
	}

	var logSink *os.File
	if config.LogFile != "" {
		sink, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			common.Log("cannot open log file %q: %v", config.LogFile, err)
		} else {
			logSink = sink
		}
	}
	if logSink != nil {
		common.RedirectLogs(logSink)
	} else {
		common.RedirectLogs(nil)
	}

	app.Screen = pretty.NewScreen(os.Stdout)
	if err := app.Screen.Enter(); err != nil {
		common.Uncritical("enter alternate screen", err)
	}
	dashcore.SetDashboardActive(true)

	var once sync.Once
	return func() {
		once.Do(func() { giveBack(app, terminal, logSink) })
	}
}

func giveBack(app *interactive.App, terminal *keyinput.Terminal, logSink *os.File) {
	dashcore.SetDashboardActive(false)
	if err := app.Screen.Leave(); err != nil {
		common.Uncritical("leave alternate screen", err)
	}
	if terminal != nil {
		if err := terminal.Restore(); err != nil {
			common.Uncritical("restore terminal", err)
		}
	}
	common.ClearLogInterceptor()
	if logSink != nil {
		logSink.Close()
	}
}
