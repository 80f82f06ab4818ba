package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/interactive"
	"github.com/joshyorko/swarmdash/settings"
)

var (
	vip = settings.NewViper()

	configFile string
	debugFlag  bool
	traceFlag  bool
	silentFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "swarmdash",
	Short: "Live terminal dashboard for an agent swarm orchestrator.",
	Long: fmt.Sprintf(`Live terminal dashboard for an agent swarm orchestrator.

Events are read as NDJSON from the orchestrator's stdout (default), from
stdin (--stdin) or generated by a built-in simulation (--demo). Settings
come from flags, %s_* environment variables and an optional %s.yaml.

Keys:
%s`, common.EnvPrefix, settings.ConfigName, interactive.DefaultKeyMap().HelpText()),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		common.DefineVerbosity(silentFlag, debugFlag, traceFlag)
	},
	Run: runDashboard,
}

// Execute runs the command line; errors surface as ExitCode panics.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		panic(common.ExitCode{Code: 1, Message: fmt.Sprintf("Error: %v", err)})
	}
}

// loadSettings resolves the effective settings for a command.
func loadSettings() (*settings.Settings, error) {
	return settings.Load(vip, configFile)
}

func bindFlag(flags *pflag.FlagSet, key string) {
	if err := vip.BindPFlag(key, flags.Lookup(key)); err != nil {
		panic(fmt.Sprintf("bind flag %q: %v", key, err))
	}
}

func init() {
	defaults := settings.Defaults()
	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&configFile, "config", "", "Config file (default is ./swarmdash.yaml, then the user config directory).")
	persistent.BoolVar(&debugFlag, "debug", false, "Turn on debugging output.")
	persistent.BoolVar(&traceFlag, "trace", false, "Turn on tracing output.")
	persistent.BoolVar(&silentFlag, "silent", false, "Be less verbose on output.")

	flags := rootCmd.Flags()
	flags.BoolVar(&demoFlag, "demo", false, "Run a simulated swarm instead of the orchestrator.")
	flags.BoolVar(&stdinFlag, "stdin", false, "Read NDJSON events from stdin instead of the orchestrator.")
	flags.String(settings.KeyCommand, defaults.Command, "Orchestrator command line.")
	flags.String(settings.KeyWorkdir, defaults.Workdir, "Working directory for the orchestrator.")
	flags.Int(settings.KeyAgents, defaults.Agents, "Agent capacity shown in the header.")
	flags.Int(settings.KeyFeatures, defaults.Features, "Number of top level features expected.")
	flags.Int(settings.KeyHz, defaults.Hz, "Frames per second.")
	flags.Float64(settings.KeyCostRate, defaults.CostRate, "Estimated cost in dollars per 1000 tokens.")
	flags.Bool(settings.KeyLinger, defaults.Linger, "Keep the final frame up after the stream ends, until q.")
	flags.String(settings.KeyLogFile, defaults.LogFile, "Append log output to this file while the dashboard owns the screen.")
	for _, key := range []string{
		settings.KeyCommand, settings.KeyWorkdir, settings.KeyAgents,
		settings.KeyFeatures, settings.KeyHz, settings.KeyCostRate,
		settings.KeyLinger, settings.KeyLogFile,
	} {
		bindFlag(flags, key)
	}
}
