package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/pretty"
)

var logFilter pretty.LogFilter

var logsCmd = &cobra.Command{
	Use:   "logs [file]",
	Short: "Pretty print a recorded NDJSON event stream.",
	Long: `Pretty print a recorded NDJSON event stream, one line per event,
colored by agent and level. Without a file, events are read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pretty.Setup()
		var source io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			source = file
		}
		printed, err := pretty.PrintLogs(source, cmd.OutOrStdout(), logFilter)
		common.Debug("printed %d log lines", printed)
		return err
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVarP(&logFilter.Agent, "agent", "a", "", "Only show events from this agent id.")
	logsCmd.Flags().StringVarP(&logFilter.Level, "level", "l", "", "Only show events at this level.")
	logsCmd.Flags().BoolVarP(&logFilter.Raw, "raw", "r", false, "Print matching lines as they are, without formatting.")
}
