package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshyorko/swarmdash/common"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Show effective settings as YAML.",
	Long: `Show effective settings as YAML, after defaults, config file,
environment and flags have been applied. The output is a valid config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadSettings()
		if err != nil {
			return err
		}
		blob, err := config.AsYAML()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if config.ConfigFile != "" {
			fmt.Fprintf(out, "# from %s\n", config.ConfigFile)
		}
		_, err = out.Write(blob)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show swarmdash version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), common.Version)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
