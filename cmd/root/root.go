package root

import (
	"log/slog"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	debugMode  bool
	configPath string
}

// NewRootCmd builds the shelftalk command tree.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "shelftalk",
		Short: "shelftalk - AI reading companion session runner",
		Long:  "shelftalk runs a live conversation session with a remote reading companion that drives the book-catalog UI through tool calls.",
		Example: `  shelftalk run
  shelftalk run ./catalog.yaml --config shelftalk.yaml`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flags.debugMode {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&flags.debugMode, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to the configuration file")

	cmd.AddCommand(newRunCmd(&flags))

	return cmd
}
