package root

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shelftalk/shelftalk/pkg/catalog"
	"github.com/shelftalk/shelftalk/pkg/config"
	"github.com/shelftalk/shelftalk/pkg/dispatch"
	"github.com/shelftalk/shelftalk/pkg/provider"
	"github.com/shelftalk/shelftalk/pkg/session"
	"github.com/shelftalk/shelftalk/pkg/transport"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [catalog.yaml]",
		Short: "Start a reading companion session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath := "catalog.yaml"
			if len(args) > 0 {
				catalogPath = args[0]
			}
			return runSession(cmd, flags.configPath, catalogPath)
		},
	}
}

func runSession(cmd *cobra.Command, configPath, catalogPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	books, err := catalog.LoadFile(catalogPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	callbacks := dispatch.Callbacks{
		OnStatus: func(msg string) {
			fmt.Fprintln(out, msg)
		},
		OnFilterChange: func(criteria catalog.FilterCriteria) {
			fmt.Fprintf(out, "filter update: %+v\n", criteria)
		},
		OnBookRecommendation: func(items []catalog.Item) {
			for _, item := range items {
				fmt.Fprintf(out, "  recommended: %q by %s\n", item.Title, item.Author)
			}
		},
	}

	prov := provider.NewHTTP(cfg.APIBaseURL, cfg.APIKey, cfg.ReplicaID,
		provider.WithPersonaID(cfg.PersonaID))
	controller := session.New(cfg, books, prov, transport.NewWebsocket(), callbacks)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := controller.Start(ctx); err != nil {
		return err
	}
	done := controller.Done()

	select {
	case <-ctx.Done():
		controller.Stop(cmd.Context())
	case <-done:
	}

	if controller.State() == session.StateFailed {
		return fmt.Errorf("session failed: %s", controller.FailReason())
	}
	return nil
}
