package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xtding233/dicepool-sim/internal/config"
	"github.com/xtding233/dicepool-sim/internal/logging"
)

// Execute runs the dicesim command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel  string
	logFormat string
	configDir string
	scenario  string

	logger *slog.Logger
	loader *config.Loader
}

func (o *rootOptions) resolve(ov config.Overrides) (config.Params, error) {
	_, p, err := o.loader.Resolve(o.scenario, ov)
	return p, err
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "dicesim",
		Short:        "Monte-Carlo simulator for colored dice pools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Config{
				Level:  opts.logLevel,
				Format: opts.logFormat,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			opts.logger = logger
			opts.loader = config.NewLoader(opts.configDir)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text|json")
	pf.StringVar(&opts.configDir, "config-dir", "config", "Directory holding default.yaml and scenarios/")
	pf.StringVar(&opts.scenario, "scenario", "", "Scenario name under <config-dir>/scenarios (optional)")

	cmd.AddCommand(
		rollCmd(opts),
		simulateCmd(opts),
		combosCmd(opts),
		sweepCmd(opts),
	)
	return cmd
}
