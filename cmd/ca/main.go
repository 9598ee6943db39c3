package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sparse-ca/internal/config"
	"sparse-ca/internal/engine"
	"sparse-ca/internal/logging"
)

var version = "0.1.0-dev"

// cli carries the resolved configuration and logger into subcommands.
type cli struct {
	cfg  *config.Config
	log  *slog.Logger
	path string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, engine.ErrShutdownTimeout) {
			fmt.Fprintln(os.Stderr, "fatal: simulation worker did not stop in time")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Default()}
	rootCmd := &cobra.Command{
		Use:   "ca",
		Short: "Sparse infinite cellular automaton",
		Long: `ca runs Conway's Life with sand and brick materials on an unbounded
64-bit grid. Only live cells are stored, so patterns can travel as far as
the coordinates allow.

Configuration is read from ~/.sparse-ca/config.yaml (or --config), then
SPARSECA_* environment variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.path, "config", "", "config file (default ~/.sparse-ca/config.yaml)")
	c.cfg.Bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newVersionCmd(),
		newGUICmd(c),
		newRunCmd(c),
		newBenchCmd(c),
		newPatternsCmd(),
		newConfigCmd(c),
	)
	return rootCmd
}

// load resolves defaults, file, environment and flags, in that order.
func (c *cli) load(cmd *cobra.Command) error {
	loaded, err := config.Load(c.path)
	if err != nil {
		return err
	}
	if err := loaded.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = loaded
	c.log = logging.NewLogger(loaded.Logging.Level, cmd.ErrOrStderr())
	return nil
}

// signalContext returns a context cancelled on interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	notifySignals(ch)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ca version %s\n", version)
		},
	}
}
