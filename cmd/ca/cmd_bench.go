package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sparse-ca/internal/app"
	"sparse-ca/internal/patterns"
)

func newBenchCmd(c *cli) *cobra.Command {
	var (
		generations int
		names       []string
		parallel    int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure stepping throughput for several patterns",
		Long: `Bench runs each pattern in its own engine, several at a time, and
reports generations per second and the deepest bucket chain seen.

Examples:
  ca bench
  ca bench --patterns acorn,soup --generations 500 --hash linear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(names) == 0 {
				for _, p := range patterns.All() {
					names = append(names, p.Name)
				}
			}
			for _, name := range names {
				if _, err := patterns.Lookup(name); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			reports := make([]app.Report, len(names))
			g, gctx := errgroup.WithContext(ctx)
			if parallel > 0 {
				g.SetLimit(parallel)
			}
			for i, name := range names {
				i, name := i, name
				g.Go(func() (err error) {
					cfg := *c.cfg
					cfg.Sim.Pattern = name
					ses, err := app.NewSession(gctx, &cfg, c.log)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					defer func() {
						if closeErr := ses.Close(); closeErr != nil {
							err = errors.Join(err, fmt.Errorf("%s: %w", name, closeErr))
						}
					}()
					rep, err := app.Run(gctx, ses.Controller(), generations, nil)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					reports[i] = rep
					c.log.Debug("bench finished", "pattern", name, "elapsed", rep.Elapsed)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "PATTERN\tGENERATIONS\tLIVE\tPEAK DEPTH\tGEN/S\n")
			for i, name := range names {
				r := reports[i]
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.0f\n",
					name, r.Stats.Generation, r.Stats.Live, r.Stats.PeakChainDepth, r.GenerationsPerSecond())
			}
			fmt.Fprintf(tw, "%s\n", strings.Repeat("-", 8))
			fmt.Fprintf(tw, "hash=%s buckets=%d\n", c.cfg.Engine.Hash, c.cfg.Engine.Buckets)
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&generations, "generations", "g", 200, "generations per pattern")
	cmd.Flags().StringSliceVar(&names, "patterns", nil, "patterns to run (default all)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "patterns stepped at once (0 = unlimited)")
	return cmd
}
