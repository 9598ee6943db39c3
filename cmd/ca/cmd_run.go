package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sparse-ca/internal/app"
	"sparse-ca/internal/camera"
	"sparse-ca/internal/core"
	"sparse-ca/internal/grid"
	"sparse-ca/internal/life"
	"sparse-ca/internal/render"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		generations int
		every       int
		view        string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless and print a summary",
		Long: `Run seeds the configured pattern and advances it on the background
worker without opening a window.

Examples:
  ca run --pattern glider --generations 100
  ca run --pattern r-pentomino --generations 1103 --every 100
  ca run --pattern hourglass --generations 20 --view 40x20`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			w, h, err := parseView(view)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			ses, err := app.NewSession(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := ses.Close(); closeErr != nil {
					err = errors.Join(err, closeErr)
				}
			}()

			out := cmd.OutOrStdout()
			var progress func(life.Stats)
			if every > 0 {
				progress = func(st life.Stats) {
					if st.Generation%uint64(every) == 0 {
						printStats(out, st)
					}
				}
			}
			rep, err := app.Run(ctx, ses.Controller(), generations, progress)
			if err != nil {
				return err
			}
			printReport(out, rep)

			if w > 0 {
				fmt.Fprintln(out)
				fmt.Fprint(out, snapshot(ses, rep, w, h))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&generations, "generations", "g", 100, "generations to run")
	cmd.Flags().IntVar(&every, "every", 0, "print stats every N generations")
	cmd.Flags().StringVar(&view, "view", "", "print a WxH text view centered on the population")
	return cmd
}

func parseView(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid --view %q, expected WxH", s)
	}
	w, werr := strconv.Atoi(ws)
	h, herr := strconv.Atoi(hs)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid --view %q, expected WxH", s)
	}
	return w, h, nil
}

func printStats(out io.Writer, st life.Stats) {
	fmt.Fprintf(out, "gen %-8d live %-8d births %-6d deaths %-6d frontier %-8d depth %d\n",
		st.Generation, st.Live, st.Births, st.Deaths, st.Frontier, st.ChainDepth)
}

func printReport(out io.Writer, rep app.Report) {
	fmt.Fprintf(out, "generations: %d\n", rep.Stats.Generation)
	fmt.Fprintf(out, "live:        %d\n", rep.Stats.Live)
	if rep.Empty {
		fmt.Fprintln(out, "bounds:      (empty)")
	} else {
		fmt.Fprintf(out, "bounds:      [%d, %d] .. [%d, %d]\n",
			rep.Bounds[0][0], rep.Bounds[0][1], rep.Bounds[1][0], rep.Bounds[1][1])
	}
	fmt.Fprintf(out, "peak depth:  %d\n", rep.Stats.PeakChainDepth)
	fmt.Fprintf(out, "rate:        %.0f gen/s\n", rep.GenerationsPerSecond())
}

// snapshot renders the active grid at one cell per character, centered on
// the population's bounding box.
func snapshot(ses *app.Session, rep app.Report, w, h int) string {
	center := grid.WorldPos{}
	if !rep.Empty {
		center = grid.WorldPos{
			X: rep.Bounds[0][0] + (rep.Bounds[1][0]-rep.Bounds[0][0])/2,
			Y: rep.Bounds[0][1] + (rep.Bounds[1][1]-rep.Bounds[0][1])/2,
		}
	}
	var tab camera.Table
	tab.Update(camera.Camera{Center: center, Scale: 1}, w, h)
	frame := core.NewByteGrid(w, h)
	render.Sample(frame, &tab, ses.Controller().Lookup)
	return render.Text(frame)
}
