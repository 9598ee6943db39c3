//go:build ebiten

package main

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"sparse-ca/internal/app"
)

func newGUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the interactive window",
		Long: `Gui opens a window onto the grid with a parameter panel on the right.

Controls:
  space       pause or resume
  n           single step
  r / c       reset to the pattern / clear the grid
  1 2 3       brush: sand, brick, life
  left click  paint, right click erase
  middle drag or arrows to pan, wheel to zoom
  = / -       faster / slower
  g / h       toggle grid lines / hover highlight
  q, esc      quit`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
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

			w, h, hud := c.cfg.Window.Width, c.cfg.Window.Height, c.cfg.Window.HUD
			game := app.New(ses, w, h, hud)
			ebiten.SetWindowTitle("sparse-ca: " + c.cfg.Sim.Pattern)
			ebiten.SetWindowSize(w+hud, h)

			c.log.Info("window opened", "width", w, "height", h, "pattern", c.cfg.Sim.Pattern)
			if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
				return err
			}
			return nil
		},
	}
}
