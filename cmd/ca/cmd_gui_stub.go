//go:build !ebiten

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newGUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the interactive window (requires -tags ebiten)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("the gui build requires the ebiten tag: go run -tags ebiten ./cmd/ca gui")
		},
	}
}
