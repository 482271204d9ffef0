package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planning",
	Short: "Tile supply replenishment and shipment tracking service",
	Long: `Runs the replenishment decision engine for the tile supply chain:
demand estimation, reorder recommendations, container packing, shipment
lifecycle tracking and alert generation.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
