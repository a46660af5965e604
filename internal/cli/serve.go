package cli

import (
	"github.com/spf13/cobra"

	"sales-stats/internal/app"
)

var (
	serveAddr      string
	serveRecompute bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the computed statistics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Serve(cmd.Context(), app.ServeOptions{
			Addr:      serveAddr,
			Recompute: serveRecompute,
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to config)")
	serveCmd.Flags().BoolVar(&serveRecompute, "recompute", false, "Recompute the artifact on the watch interval while serving")
}
