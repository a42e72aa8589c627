package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/popgraph/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front end",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := sessionSettings()
		if err != nil {
			return err
		}
		c := currentConfig()
		addr := c.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := web.NewServer(web.Config{
			Settings:       st,
			MaxUploadBytes: c.MaxUploadBytes,
			ChartWidth:     c.ChartWidth,
			ChartHeight:    c.ChartHeight,
		}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (Ctrl+C to stop)\n", addr)
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8050)")
}
