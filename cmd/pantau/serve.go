package main

import (
	"github.com/spf13/cobra"

	"github.com/pantau/pantau/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long:  `Run the pantau web server until SIGINT or SIGTERM, then shut down gracefully.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		srv, err := server.New(cfg, logger)
		if err != nil {
			return err
		}
		return srv.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides the config)")
}
