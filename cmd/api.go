package cmd

import (
	"context"
	"corequeue/internal/api"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func apiCmd() *cobra.Command {
	var port int
	var command = &cobra.Command{
		Use:   "api",
		Short: "Start the rendezvous HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup()
			if err != nil {
				return err
			}
			defer closer.Close()
			if !cmd.Flags().Changed("port") {
				port = cfg.API.Port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().Msgf("API server using queue: %s, result namespace: %s", cfg.Redis.QueueKey, cfg.Redis.ResultNamespace)
			server, err := api.New(ctx, cfg)
			if err != nil {
				return err
			}
			return server.Run(ctx, port)
		},
	}

	command.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
	return command
}
