package cmd

import (
	"corequeue/internal/worker"
	"time"

	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	var (
		metricsAddr   string
		baseBackoff   time.Duration
		maxBackoff    time.Duration
		storeAttempts int
	)

	var command = &cobra.Command{
		Use:   "worker",
		Short: "Start the scheduler worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup()
			if err != nil {
				return err
			}
			defer closer.Close()
			return worker.Run(cfg, worker.Config{
				MetricsAddr:   metricsAddr,
				BaseBackoff:   baseBackoff,
				MaxBackoff:    maxBackoff,
				StoreAttempts: storeAttempts,
			})
		},
	}

	command.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics listen address (overrides Metrics_Address)")
	command.Flags().DurationVar(&baseBackoff, "base-backoff", 500*time.Millisecond, "Base backoff duration")
	command.Flags().DurationVar(&maxBackoff, "max-backoff", 30*time.Second, "Max backoff duration")
	command.Flags().IntVar(&storeAttempts, "store-attempts", 5, "Result write attempts per request")

	return command
}
