package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/medalist/internal/loadgen"
	"github.com/okian/medalist/pkg/logger"
)

func newLoadgenCmd() *cobra.Command {
	var cfg loadgen.Config

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running server with generated batches and verify the medals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init("text"); err != nil {
				return err
			}
			_, err := loadgen.Run(cmd.Context(), &cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Athletes, "athletes", 100, "Number of athletes to generate")
	cmd.Flags().IntVar(&cfg.PerAthlete, "per-athlete", 4, "Performances per athlete")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", 50, "Rows per uploaded file")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 4, "Concurrent uploads")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 0, "HTTP request timeout (default 30s)")
	cmd.Flags().BoolVar(&cfg.Force, "force", false, "Overwrite existing performances")
	cmd.Flags().StringVar(&cfg.OutputDir, "out", "", "Directory for generated files and error reports")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Log every batch")
	return cmd
}
