package main

import (
	"github.com/spf13/cobra"

	"worship-presenter/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "presenter-server",
		Short:         "Worship presentation sync server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init-config <path>",
		Short: "Write an annotated sample configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateSample(args[0]); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", args[0])
			return nil
		},
	})

	return rootCmd
}
