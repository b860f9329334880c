package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultChannel = "main"
)

type commandContext struct {
	server  string
	channel string
	json    bool
}

func (c *commandContext) client() *apiClient {
	return newAPIClient(strings.TrimSpace(c.server))
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "presenterctl",
		Short:         "Drive a worship presentation from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	server := os.Getenv("PRESENTER_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&ctx.server, "server", "s", server, "Presenter server base URL")
	rootCmd.PersistentFlags().StringVarP(&ctx.channel, "channel", "C", defaultChannel, "Sync channel name")
	rootCmd.PersistentFlags().BoolVar(&ctx.json, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(newNavigateCommand(ctx))
	rootCmd.AddCommand(newFlagCommand(ctx, "black", "Blank or restore the output"))
	rootCmd.AddCommand(newFlagCommand(ctx, "live", "Toggle live mode"))
	rootCmd.AddCommand(newLogoCommand(ctx))
	rootCmd.AddCommand(newPropCommand(ctx, "show-prop", "show", "Show an armed prop"))
	rootCmd.AddCommand(newPropCommand(ctx, "hide-prop", "hide", "Hide an active prop"))
	rootCmd.AddCommand(newStateCommand(ctx))
	rootCmd.AddCommand(newChannelsCommand(ctx))
	rootCmd.AddCommand(newScenesCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))

	return rootCmd
}
