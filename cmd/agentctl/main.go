// Package main provides agentctl, a terminal client for the listing agent.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"propertyagent/internal/app"
	"propertyagent/internal/config"
)

var (
	version = "dev"
	agent   *app.App
	session string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentctl",
		Short: "Describe a property in plain text and upload it",
		Long: `agentctl talks to the listing agent in-process.

  agentctl chat             Start an interactive listing session
  agentctl extract <text>   Show the fields one message yields
  agentctl session          Show what the session has collected`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			agent, err = app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if session == "" {
				session = cfg.Session.DefaultID
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if agent != nil {
				_ = agent.Close(context.Background())
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&session, "session", "s", "", "Session id (default SESSION_DEFAULT_ID)")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(sessionCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
