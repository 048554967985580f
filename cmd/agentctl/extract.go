package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"propertyagent/internal/service"
)

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <text>",
		Short: "Run field extraction on one message without touching the session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := agent.Extractor.Extract(cmd.Context(), strings.Join(args, " "))
			if len(fields) == 0 {
				fmt.Println(color.YellowString("No fields found"))
				return nil
			}
			fmt.Print(renderFields(fields))
			if missing := service.MissingFields(fields); len(missing) > 0 {
				fmt.Println(color.HiBlackString("missing: %s", strings.Join(missing, ", ")))
			}
			return nil
		},
	}
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the fields collected for the session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			snap := agent.Agent.Snapshot(cmd.Context(), session)
			fmt.Println(color.CyanString("Session %s", snap.SessionID))
			fmt.Print(renderFields(snap.Fields))
			if !snap.Complete {
				fmt.Println(color.YellowString("missing: %s", strings.Join(snap.MissingFields, ", ")))
			}
			if snap.LastUpload != nil {
				fmt.Println(renderTask(*snap.LastUpload))
			}
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Discard the session's collected fields",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			res := agent.Agent.ResetSession(cmd.Context(), session)
			fmt.Println(color.GreenString("%s", res.Message))
		},
	})
	return cmd
}
