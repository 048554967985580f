package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"propertyagent/internal/model"
)

func chatCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive listing session",
		Long:  "Type property details line by line. Add image URLs with \"/image <url>\". Ctrl-D exits.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fmt.Println(color.CyanString("Describe your property (session %s)", session))

			var pending []string
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print(color.HiBlackString("> "))
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if url, ok := strings.CutPrefix(line, "/image "); ok {
					pending = append(pending, strings.TrimSpace(url))
					fmt.Println(color.HiBlackString("  %d image(s) queued for the next message", len(pending)))
					continue
				}

				res := agent.Agent.Process(ctx, session, model.Utterance{Text: line, Attachments: pending})
				pending = nil
				fmt.Println(renderTurn(res))

				if res.Status == model.StatusUploading && follow {
					followUpload(res.TaskID)
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", true, "Wait for uploads and print their progress")
	return cmd
}

func followUpload(taskID string) {
	events, cancel, err := agent.Uploader.Subscribe(taskID)
	if err != nil {
		fmt.Println(color.RedString("  %v", err))
		return
	}
	defer cancel()

	for evt := range events {
		fmt.Println(renderEvent(evt))
	}
	if task, err := agent.Uploader.Get(taskID); err == nil {
		fmt.Println(renderTask(task))
	}
}
