package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"propertyagent/internal/model"
	"propertyagent/internal/service"
)

func renderTurn(res model.TurnResult) string {
	switch res.Status {
	case model.StatusReset:
		return color.YellowString("↺ %s", res.Message)
	case model.StatusUploading:
		return color.GreenString("✓ %s", res.Message) + color.HiBlackString(" [%s]", res.TaskID)
	default:
		return color.CyanString("… %s", res.Message)
	}
}

func renderFields(fields model.Fields) string {
	var sb strings.Builder
	for _, key := range fields.Keys() {
		fmt.Fprintf(&sb, "  %-10s %s\n", color.HiBlackString(key), fields[key])
	}
	return sb.String()
}

func renderEvent(evt model.TaskEvent) string {
	bar := strings.Repeat("█", evt.Progress/10) + strings.Repeat("░", 10-evt.Progress/10)
	line := fmt.Sprintf("  %s %3d%% %s", bar, evt.Progress, evt.Detail)
	if evt.Status == model.TaskStatusFailed {
		return color.RedString("%s", line)
	}
	return line
}

func renderTask(task model.UploadTask) string {
	msg := service.DescribeTask(task)
	switch task.Status {
	case model.TaskStatusCompleted:
		return color.GreenString("✓ %s (listing #%d)", msg, task.ListingID)
	case model.TaskStatusFailed:
		return color.RedString("✗ %s %s", msg, task.Error)
	default:
		return msg
	}
}
