package main

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"propertyagent/internal/model"
)

func init() {
	color.NoColor = true
}

func TestRenderTurn(t *testing.T) {
	assert.Equal(t, "✓ started [t1]", renderTurn(model.TurnResult{Status: model.StatusUploading, Message: "started", TaskID: "t1"}))
	assert.Equal(t, "↺ cleared", renderTurn(model.TurnResult{Status: model.StatusReset, Message: "cleared"}))
	assert.Equal(t, "… need more", renderTurn(model.TurnResult{Status: model.StatusIncomplete, Message: "need more"}))
}

func TestRenderFieldsKeepsFieldOrder(t *testing.T) {
	out := renderFields(model.Fields{model.FieldPrice: "75 lakh", model.FieldTitle: "2BHK"})
	assert.Equal(t, "  title      2BHK\n  price      75 lakh\n", out)
}

func TestRenderEvent(t *testing.T) {
	assert.Equal(t, "  █████░░░░░  50% embedding", renderEvent(model.TaskEvent{Progress: 50, Detail: "embedding"}))
	assert.Equal(t, "  ░░░░░░░░░░   0% ", renderEvent(model.TaskEvent{}))
}

func TestRenderTask(t *testing.T) {
	assert.Equal(t, "✓ Property uploaded successfully. (listing #7)",
		renderTask(model.UploadTask{Status: model.TaskStatusCompleted, ListingID: 7}))
	assert.Contains(t, renderTask(model.UploadTask{Status: model.TaskStatusFailed, Error: "db down"}), "db down")
}
