package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"propertyagent/internal/model"
	"propertyagent/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadStatusHandler reports on background uploads
type UploadStatusHandler struct {
	uploader *service.Uploader
}

func NewUploadStatusHandler(uploader *service.Uploader) *UploadStatusHandler {
	return &UploadStatusHandler{uploader: uploader}
}

type uploadStatus struct {
	model.UploadTask
	Message string `json:"message"`
}

func newUploadStatus(task model.UploadTask) uploadStatus {
	return uploadStatus{UploadTask: task, Message: service.DescribeTask(task)}
}

// Get handles GET /api/v1/uploads/:id
func (h *UploadStatusHandler) Get(c *gin.Context) {
	task, err := h.uploader.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newUploadStatus(task))
}

// Stream handles GET /api/v1/uploads/:id/stream - SSE progress events
func (h *UploadStatusHandler) Stream(c *gin.Context) {
	events, cancel, err := h.uploader.Subscribe(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
		return
	}
	defer cancel()

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	if task, err := h.uploader.Get(c.Param("id")); err == nil {
		sendSSE(c, "start", newUploadStatus(task))
		flusher.Flush()
	}

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				sendSSE(c, "done", nil)
				flusher.Flush()
				return
			}
			sendSSE(c, "progress", evt)
			flusher.Flush()
		}
	}
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
