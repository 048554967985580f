package handler

import (
	"net/http"
	"strings"

	"propertyagent/internal/model"
	"propertyagent/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadHandler handles the conversational listing upload
type UploadHandler struct {
	agent            *service.UploadAgent
	sessionHeader    string
	defaultSessionID string
}

// NewUploadHandler creates a new upload handler. Requests without the
// session header are attributed to defaultSessionID.
func NewUploadHandler(agent *service.UploadAgent, sessionHeader, defaultSessionID string) *UploadHandler {
	return &UploadHandler{
		agent:            agent,
		sessionHeader:    sessionHeader,
		defaultSessionID: defaultSessionID,
	}
}

func (h *UploadHandler) sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(h.sessionHeader)); id != "" {
		return id
	}
	return h.defaultSessionID
}

// UploadProperty handles POST /api/v1/upload-property
func (h *UploadHandler) UploadProperty(c *gin.Context) {
	var req model.UploadPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result := h.agent.Process(c.Request.Context(), h.sessionID(c), model.Utterance{
		Text:        req.Text,
		Attachments: req.Images,
	})

	status := http.StatusOK
	if result.Status == model.StatusUploading {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

// ResetSession handles POST /api/v1/reset-session
func (h *UploadHandler) ResetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.agent.ResetSession(c.Request.Context(), h.sessionID(c)))
}

// Session handles GET /api/v1/session
func (h *UploadHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.agent.Snapshot(c.Request.Context(), h.sessionID(c)))
}

// LatestUpload handles GET /api/v1/uploads/latest
func (h *UploadHandler) LatestUpload(c *gin.Context) {
	task, ok := h.agent.Uploads().Latest(h.sessionID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No upload for this session"})
		return
	}
	c.JSON(http.StatusOK, newUploadStatus(task))
}
