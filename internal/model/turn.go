package model

// Turn statuses returned to the caller
const (
	StatusReset      = "reset"
	StatusIncomplete = "incomplete"
	StatusUploading  = "uploading"
)

// Utterance is one user turn: free text plus optional image URLs sent alongside it
type Utterance struct {
	Text        string   `json:"text"`
	Attachments []string `json:"images,omitempty"`
}

// TurnResult is the response to one conversational turn
type TurnResult struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Fields        Fields   `json:"fields,omitempty"`
	TaskID        string   `json:"task_id,omitempty"`
}

// UploadPropertyRequest is the body of POST /api/v1/upload-property
type UploadPropertyRequest struct {
	Text   string   `json:"text" binding:"required"`
	Images []string `json:"images,omitempty"`
}

// SessionSnapshot describes what is known for a session so far
type SessionSnapshot struct {
	SessionID     string      `json:"session_id"`
	Fields        Fields      `json:"fields"`
	MissingFields []string    `json:"missing_fields"`
	Complete      bool        `json:"complete"`
	LastUpload    *UploadTask `json:"last_upload,omitempty"`
}
