package service

import (
	"context"
	"log"
	"strings"

	"propertyagent/internal/model"
	"propertyagent/internal/observability"
)

const (
	msgReset          = "Previous property details cleared. Please start describing your property again."
	msgUploadStarted  = "All property details received. Upload process started."
	msgUploadRunning  = "Your property is already being uploaded."
	msgSessionCleared = "Session cleared. You can start fresh."
)

// UploadAgent runs one conversational turn: reset check, extraction, merge,
// completeness check and, once everything is known, the background upload.
// It keeps no per-turn state of its own.
type UploadAgent struct {
	extractor    FieldExtractor
	memory       *SessionMemory
	uploader     *Uploader
	resetPhrases []string
	metrics      *observability.Metrics
}

func NewUploadAgent(extractor FieldExtractor, memory *SessionMemory, uploader *Uploader, resetPhrases []string, metrics *observability.Metrics) *UploadAgent {
	phrases := make([]string, 0, len(resetPhrases))
	for _, p := range resetPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			phrases = append(phrases, p)
		}
	}
	return &UploadAgent{
		extractor:    extractor,
		memory:       memory,
		uploader:     uploader,
		resetPhrases: phrases,
		metrics:      metrics,
	}
}

// IsReset reports whether text asks to discard the current listing
func (a *UploadAgent) IsReset(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range a.resetPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Process handles one user turn for sessionID
func (a *UploadAgent) Process(ctx context.Context, sessionID string, in model.Utterance) model.TurnResult {
	if a.IsReset(in.Text) {
		unlock := a.memory.Lock(sessionID)
		a.memory.Clear(ctx, sessionID)
		unlock()
		a.metrics.Turn(model.StatusReset)
		return model.TurnResult{Status: model.StatusReset, Message: msgReset}
	}

	extracted := a.extractor.Extract(ctx, in.Text)
	if extracted == nil {
		extracted = model.Fields{}
	}
	if images := attachments(in.Attachments); images != "" {
		extracted[model.FieldImages] = images
	}

	unlock := a.memory.Lock(sessionID)
	defer unlock()

	record := a.memory.Update(ctx, sessionID, extracted)
	if missing := MissingFields(record); len(missing) > 0 {
		a.metrics.Turn(model.StatusIncomplete)
		return model.TurnResult{
			Status:        model.StatusIncomplete,
			Message:       Prompt(record, missing),
			MissingFields: missing,
			Fields:        record,
		}
	}

	if running, ok := a.uploader.Latest(sessionID); ok && !running.Terminal() {
		a.metrics.Turn(model.StatusUploading)
		return model.TurnResult{Status: model.StatusUploading, Message: msgUploadRunning, TaskID: running.ID}
	}

	task := a.uploader.Dispatch(sessionID, record)
	log.Printf("🚀 [Agent] upload %s dispatched for session %s", task.ID, sessionID)
	a.metrics.Turn(model.StatusUploading)
	return model.TurnResult{Status: model.StatusUploading, Message: msgUploadStarted, TaskID: task.ID}
}

// ResetSession clears the session without looking at any text
func (a *UploadAgent) ResetSession(ctx context.Context, sessionID string) model.TurnResult {
	unlock := a.memory.Lock(sessionID)
	a.memory.Clear(ctx, sessionID)
	unlock()
	return model.TurnResult{Status: model.StatusReset, Message: msgSessionCleared}
}

// Snapshot reports what is known about the session so far
func (a *UploadAgent) Snapshot(ctx context.Context, sessionID string) model.SessionSnapshot {
	record := a.memory.Get(ctx, sessionID)
	missing := MissingFields(record)
	if missing == nil {
		missing = []string{}
	}
	snap := model.SessionSnapshot{
		SessionID:     sessionID,
		Fields:        record,
		MissingFields: missing,
		Complete:      IsComplete(record),
	}
	if task, ok := a.uploader.Latest(sessionID); ok {
		snap.LastUpload = &task
	}
	return snap
}

// Uploads exposes the task tracker to the transport layer
func (a *UploadAgent) Uploads() *Uploader {
	return a.uploader
}

func attachments(urls []string) string {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	return strings.Join(dedupe(cleaned), ", ")
}
