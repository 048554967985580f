package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"propertyagent/internal/config"
	"propertyagent/internal/model"
	"propertyagent/internal/observability"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

var ErrTaskNotFound = errors.New("task not found")

// Catalog is where completed listings end up
type Catalog interface {
	SaveListing(ctx context.Context, listing *model.Listing) (int64, error)
}

// Uploader runs save tasks in the background and tracks their progress.
// Tasks are bound to the uploader's lifetime, not to the request that started them.
type Uploader struct {
	catalog  Catalog
	embedder Embedder
	memory   *SessionMemory
	cfg      config.UploadConfig
	metrics  *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time

	mu          sync.RWMutex
	tasks       map[string]*model.UploadTask
	latest      map[string]string
	subscribers map[string]map[int]chan model.TaskEvent
	nextSubID   int
}

// NewUploader creates an uploader. embedder may be nil.
func NewUploader(catalog Catalog, embedder Embedder, memory *SessionMemory, cfg config.UploadConfig, metrics *observability.Metrics) *Uploader {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Uploader{
		catalog:     catalog,
		embedder:    embedder,
		memory:      memory,
		cfg:         cfg,
		metrics:     metrics,
		ctx:         ctx,
		cancel:      cancel,
		now:         time.Now,
		tasks:       make(map[string]*model.UploadTask),
		latest:      make(map[string]string),
		subscribers: make(map[string]map[int]chan model.TaskEvent),
	}
}

// Dispatch starts saving record and returns immediately with the pending task
func (u *Uploader) Dispatch(sessionID string, record model.Fields) model.UploadTask {
	now := time.Now().UTC()
	task := &model.UploadTask{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Title:     record[model.FieldTitle],
		Status:    model.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	u.mu.Lock()
	u.evictLocked()
	u.tasks[task.ID] = task
	u.latest[sessionID] = task.ID
	snapshot := *task
	u.mu.Unlock()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		u.run(task.ID, sessionID, record.Clone())
	}()

	return snapshot
}

// Get returns a snapshot of the task
func (u *Uploader) Get(taskID string) (model.UploadTask, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	task, ok := u.tasks[strings.TrimSpace(taskID)]
	if !ok {
		return model.UploadTask{}, ErrTaskNotFound
	}
	return *task, nil
}

// Latest returns the most recently dispatched task of a session
func (u *Uploader) Latest(sessionID string) (model.UploadTask, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	id, ok := u.latest[sessionID]
	if !ok {
		return model.UploadTask{}, false
	}
	return *u.tasks[id], true
}

// Subscribe streams progress events of one task. The channel is closed after
// the terminal event or when the returned cancel func is called.
func (u *Uploader) Subscribe(taskID string) (<-chan model.TaskEvent, func(), error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	task, ok := u.tasks[taskID]
	if !ok {
		return nil, nil, ErrTaskNotFound
	}

	ch := make(chan model.TaskEvent, 16)
	if task.Terminal() {
		ch <- eventOf(task, "")
		close(ch)
		return ch, func() {}, nil
	}

	u.nextSubID++
	id := u.nextSubID
	if _, ok := u.subscribers[taskID]; !ok {
		u.subscribers[taskID] = make(map[int]chan model.TaskEvent)
	}
	u.subscribers[taskID][id] = ch

	return ch, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		subs := u.subscribers[taskID]
		if c, ok := subs[id]; ok {
			delete(subs, id)
			close(c)
		}
		if len(subs) == 0 {
			delete(u.subscribers, taskID)
		}
	}, nil
}

// Shutdown waits for running tasks to finish. When ctx expires first the
// remaining tasks are cancelled, and Shutdown returns once they have stopped.
func (u *Uploader) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		u.cancel()
		return nil
	case <-ctx.Done():
		u.cancel()
		<-done
		return ctx.Err()
	}
}

// evictLocked forgets finished tasks older than the retention period.
// The latest task of each session is kept so its outcome stays visible.
func (u *Uploader) evictLocked() {
	if u.cfg.Retention <= 0 {
		return
	}
	cutoff := u.now().Add(-u.cfg.Retention)
	for id, task := range u.tasks {
		if !task.Terminal() || task.EndedAt == nil || task.EndedAt.After(cutoff) {
			continue
		}
		if u.latest[task.SessionID] == id {
			continue
		}
		delete(u.tasks, id)
	}
}

func (u *Uploader) run(taskID, sessionID string, record model.Fields) {
	ctx := u.ctx
	started := time.Now()
	title := record[model.FieldTitle]
	if title == "" {
		title = "Unknown Property"
	}

	u.progress(taskID, model.TaskStatusRunning, model.ProgressStarted, "upload started", title)

	if err := u.pause(ctx); err != nil {
		u.fail(taskID, started, err)
		return
	}
	listing, err := model.NewListing(sessionID, record)
	if err != nil {
		u.fail(taskID, started, err)
		return
	}
	u.progress(taskID, model.TaskStatusRunning, model.ProgressPrepared, "listing prepared", title)

	if err := u.pause(ctx); err != nil {
		u.fail(taskID, started, err)
		return
	}
	u.progress(taskID, model.TaskStatusRunning, model.ProgressEmbedded, u.embed(ctx, listing), title)

	if err := u.pause(ctx); err != nil {
		u.fail(taskID, started, err)
		return
	}
	listingID, err := u.persist(ctx, taskID, listing)
	if err != nil {
		u.fail(taskID, started, err)
		return
	}
	u.mu.Lock()
	u.tasks[taskID].ListingID = listingID
	u.mu.Unlock()
	u.progress(taskID, model.TaskStatusRunning, model.ProgressPersisted, fmt.Sprintf("saved as listing %d", listingID), title)

	// the listing is saved: a cancel from here on only skips the wait
	_ = u.pause(ctx)
	unlock := u.memory.Lock(sessionID)
	u.memory.Clear(context.WithoutCancel(ctx), sessionID)
	unlock()

	u.progress(taskID, model.TaskStatusCompleted, model.ProgressDone, "upload completed", title)
	u.metrics.UploadFinished(string(model.TaskStatusCompleted), time.Since(started))
	log.Printf("✅ [Upload Completed] Property saved to database (listing %d, session %s)", listingID, sessionID)
}

// embed attaches an embedding when an embedder is configured; failures only cost the vector
func (u *Uploader) embed(ctx context.Context, listing *model.Listing) string {
	if u.embedder == nil || !u.embedder.IsEnabled() {
		return "embedding skipped"
	}
	vectors, err := u.embedder.CreateEmbeddings(ctx, []string{listing.EmbeddingText()})
	if err != nil || len(vectors) == 0 || len(vectors[0]) == 0 {
		log.Printf("⚠️  [Upload] embedding failed, saving without it: %v", err)
		return "embedding failed"
	}
	listing.Embedding = pgvector.NewVector(vectors[0])
	return "embedding computed"
}

// persist saves the listing, retrying with linear backoff
func (u *Uploader) persist(ctx context.Context, taskID string, listing *model.Listing) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= u.cfg.MaxAttempts; attempt++ {
		u.mu.Lock()
		u.tasks[taskID].Attempts = attempt
		u.mu.Unlock()

		id, err := u.catalog.SaveListing(ctx, listing)
		if err == nil {
			return id, nil
		}
		lastErr = err
		log.Printf("⚠️  [Upload] save attempt %d/%d failed: %v", attempt, u.cfg.MaxAttempts, err)

		if attempt == u.cfg.MaxAttempts {
			break
		}
		if err := sleepCtx(ctx, u.cfg.RetryBackoff*time.Duration(attempt)); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("save failed after %d attempts: %w", u.cfg.MaxAttempts, lastErr)
}

func (u *Uploader) pause(ctx context.Context) error {
	return sleepCtx(ctx, u.cfg.StepDelay)
}

func (u *Uploader) progress(taskID string, status model.TaskStatus, pct int, detail, title string) {
	log.Printf("[Upload Progress] %d%% - %s (%s)", pct, title, detail)

	u.mu.Lock()
	defer u.mu.Unlock()
	task := u.tasks[taskID]
	now := time.Now().UTC()
	task.Status = status
	task.Progress = pct
	task.UpdatedAt = now
	if task.Terminal() {
		task.EndedAt = &now
	}
	u.publishLocked(task, detail)
}

// fail marks the task failed. Session memory is left untouched so the
// next complete turn can dispatch again.
func (u *Uploader) fail(taskID string, started time.Time, err error) {
	u.mu.Lock()
	task := u.tasks[taskID]
	now := time.Now().UTC()
	task.Status = model.TaskStatusFailed
	task.Error = err.Error()
	task.UpdatedAt = now
	task.EndedAt = &now
	u.publishLocked(task, err.Error())
	sessionID, attempts := task.SessionID, task.Attempts
	u.mu.Unlock()

	u.metrics.UploadFinished(string(model.TaskStatusFailed), time.Since(started))
	log.Printf("❌ [Upload Failed] task %s (session %s) after %d attempt(s): %v", taskID, sessionID, attempts, err)
}

func (u *Uploader) publishLocked(task *model.UploadTask, detail string) {
	evt := eventOf(task, detail)
	subs := u.subscribers[task.ID]
	for id, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
		if task.Terminal() {
			delete(subs, id)
			close(ch)
		}
	}
	if task.Terminal() {
		delete(u.subscribers, task.ID)
	}
}

func eventOf(task *model.UploadTask, detail string) model.TaskEvent {
	return model.TaskEvent{
		TaskID:    task.ID,
		SessionID: task.SessionID,
		Status:    task.Status,
		Progress:  task.Progress,
		Detail:    detail,
		At:        task.UpdatedAt,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DescribeTask is the user-facing line for a task's current state
func DescribeTask(task model.UploadTask) string {
	switch task.Status {
	case model.TaskStatusCompleted:
		return "Property uploaded successfully."
	case model.TaskStatusFailed:
		return "Upload failed. Your details are kept; send any message to try again."
	case model.TaskStatusPending:
		return "Upload queued."
	default:
		return fmt.Sprintf("Upload in progress (%d%%).", task.Progress)
	}
}
