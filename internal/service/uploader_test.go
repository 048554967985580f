package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"propertyagent/internal/config"
	"propertyagent/internal/model"
	"propertyagent/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastUploadConfig() config.UploadConfig {
	return config.UploadConfig{StepDelay: 0, MaxAttempts: 3, RetryBackoff: time.Millisecond}
}

func waitTerminal(t *testing.T, u *Uploader, taskID string) model.UploadTask {
	t.Helper()
	var task model.UploadTask
	require.Eventually(t, func() bool {
		var err error
		task, err = u.Get(taskID)
		return err == nil && task.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return task
}

func TestUploaderCompletesAndClearsMemory(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Update(ctx, "u1", completeRecord())
	catalog := &fakeCatalog{}
	m := observability.NewMetrics("uploader_ok")
	u := NewUploader(catalog, &fakeEmbedder{vector: []float32{0.1, 0.2}}, mem, fastUploadConfig(), m)

	task := u.Dispatch("u1", completeRecord())
	assert.Equal(t, model.TaskStatusPending, task.Status)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "2BHK", task.Title)

	done := waitTerminal(t, u, task.ID)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.Equal(t, model.ProgressDone, done.Progress)
	assert.Equal(t, 1, done.Attempts)
	assert.Equal(t, int64(1), done.ListingID)
	assert.NotNil(t, done.EndedAt)

	assert.Empty(t, mem.Get(ctx, "u1"))
	require.Equal(t, 1, catalog.savedCount())
	assert.Equal(t, []float32{0.1, 0.2}, catalog.saved[0].Embedding.Slice())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadTasks.WithLabelValues("completed")))
}

func TestUploaderRetriesThenSucceeds(t *testing.T) {
	catalog := &fakeCatalog{failures: 2}
	u := NewUploader(catalog, nil, newMemory(), fastUploadConfig(), nil)

	done := waitTerminal(t, u, u.Dispatch("u1", completeRecord()).ID)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.Equal(t, 3, done.Attempts)
}

func TestUploaderFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Update(ctx, "u1", completeRecord())
	catalog := &fakeCatalog{failures: 10}
	m := observability.NewMetrics("uploader_fail")
	u := NewUploader(catalog, nil, mem, fastUploadConfig(), m)

	task := u.Dispatch("u1", completeRecord())
	done := waitTerminal(t, u, task.ID)

	assert.Equal(t, model.TaskStatusFailed, done.Status)
	assert.Equal(t, 3, done.Attempts)
	assert.Contains(t, done.Error, "catalog unavailable")
	assert.Less(t, done.Progress, model.ProgressPersisted)
	assert.Equal(t, completeRecord(), mem.Get(ctx, "u1"), "record survives a failed upload")

	latest, ok := u.Latest("u1")
	require.True(t, ok)
	assert.Equal(t, task.ID, latest.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadTasks.WithLabelValues("failed")))
}

func TestUploaderEmbeddingFailureIsNotFatal(t *testing.T) {
	catalog := &fakeCatalog{}
	u := NewUploader(catalog, &fakeEmbedder{err: errors.New("quota exceeded")}, newMemory(), fastUploadConfig(), nil)

	done := waitTerminal(t, u, u.Dispatch("u1", completeRecord()).ID)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	require.Equal(t, 1, catalog.savedCount())
	assert.Empty(t, catalog.saved[0].Embedding.Slice())
}

func TestUploaderIncompleteRecordFails(t *testing.T) {
	u := NewUploader(&fakeCatalog{}, nil, newMemory(), fastUploadConfig(), nil)
	done := waitTerminal(t, u, u.Dispatch("u1", model.Fields{model.FieldTitle: "2BHK"}).ID)
	assert.Equal(t, model.TaskStatusFailed, done.Status)
	assert.Contains(t, done.Error, "missing")
}

func TestUploaderSubscribeStreamsProgress(t *testing.T) {
	catalog := &fakeCatalog{release: make(chan struct{})}
	u := NewUploader(catalog, nil, newMemory(), fastUploadConfig(), nil)

	task := u.Dispatch("u1", completeRecord())
	events, cancel, err := u.Subscribe(task.ID)
	require.NoError(t, err)
	defer cancel()
	close(catalog.release)

	var progress []int
	for evt := range events {
		progress = append(progress, evt.Progress)
	}
	require.NotEmpty(t, progress)
	assert.Equal(t, model.ProgressDone, progress[len(progress)-1])
	assert.Contains(t, progress, model.ProgressPersisted)

	// subscribing to a finished task yields its final state and closes
	late, _, err := u.Subscribe(task.ID)
	require.NoError(t, err)
	evt, ok := <-late
	require.True(t, ok)
	assert.Equal(t, model.TaskStatusCompleted, evt.Status)
	_, ok = <-late
	assert.False(t, ok)
}

func TestUploaderUnknownTask(t *testing.T) {
	u := NewUploader(&fakeCatalog{}, nil, newMemory(), fastUploadConfig(), nil)

	_, err := u.Get("nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, _, err = u.Subscribe("nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, ok := u.Latest("u1")
	assert.False(t, ok)
}

func TestUploaderKeepsRecordUntilSaved(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Update(ctx, "u1", completeRecord())
	catalog := &fakeCatalog{release: make(chan struct{})}
	u := NewUploader(catalog, nil, mem, fastUploadConfig(), nil)

	task := u.Dispatch("u1", completeRecord())
	require.Eventually(t, func() bool {
		got, err := u.Get(task.ID)
		return err == nil && got.Attempts == 1
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, completeRecord(), mem.Get(ctx, "u1"), "record is kept while the save is in flight")

	close(catalog.release)
	done := waitTerminal(t, u, task.ID)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.Empty(t, mem.Get(ctx, "u1"))
}

func TestUploaderShutdownWaitsForRunningTask(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Update(ctx, "u1", completeRecord())
	catalog := &fakeCatalog{}
	cfg := fastUploadConfig()
	cfg.StepDelay = 20 * time.Millisecond
	u := NewUploader(catalog, nil, mem, cfg, nil)

	task := u.Dispatch("u1", completeRecord())

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, u.Shutdown(shutdownCtx))

	done, err := u.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.Equal(t, 1, catalog.savedCount())
	assert.Empty(t, mem.Get(ctx, "u1"))
}

func TestUploaderShutdownDeadlineCancelsUnsavedTask(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Update(ctx, "u1", completeRecord())
	catalog := &fakeCatalog{release: make(chan struct{})}
	u := NewUploader(catalog, nil, mem, fastUploadConfig(), nil)
	task := u.Dispatch("u1", completeRecord())

	shutdownCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, u.Shutdown(shutdownCtx), context.DeadlineExceeded)

	done, err := u.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusFailed, done.Status)
	assert.Zero(t, catalog.savedCount())
	assert.Equal(t, completeRecord(), mem.Get(ctx, "u1"))
}

func TestUploaderCancelAfterSaveStillCompletes(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Update(ctx, "u1", completeRecord())
	catalog := &fakeCatalog{}
	cfg := fastUploadConfig()
	cfg.StepDelay = 50 * time.Millisecond
	u := NewUploader(catalog, nil, mem, cfg, nil)
	task := u.Dispatch("u1", completeRecord())

	require.Eventually(t, func() bool { return catalog.savedCount() == 1 }, 2*time.Second, time.Millisecond)

	expired, cancel := context.WithCancel(ctx)
	cancel()
	_ = u.Shutdown(expired)

	done, err := u.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.Empty(t, done.Error)
	assert.Equal(t, model.ProgressDone, done.Progress)
	assert.Empty(t, mem.Get(ctx, "u1"), "a saved listing must not stay in the session")
}

func TestUploaderEvictsOldFinishedTasks(t *testing.T) {
	cfg := fastUploadConfig()
	cfg.Retention = time.Hour
	u := NewUploader(&fakeCatalog{}, nil, newMemory(), cfg, nil)

	first := waitTerminal(t, u, u.Dispatch("u1", completeRecord()).ID)
	second := waitTerminal(t, u, u.Dispatch("u1", completeRecord()).ID)
	other := waitTerminal(t, u, u.Dispatch("u2", completeRecord()).ID)

	u.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	fresh := u.Dispatch("u3", completeRecord())

	_, err := u.Get(first.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	for _, id := range []string{second.ID, other.ID, fresh.ID} {
		_, err := u.Get(id)
		assert.NoError(t, err)
	}
	latest, ok := u.Latest("u1")
	require.True(t, ok)
	assert.Equal(t, second.ID, latest.ID)
}

func TestUploaderZeroRetentionKeepsTasks(t *testing.T) {
	u := NewUploader(&fakeCatalog{}, nil, newMemory(), fastUploadConfig(), nil)
	first := waitTerminal(t, u, u.Dispatch("u1", completeRecord()).ID)
	waitTerminal(t, u, u.Dispatch("u1", completeRecord()).ID)

	u.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	u.Dispatch("u2", completeRecord())

	_, err := u.Get(first.ID)
	assert.NoError(t, err)
}
