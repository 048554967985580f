package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"propertyagent/internal/model"
	"propertyagent/internal/observability"
	"propertyagent/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory() *SessionMemory {
	return NewSessionMemory(repository.NewInMemorySessionStore(0), nil)
}

func TestSessionMemoryMergesAcrossTurns(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()

	assert.Empty(t, mem.Get(ctx, "u1"))

	mem.Update(ctx, "u1", model.Fields{model.FieldTitle: "2BHK", model.FieldPrice: "70 lakh"})
	got := mem.Update(ctx, "u1", model.Fields{model.FieldPrice: "75 lakh", model.FieldArea: "950 sqft"})

	want := model.Fields{model.FieldTitle: "2BHK", model.FieldPrice: "75 lakh", model.FieldArea: "950 sqft"}
	assert.Equal(t, want, got)
	assert.Equal(t, want, mem.Get(ctx, "u1"))
	assert.Empty(t, mem.Get(ctx, "u2"), "sessions are isolated")
}

func TestSessionMemoryUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	partial := model.Fields{model.FieldLocation: "Noida"}

	first := mem.Update(ctx, "u1", partial)
	second := mem.Update(ctx, "u1", partial)
	assert.Equal(t, first, second)
}

func TestSessionMemoryClear(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Update(ctx, "u1", model.Fields{model.FieldTitle: "2BHK"})

	mem.Clear(ctx, "u1")
	assert.Empty(t, mem.Get(ctx, "u1"))
	assert.NotPanics(t, func() { mem.Clear(ctx, "never-seen") })
}

func TestSessionMemoryDegradesWhenStoreIsDown(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics("memory_test")
	mem := NewSessionMemory(brokenStore{}, m)

	assert.Empty(t, mem.Get(ctx, "u1"))

	partial := model.Fields{model.FieldTitle: "2BHK"}
	got := mem.Update(ctx, "u1", partial)
	assert.Equal(t, partial, got)
	got[model.FieldTitle] = "changed"
	assert.Equal(t, "2BHK", partial[model.FieldTitle], "a copy is returned")

	assert.NotPanics(t, func() { mem.Clear(ctx, "u1") })

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionErrors.WithLabelValues("get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionErrors.WithLabelValues("delete")))
}

func TestSessionLockSerializesOneSession(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := mem.Lock("u1")
			defer unlock()
			current := mem.Get(ctx, "u1")
			mem.Update(ctx, "u1", model.Fields{"count": current["count"] + "x"})
		}(i)
	}
	wg.Wait()

	assert.Len(t, mem.Get(ctx, "u1")["count"], 20, "no update may be lost")
	assert.Empty(t, mem.locks.locks, "released locks are forgotten")
}

func TestSessionLockDoesNotBlockOtherSessions(t *testing.T) {
	mem := newMemory()
	unlock := mem.Lock("u1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := mem.Lock("u2")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "session u2 waited for u1")
	}
}
