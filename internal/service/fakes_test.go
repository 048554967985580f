package service

import (
	"context"
	"errors"
	"sync"

	"propertyagent/internal/model"
)

type fakeCompleter struct {
	mu       sync.Mutex
	answer   string
	err      error
	block    bool // wait for ctx to expire
	disabled bool
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func (f *fakeCompleter) IsEnabled() bool { return !f.disabled }

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeCatalog struct {
	mu       sync.Mutex
	failures int // number of leading SaveListing calls that fail
	calls    int
	saved    []*model.Listing
	release  chan struct{} // when set, SaveListing waits on it
}

func (c *fakeCatalog) SaveListing(ctx context.Context, l *model.Listing) (int64, error) {
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failures {
		return 0, errors.New("catalog unavailable")
	}
	c.saved = append(c.saved, l)
	return int64(len(c.saved)), nil
}

func (c *fakeCatalog) savedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saved)
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeEmbedder) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func (e *fakeEmbedder) IsEnabled() bool { return true }

// brokenStore fails every operation, like an unreachable Redis
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (model.Fields, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, model.Fields) error {
	return errors.New("connection refused")
}
func (brokenStore) Delete(context.Context, string) error { return errors.New("connection refused") }
func (brokenStore) Close() error                         { return nil }

func completeRecord() model.Fields {
	return model.Fields{
		model.FieldTitle:     "2BHK",
		model.FieldLocation:  "Noida",
		model.FieldPrice:     "75 lakh",
		model.FieldArea:      "950 sqft",
		model.FieldAmenities: "Lift, Parking",
		model.FieldImages:    "Provided",
	}
}
