package testutil

import (
	"context"
	"crypto/sha256"
	"sync"
)

// FakeEmbedder is a deterministic in-memory ai.IEmbedder. Identical text
// always produces the identical vector, so dedup and search tests behave
// like they would against a real provider.
type FakeEmbedder struct {
	mu     sync.Mutex
	Dims   int
	Model  string
	Err    error            // fail every call
	FailOn map[string]error // fail specific inputs
	// BadDims, when set, makes the produced vector length differ from the
	// declared Dimensions to exercise the strict store check.
	BadDims int
	Calls   int
}

func NewFakeEmbedder(dims int) *FakeEmbedder {
	return &FakeEmbedder{Dims: dims, Model: "fake-embedding"}
}

func (f *FakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.mu.Lock()
	f.Calls++
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if err, ok := f.FailOn[text]; ok {
		return nil, err
	}
	dims := f.Dims
	if f.BadDims > 0 {
		dims = f.BadDims
	}
	hash := sha256.Sum256([]byte(text))
	vector := make([]float32, dims)
	for i := range vector {
		vector[i] = float32(hash[i%len(hash)]) / 255
	}
	return vector, nil
}

func (f *FakeEmbedder) ModelName() string {
	return f.Model
}

func (f *FakeEmbedder) Dimensions() int {
	return f.Dims
}

func (f *FakeEmbedder) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}
