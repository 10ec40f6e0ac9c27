package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renatodap/coach-context/internal/testutil"
)

func TestLruEmbedderCachesByTextAndTaskType(t *testing.T) {
	fake := &testutil.FakeEmbedder{Dims: 8}
	cached := WrapLruCacheToEmbedder(fake, 16, time.Minute)

	ctx := context.Background()
	first, err := cached.Embed(ctx, "bench press 3x5", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "bench press 3x5", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, fake.CallCount())

	// same text under a different task type is a distinct key
	_, err = cached.Embed(ctx, "bench press 3x5", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 2, fake.CallCount())
}

func TestLruEmbedderReturnsCopy(t *testing.T) {
	fake := &testutil.FakeEmbedder{Dims: 4}
	cached := WrapLruCacheToEmbedder(fake, 16, time.Minute)

	ctx := context.Background()
	first, err := cached.Embed(ctx, "squat day", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	first[0] = 99

	second, err := cached.Embed(ctx, "squat day", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.NotEqual(t, float32(99), second[0])
}

func TestWrapLruCacheToEmbedderDisabled(t *testing.T) {
	fake := &testutil.FakeEmbedder{Dims: 4}
	require.Same(t, fake, WrapLruCacheToEmbedder(fake, 0, time.Minute).(*testutil.FakeEmbedder))
	require.Same(t, fake, WrapLruCacheToEmbedder(fake, 16, 0).(*testutil.FakeEmbedder))
}
