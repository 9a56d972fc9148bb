package token

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRotationStore_Monotonic(t *testing.T) {
	t.Parallel()

	store := NewMemoryRotationStore()
	ctx := context.Background()

	current, err := store.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	first, err := store.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := store.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	// counters are per user
	other, err := store.Next(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestMemoryRotationStore_ConcurrentNext(t *testing.T) {
	t.Parallel()

	store := NewMemoryRotationStore()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = store.Next(ctx, "u1")
		}()
	}
	wg.Wait()

	current, err := store.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), current)
}
