package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	var ctx = context.Background()
	var m = NewMemory()

	var _, err = m.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, m.Put(ctx, "raw-data/2025-03-30/offset_0.json", []byte(`{"a":1}`)))

	data, err := m.Get(ctx, "raw-data/2025-03-30/offset_0.json")
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(data))

	// Writes replace prior contents.
	require.NoError(t, m.Put(ctx, "raw-data/2025-03-30/offset_0.json", []byte(`{"a":2}`)))
	data, err = m.Get(ctx, "raw-data/2025-03-30/offset_0.json")
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, string(data))
}

func TestMemoryCopiesData(t *testing.T) {
	var ctx = context.Background()
	var m = NewMemory()

	var in = []byte("hello")
	require.NoError(t, m.Put(ctx, "obj", in))
	in[0] = 'X' // Mutating the caller's buffer must not affect the store.

	var out, err = m.Get(ctx, "obj")
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))
}
