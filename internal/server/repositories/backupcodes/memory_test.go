package backupcodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.Replace(ctx, "u-1", []string{"h1", "h2"}))

	ok, err := r.Consume(ctx, "u-1", "h1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = r.Consume(ctx, "u-1", "h1")
	assert.False(t, ok, "codes are single use")

	ok, _ = r.Consume(ctx, "u-2", "h2")
	assert.False(t, ok, "codes belong to one user")

	require.NoError(t, r.Replace(ctx, "u-1", []string{"h3"}))
	ok, _ = r.Consume(ctx, "u-1", "h2")
	assert.False(t, ok, "replaced batch is gone")

	require.NoError(t, r.DeleteAll(ctx, "u-1"))
	ok, _ = r.Consume(ctx, "u-1", "h3")
	assert.False(t, ok)
}
