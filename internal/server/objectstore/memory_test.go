package objectstore

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	m.now = func() time.Time { return time.Unix(1000, 0) }
	ctx := context.Background()

	var _ Store = m

	src := []byte("v1")
	require.NoError(t, m.Put(ctx, "d1/a", src))
	src[0] = 'X'
	got, ok := m.Get("d1/a")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got, "Put copies its input")

	require.NoError(t, m.Put(ctx, "d1/a", []byte("v2")))
	got, _ = m.Get("d1/a")
	assert.Equal(t, []byte("v2"), got, "last write wins")
	assert.Equal(t, 1, m.Len())

	u, err := m.PresignGet(ctx, "d1/a", 4*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "mem://sparkdrive/d1/a?expires=1240", u)

	_, err = m.PresignGet(ctx, "missing", time.Minute)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, m.Delete(ctx, "d1/a"))
	require.NoError(t, m.Delete(ctx, "d1/a"))
	assert.Equal(t, 0, m.Len())
}
