package events

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(Options{InMemory: true, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func event(id string) *models.UploadEvent {
	return &models.UploadEvent{
		FileID: id, UserID: "u1", FolderID: "d1", Filename: id + ".txt",
		StorageKey: "d1/" + id + ".txt", SizeBytes: 1,
		UploadedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestQueue_DeliversInPublishOrder(t *testing.T) {
	q := openMem(t)
	ctx := context.Background()

	var _ Publisher = q

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Publish(ctx, event(id)))
	}
	n, err := q.Pending()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var got []string
	done, err := q.Drain(ctx, func(_ context.Context, e *models.UploadEvent) error {
		got = append(got, e.FileID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, done)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	n, _ = q.Pending()
	assert.Zero(t, n)
}

func TestQueue_RetryableErrorKeepsEvent(t *testing.T) {
	q := openMem(t)
	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, event("a")))
	require.NoError(t, q.Publish(ctx, event("b")))

	calls := 0
	done, err := q.Drain(ctx, func(_ context.Context, e *models.UploadEvent) error {
		calls++
		return common.WrapError(common.KindUpstreamUnavailable, errors.New("db down"), "insert")
	})
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Equal(t, 1, calls, "later events wait behind the failing one")

	n, _ := q.Pending()
	assert.Equal(t, 2, n)

	var got []string
	_, err = q.Drain(ctx, func(_ context.Context, e *models.UploadEvent) error {
		got = append(got, e.FileID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got, "redelivered")
}

func TestQueue_InvalidEventIsDropped(t *testing.T) {
	q := openMem(t)
	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, &models.UploadEvent{FileID: "bad"}))
	require.NoError(t, q.Publish(ctx, event("good")))

	var got []string
	done, err := q.Drain(ctx, func(_ context.Context, e *models.UploadEvent) error {
		if err := e.Validate(); err != nil {
			return common.WrapError(common.KindInvalidArgument, err, "upload event")
		}
		got = append(got, e.FileID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, done)
	assert.Equal(t, []string{"good"}, got)
}

func TestQueue_RunStopsOnCancel(t *testing.T) {
	q := openMem(t)
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu  sync.Mutex
		got []string
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Run(ctx, func(_ context.Context, e *models.UploadEvent) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, e.FileID)
			return nil
		})
	}()

	require.NoError(t, q.Publish(context.Background(), event("a")))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestQueue_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "queue")
	ctx := context.Background()

	q, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, event("a")))
	require.NoError(t, q.Close())

	q, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer q.Close()
	require.NoError(t, q.Publish(ctx, event("b")))

	var got []string
	_, err = q.Drain(ctx, func(_ context.Context, e *models.UploadEvent) error {
		got = append(got, e.FileID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestQueue_PublishCancelled(t *testing.T) {
	q := openMem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, q.Publish(ctx, event("a")), context.Canceled)
}
