package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBlobs fails Delete for keys ending in failSuffix.
type failingBlobs struct {
	objectstore.Store
	failSuffix string
}

func (f *failingBlobs) Delete(ctx context.Context, key string) error {
	if strings.HasSuffix(key, f.failSuffix) {
		return common.WrapError(common.KindUpstreamUnavailable, errors.New("boom"), "object store: delete %s", key)
	}
	return f.Store.Delete(ctx, key)
}

// countingMeta counts calls reaching the store.
type countingMeta struct {
	metadata.Store
	calls int
}

func (c *countingMeta) FolderExists(ctx context.Context, userID, path string) (string, bool, error) {
	c.calls++
	return c.Store.FolderExists(ctx, userID, path)
}

func (c *countingMeta) ListFoldersUnder(ctx context.Context, userID, path string) ([]string, error) {
	c.calls++
	return c.Store.ListFoldersUnder(ctx, userID, path)
}

type recordingDispatcher struct {
	next  Dispatcher
	tasks []DeleteTask
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, task DeleteTask) (*DeleteResult, error) {
	r.tasks = append(r.tasks, task)
	return r.next.Dispatch(ctx, task)
}

func TestCascade_DeletesWholeSubtree(t *testing.T) {
	meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	seed(t, meta, blobs,
		[]string{"/A", "/A/B", "/A/B/C", "/A/D", "/AB"},
		map[string][]string{
			"/A":     {"a1", "a2"},
			"/A/B/C": {"c1"},
			"/A/D":   {"d1"},
			"/AB":    {"keep"},
		})

	e := NewCascadeEngine(meta, blobs, 30, discard, nil)
	res, err := e.Delete(context.Background(), testUser, "/A/", 0)
	require.NoError(t, err)

	assert.Equal(t, &DeleteResult{Path: "/A", FoldersDeleted: 4, FilesDeleted: 4}, res)
	assert.Equal(t, []string{"/", "/AB"}, meta.Folders(testUser))
	assert.Equal(t, 1, meta.FileCount())
	assert.Equal(t, 1, blobs.Len())
}

func TestCascade_DispatchOrderAndDepth(t *testing.T) {
	meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	seed(t, meta, blobs, []string{"/A", "/A/D", "/A/B", "/A/B/C"}, nil)

	e := NewCascadeEngine(meta, blobs, 30, discard, nil)
	rec := &recordingDispatcher{next: LocalDispatcher{Engine: e}}
	e.SetDispatcher(rec)

	_, err := e.Delete(context.Background(), testUser, "/A", 0)
	require.NoError(t, err)

	want := []DeleteTask{
		{UserID: testUser, Path: "/A", Depth: 0},
		{UserID: testUser, Path: "/A/B", Depth: 1},
		{UserID: testUser, Path: "/A/B/C", Depth: 2},
		{UserID: testUser, Path: "/A/D", Depth: 1},
	}
	if diff := cmp.Diff(want, rec.tasks); diff != "" {
		t.Fatalf("dispatched tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestCascade_GapInPathsIsFollowed(t *testing.T) {
	meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	seed(t, meta, blobs, []string{"/A", "/A/B/C"}, map[string][]string{"/A/B/C": {"x"}})

	e := NewCascadeEngine(meta, blobs, 30, discard, nil)
	res, err := e.Delete(context.Background(), testUser, "/A", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FoldersDeleted)
	assert.Equal(t, []string{"/"}, meta.Folders(testUser))
	assert.Zero(t, blobs.Len())
}

func TestCascade_FailureLeavesShallowerLevelsIntact(t *testing.T) {
	meta, mem := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	folders := []string{"/A", "/A/B", "/A/B/C", "/A/D"}
	seed(t, meta, mem, folders, map[string][]string{
		"/A":     {"a1"},
		"/A/B":   {"b1"},
		"/A/B/C": {"c-bad"},
		"/A/D":   {"d1"},
	})

	e := NewCascadeEngine(meta, &failingBlobs{Store: mem, failSuffix: "bad"}, 30, discard, nil)
	_, err := e.Delete(context.Background(), testUser, "/A", 0)
	require.Error(t, err)
	assert.Equal(t, common.KindUpstreamUnavailable, common.KindOf(err))

	// nothing at or above the failing level is removed, nor any later sibling
	assert.Equal(t, append([]string{"/"}, folders...), meta.Folders(testUser))
	assert.Equal(t, 1, filesIn(t, meta, "/A"))
	assert.Equal(t, 1, filesIn(t, meta, "/A/B"))
	assert.Equal(t, 1, filesIn(t, meta, "/A/D"))
	assert.Equal(t, 1, filesIn(t, meta, "/A/B/C"))
}

func TestCascade_RecursionLimit(t *testing.T) {
	const limit = 3
	chain := []string{"/c1", "/c1/c2", "/c1/c2/c3", "/c1/c2/c3/c4", "/c1/c2/c3/c4/c5"}

	t.Run("chain past the limit is refused and kept", func(t *testing.T) {
		meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
		seed(t, meta, blobs, chain, map[string][]string{"/c1": {"top"}, "/c1/c2/c3/c4/c5": {"deep"}})

		e := NewCascadeEngine(meta, blobs, limit, discard, nil)
		_, err := e.Delete(context.Background(), testUser, "/c1", 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrRecursionLimitExceeded)

		assert.Equal(t, append([]string{"/"}, chain...), meta.Folders(testUser))
		assert.Equal(t, 2, meta.FileCount())
		assert.Equal(t, 2, blobs.Len())
	})

	t.Run("chain at the limit is deleted", func(t *testing.T) {
		meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
		seed(t, meta, blobs, chain[:limit+1], nil)

		e := NewCascadeEngine(meta, blobs, limit, discard, nil)
		res, err := e.Delete(context.Background(), testUser, "/c1", 0)
		require.NoError(t, err)
		assert.Equal(t, limit+1, res.FoldersDeleted)
	})

	t.Run("deep branch keeps earlier siblings", func(t *testing.T) {
		meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
		folders := []string{"/A", "/A/a", "/A/z", "/A/z/1", "/A/z/1/2", "/A/z/1/2/3"}
		seed(t, meta, blobs, folders, map[string][]string{"/A/a": {"keep.txt"}})

		e := NewCascadeEngine(meta, blobs, limit, discard, nil)
		_, err := e.Delete(context.Background(), testUser, "/A", 0)
		assert.ErrorIs(t, err, common.ErrRecursionLimitExceeded)

		assert.Equal(t, append([]string{"/"}, folders...), meta.Folders(testUser))
		assert.Equal(t, 1, filesIn(t, meta, "/A/a"))
		assert.Equal(t, 1, blobs.Len())
	})

	t.Run("checked before any store access", func(t *testing.T) {
		meta := &countingMeta{Store: metadata.NewMemoryStore()}
		e := NewCascadeEngine(meta, objectstore.NewMemoryStore(), limit, discard, nil)

		_, err := e.Step(context.Background(), DeleteTask{UserID: testUser, Path: "/x", Depth: limit + 1})
		assert.ErrorIs(t, err, common.ErrRecursionLimitExceeded)
		assert.Zero(t, meta.calls)
	})
}

func TestCascade_InvalidTasks(t *testing.T) {
	meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	seed(t, meta, blobs, []string{"/A"}, map[string][]string{"/": {"r"}})
	e := NewCascadeEngine(meta, blobs, 30, discard, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		task DeleteTask
		kind common.Kind
	}{
		{"root", DeleteTask{UserID: testUser, Path: "/"}, common.KindInvalidArgument},
		{"root with slashes", DeleteTask{UserID: testUser, Path: "///"}, common.KindInvalidArgument},
		{"empty root", DeleteTask{UserID: "u3", Path: "/"}, common.KindInvalidArgument},
		{"relative", DeleteTask{UserID: testUser, Path: "A"}, common.KindInvalidArgument},
		{"dot segment", DeleteTask{UserID: testUser, Path: "/A/../B"}, common.KindInvalidArgument},
		{"negative depth", DeleteTask{UserID: testUser, Path: "/A", Depth: -1}, common.KindInvalidArgument},
		{"no user", DeleteTask{Path: "/A"}, common.KindInvalidArgument},
		{"missing", DeleteTask{UserID: testUser, Path: "/nope"}, common.KindNotFound},
		{"other user", DeleteTask{UserID: "u2", Path: "/A"}, common.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Step(ctx, tt.task)
			require.Error(t, err)
			assert.Equal(t, tt.kind, common.KindOf(err))
		})
	}

	assert.Equal(t, []string{"/", "/A"}, meta.Folders(testUser))
	assert.Equal(t, 1, meta.FileCount())
}
