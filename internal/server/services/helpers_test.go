package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/stretchr/testify/require"
)

const testUser = "u1"

// seed creates folders and one file per entry of files (folder path -> names).
func seed(t *testing.T, meta *metadata.MemoryStore, blobs *objectstore.MemoryStore, folders []string, files map[string][]string) {
	t.Helper()
	ctx := context.Background()
	_, err := meta.EnsureRoot(ctx, testUser)
	require.NoError(t, err)
	for _, p := range folders {
		_, err := meta.InsertFolder(ctx, testUser, p)
		require.NoError(t, err)
	}
	n := 0
	for p, names := range files {
		folderID, ok, err := meta.FolderExists(ctx, testUser, p)
		require.NoError(t, err)
		require.True(t, ok, "seed folder %s", p)
		for _, name := range names {
			n++
			key := StorageKey(folderID, name)
			require.NoError(t, blobs.Put(ctx, key, []byte(name)))
			_, _, err := meta.InsertFile(ctx, &models.File{
				ID: p + "#" + name, UserID: testUser, FolderID: folderID,
				Filename: name, StorageKey: key, SizeBytes: int64(len(name)),
			})
			require.NoError(t, err)
		}
	}
}

func filesIn(t *testing.T, meta metadata.Store, path string) int {
	t.Helper()
	ctx := context.Background()
	id, ok, err := meta.FolderExists(ctx, testUser, path)
	require.NoError(t, err)
	if !ok {
		return -1
	}
	fs, err := meta.ListFilesIn(ctx, testUser, id)
	require.NoError(t, err)
	return len(fs)
}

var discard = logging.Discard()
