package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace_ListDirectChildren(t *testing.T) {
	meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	seed(t, meta, blobs, []string{"/A", "/A/B", "/A/B/C", "/A/D", "/AB"}, map[string][]string{"/A": {"one.txt"}})
	s := NewNamespaceService(meta, blobs, discard)

	got, err := s.List(context.Background(), testUser, "/A/")
	require.NoError(t, err)
	assert.Equal(t, []models.FolderEntry{{Name: "B", Path: "/A/B"}, {Name: "D", Path: "/A/D"}}, got.Folders)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "one.txt", got.Files[0].Filename)
	assert.Equal(t, "/A#one.txt", got.Files[0].FileID)
}

func TestNamespace_ListRootCreatesIt(t *testing.T) {
	meta := metadata.NewMemoryStore()
	s := NewNamespaceService(meta, objectstore.NewMemoryStore(), discard)

	got, err := s.List(context.Background(), "fresh", "/")
	require.NoError(t, err)
	assert.NotNil(t, got.Folders)
	assert.NotNil(t, got.Files)
	assert.Empty(t, got.Folders)
	assert.Equal(t, []string{"/"}, meta.Folders("fresh"))
}

func TestNamespace_ListErrors(t *testing.T) {
	s := NewNamespaceService(metadata.NewMemoryStore(), objectstore.NewMemoryStore(), discard)
	ctx := context.Background()

	_, err := s.List(ctx, testUser, "/missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.List(ctx, testUser, "rel/path")
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = s.List(ctx, "", "/")
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)
}

func TestNamespace_CreateFolder(t *testing.T) {
	meta := metadata.NewMemoryStore()
	s := NewNamespaceService(meta, objectstore.NewMemoryStore(), discard)
	ctx := context.Background()

	f, err := s.CreateFolder(ctx, testUser, "/docs//2024/")
	require.NoError(t, err)
	assert.Equal(t, "/docs/2024", f.Path)
	assert.NotEmpty(t, f.ID)

	_, err = s.CreateFolder(ctx, testUser, "/docs/2024")
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = s.CreateFolder(ctx, testUser, "/")
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = s.CreateFolder(ctx, testUser, "/a/../b")
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)

	// the missing parent is not implied
	id, ok, err := s.FolderExists(ctx, testUser, "/docs")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)

	id, ok, err = s.FolderExists(ctx, testUser, "/docs/2024")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, f.ID, id)

	listing, err := s.List(ctx, testUser, "/")
	require.NoError(t, err)
	assert.Equal(t, []models.FolderEntry{{Name: "docs", Path: "/docs"}}, listing.Folders)
}

func TestNamespace_FolderExistsRoot(t *testing.T) {
	meta := metadata.NewMemoryStore()
	s := NewNamespaceService(meta, objectstore.NewMemoryStore(), discard)

	id, ok, err := s.FolderExists(context.Background(), testUser, "/")
	require.NoError(t, err)
	assert.True(t, ok)
	root, _ := meta.EnsureRoot(context.Background(), testUser)
	assert.Equal(t, root, id)
}

func TestNamespace_DeleteFile(t *testing.T) {
	meta, blobs := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	seed(t, meta, blobs, []string{"/A"}, map[string][]string{"/A": {"x.bin"}})
	s := NewNamespaceService(meta, blobs, discard)
	ctx := context.Background()

	_, err := s.DeleteFile(ctx, "u2", "/A#x.bin")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 1, blobs.Len())

	f, err := s.DeleteFile(ctx, testUser, "/A#x.bin")
	require.NoError(t, err)
	assert.Equal(t, "x.bin", f.Filename)
	assert.Zero(t, meta.FileCount())
	assert.Zero(t, blobs.Len())

	_, err = s.DeleteFile(ctx, testUser, "/A#x.bin")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestNamespace_DeleteFileKeepsRowWhenBlobFails(t *testing.T) {
	meta, mem := metadata.NewMemoryStore(), objectstore.NewMemoryStore()
	seed(t, meta, mem, []string{"/A"}, map[string][]string{"/A": {"x-bad"}})
	s := NewNamespaceService(meta, &failingBlobs{Store: mem, failSuffix: "bad"}, discard)

	_, err := s.DeleteFile(context.Background(), testUser, "/A#x-bad")
	assert.ErrorIs(t, err, common.ErrorUpstreamUnavailable)
	assert.Equal(t, 1, meta.FileCount())
}

func TestValidateFilename(t *testing.T) {
	for _, name := range []string{"a.txt", "report 2024.pdf", ".hidden", "ünï"} {
		assert.NoError(t, validateFilename(name), name)
	}
	for _, name := range []string{"", ".", "..", "a/b", "bad\x00name", "tab\tname"} {
		assert.ErrorIs(t, validateFilename(name), common.ErrorInvalidArgument, name)
	}
}
