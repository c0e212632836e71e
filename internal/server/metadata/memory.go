package metadata

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/paths"
	"github.com/google/uuid"
)

type folderKey struct {
	userID string
	path   string
}

// MemoryStore is a Store kept in process memory. It mirrors the
// constraints of the relational schema: unique (user_id, path) for
// folders, unique storage_key for files and unique share tokens.
type MemoryStore struct {
	mu      sync.RWMutex
	folders map[folderKey]*models.Folder
	files   map[string]*models.File // by file id
	byKey   map[string]string       // storage key -> file id
	shares  map[string]*models.ShareToken
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders: make(map[folderKey]*models.Folder),
		files:   make(map[string]*models.File),
		byKey:   make(map[string]string),
		shares:  make(map[string]*models.ShareToken),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) FolderExists(_ context.Context, userID, path string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.folders[folderKey{userID, path}]
	if !ok {
		return "", false, nil
	}
	return f.ID, true, nil
}

func (m *MemoryStore) FolderIDExists(_ context.Context, userID, folderID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for k, f := range m.folders {
		if k.userID == userID && f.ID == folderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListFoldersUnder(_ context.Context, userID, path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for k := range m.folders {
		if k.userID == userID && paths.IsAncestor(path, k.path) {
			out = append(out, k.path)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *MemoryStore) ListFilesIn(_ context.Context, userID, folderID string) ([]*models.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.File
	for _, f := range m.files {
		if f.UserID == userID && f.FolderID == folderID {
			c := *f
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *models.File) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) InsertFolder(_ context.Context, userID, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := folderKey{userID, path}
	if _, ok := m.folders[k]; ok {
		return "", common.NewError(common.KindConflict, "folder %s already exists", path)
	}
	return m.insertFolderLocked(k), nil
}

func (m *MemoryStore) insertFolderLocked(k folderKey) string {
	now := m.now()
	f := &models.Folder{ID: uuid.NewString(), UserID: k.userID, Path: k.path, CreatedAt: now, ModifiedAt: now}
	m.folders[k] = f
	return f.ID
}

func (m *MemoryStore) EnsureRoot(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := folderKey{userID, paths.Root}
	if f, ok := m.folders[k]; ok {
		return f.ID, nil
	}
	return m.insertFolderLocked(k), nil
}

func (m *MemoryStore) DeleteFolder(_ context.Context, userID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := folderKey{userID, path}
	if _, ok := m.folders[k]; !ok {
		return common.NewError(common.KindNotFound, "folder %s not found", path)
	}
	delete(m.folders, k)
	return nil
}

func (m *MemoryStore) InsertFile(_ context.Context, file *models.File) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byKey[file.StorageKey]; ok {
		existing := m.files[id]
		existing.SizeBytes = file.SizeBytes
		existing.UploadedAt = file.UploadedAt
		return id, false, nil
	}
	c := *file
	m.files[c.ID] = &c
	m.byKey[c.StorageKey] = c.ID
	return c.ID, true, nil
}

func (m *MemoryStore) DeleteFile(_ context.Context, userID, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fileID]
	if !ok || f.UserID != userID {
		return common.NewError(common.KindNotFound, "file %s not found", fileID)
	}
	delete(m.files, fileID)
	delete(m.byKey, f.StorageKey)
	return nil
}

func (m *MemoryStore) GetFile(_ context.Context, userID, fileID string) (*models.File, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[fileID]
	if !ok || f.UserID != userID {
		return nil, false, nil
	}
	c := *f
	return &c, true, nil
}

func (m *MemoryStore) CreateShare(_ context.Context, share *models.ShareToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shares[share.Token]; ok {
		return common.NewError(common.KindConflict, "share token collision")
	}
	c := *share
	m.shares[c.Token] = &c
	return nil
}

func (m *MemoryStore) FindShare(_ context.Context, token string) (*models.ShareToken, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shares[token]
	if !ok {
		return nil, false, nil
	}
	c := *s
	return &c, true, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Folders returns a snapshot of every folder path of userID, sorted.
func (m *MemoryStore) Folders(userID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for k := range m.folders {
		if k.userID == userID {
			out = append(out, k.path)
		}
	}
	slices.Sort(out)
	return out
}

// FileCount reports how many file rows are stored.
func (m *MemoryStore) FileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
