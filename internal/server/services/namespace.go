package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/dmitrijs2005/sparkdrive/internal/server/paths"
)

// Listing is the content of one folder: its direct child folders and its
// own files.
type Listing struct {
	Folders []models.FolderEntry `json:"folders"`
	Files   []models.FileEntry   `json:"files"`
}

// NamespaceService serves folder listings and single-item edits.
type NamespaceService struct {
	meta  metadata.Store
	blobs objectstore.Store
	log   logging.Logger
}

func NewNamespaceService(meta metadata.Store, blobs objectstore.Store, log logging.Logger) *NamespaceService {
	return &NamespaceService{meta: meta, blobs: blobs, log: log.With("module", "namespace")}
}

// resolve canonicalizes path and returns the folder id. The root is
// created on first use.
func (s *NamespaceService) resolve(ctx context.Context, userID, path string) (string, string, bool, error) {
	return resolveFolder(ctx, s.meta, userID, path)
}

func resolveFolder(ctx context.Context, meta metadata.Store, userID, path string) (string, string, bool, error) {
	if userID == "" {
		return "", "", false, common.NewError(common.KindInvalidArgument, "missing user id")
	}
	p, err := paths.Canonical(path)
	if err != nil {
		return "", "", false, err
	}
	if paths.IsRoot(p) {
		id, err := meta.EnsureRoot(ctx, userID)
		if err != nil {
			return "", "", false, err
		}
		return p, id, true, nil
	}
	id, ok, err := meta.FolderExists(ctx, userID, p)
	return p, id, ok, err
}

// List returns the direct children and files of the folder at path.
func (s *NamespaceService) List(ctx context.Context, userID, path string) (*Listing, error) {
	p, folderID, ok, err := s.resolve(ctx, userID, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.KindNotFound, "folder %s not found", p)
	}

	under, err := s.meta.ListFoldersUnder(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	files, err := s.meta.ListFilesIn(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}

	out := &Listing{
		Folders: make([]models.FolderEntry, 0),
		Files:   make([]models.FileEntry, 0, len(files)),
	}
	for _, c := range paths.DirectChildren(under, p) {
		out.Folders = append(out.Folders, models.FolderEntry{Name: c.Name, Path: c.Path})
	}
	for _, f := range files {
		out.Files = append(out.Files, f.Entry())
	}
	return out, nil
}

// FolderExists reports whether a folder exists at exactly path.
func (s *NamespaceService) FolderExists(ctx context.Context, userID, path string) (string, bool, error) {
	_, id, ok, err := s.resolve(ctx, userID, path)
	return id, ok, err
}

// CreateFolder inserts a folder at path. Parents are not required to
// exist; an existing folder at path is a conflict.
func (s *NamespaceService) CreateFolder(ctx context.Context, userID, path string) (*models.Folder, error) {
	if userID == "" {
		return nil, common.NewError(common.KindInvalidArgument, "missing user id")
	}
	p, err := paths.Canonical(path)
	if err != nil {
		return nil, err
	}
	if paths.IsRoot(p) {
		return nil, common.NewError(common.KindConflict, "the root folder always exists")
	}
	if _, err := s.meta.EnsureRoot(ctx, userID); err != nil {
		return nil, err
	}

	id, err := s.meta.InsertFolder(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "folder created", "user_id", userID, "path", p, "folder_id", id)
	return &models.Folder{ID: id, UserID: userID, Path: p}, nil
}

// DeleteFile removes one file: blob first, then its row.
func (s *NamespaceService) DeleteFile(ctx context.Context, userID, fileID string) (*models.File, error) {
	if userID == "" || fileID == "" {
		return nil, common.NewError(common.KindInvalidArgument, "missing user id or file id")
	}
	f, ok, err := s.meta.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.KindNotFound, "file %s not found", fileID)
	}
	if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
		return nil, err
	}
	if err := s.meta.DeleteFile(ctx, userID, fileID); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "file deleted", "user_id", userID, "file_id", fileID, "key", f.StorageKey)
	return f, nil
}

// validateFilename accepts a single path segment.
func validateFilename(name string) error {
	switch {
	case name == "":
		return common.NewError(common.KindInvalidArgument, "filename is empty")
	case name == "." || name == "..":
		return common.NewError(common.KindInvalidArgument, "filename %q is reserved", name)
	case strings.Contains(name, "/"):
		return common.NewError(common.KindInvalidArgument, "filename %q contains a path separator", name)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return common.NewError(common.KindInvalidArgument, "filename contains control characters")
	}
	return nil
}
