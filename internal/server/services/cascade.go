// Package services contains server-side business logic: namespace
// listing and edits, cascade folder deletion, the upload coordinator and
// its metadata recorder, and share tokens.
package services

import (
	"context"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metrics"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/dmitrijs2005/sparkdrive/internal/server/paths"
)

// DeleteTask is one unit of cascade deletion: remove the folder at Path
// and everything below it. Depth is the number of dispatch hops from the
// folder the user asked to delete.
type DeleteTask struct {
	UserID string `json:"user_id"`
	Path   string `json:"path"`
	Depth  int    `json:"depth"`
}

// DeleteResult summarizes what a task removed, its subtree included.
type DeleteResult struct {
	Path           string `json:"path"`
	FoldersDeleted int    `json:"folders_deleted"`
	FilesDeleted   int    `json:"files_deleted"`
}

// Dispatcher runs a DeleteTask somewhere and reports its result. The
// engine only learns about a subtree's success through this return value.
type Dispatcher interface {
	Dispatch(ctx context.Context, task DeleteTask) (*DeleteResult, error)
}

// LocalDispatcher runs tasks in-process on the given engine.
type LocalDispatcher struct {
	Engine *CascadeEngine
}

func (d LocalDispatcher) Dispatch(ctx context.Context, task DeleteTask) (*DeleteResult, error) {
	return d.Engine.Step(ctx, task)
}

type CascadeEngine struct {
	meta       metadata.Store
	blobs      objectstore.Store
	dispatcher Dispatcher
	maxDepth   int
	log        logging.Logger
	metrics    *metrics.Metrics
}

// NewCascadeEngine returns an engine that dispatches child tasks back
// into itself.
func NewCascadeEngine(meta metadata.Store, blobs objectstore.Store, maxDepth int, log logging.Logger, m *metrics.Metrics) *CascadeEngine {
	e := &CascadeEngine{
		meta:     meta,
		blobs:    blobs,
		maxDepth: maxDepth,
		log:      log.With("module", "cascade"),
		metrics:  m,
	}
	e.dispatcher = LocalDispatcher{Engine: e}
	return e
}

// SetDispatcher routes child tasks through d instead of the engine itself.
func (e *CascadeEngine) SetDispatcher(d Dispatcher) {
	e.dispatcher = d
}

// MaxDepth is the deepest task depth the engine accepts.
func (e *CascadeEngine) MaxDepth() int {
	return e.maxDepth
}

// Delete removes the folder at path with its whole subtree, starting at
// the given depth (normally 0).
func (e *CascadeEngine) Delete(ctx context.Context, userID, path string, depth int) (*DeleteResult, error) {
	res, err := e.dispatcher.Dispatch(ctx, DeleteTask{UserID: userID, Path: path, Depth: depth})
	if err != nil {
		e.metrics.CascadeFailed(string(common.KindOf(err)))
		return nil, err
	}
	e.metrics.CascadeDeleted(res.FoldersDeleted, res.FilesDeleted)
	return res, nil
}

// Step executes one task: children first (sequentially, in path order,
// each through the dispatcher), then the folder's own files, then the
// folder row. The first failure stops the step before anything at this
// level is touched and is returned unchanged.
// A subtree that would need more hops than the depth limit allows is
// refused before the first child is dispatched.
func (e *CascadeEngine) Step(ctx context.Context, task DeleteTask) (*DeleteResult, error) {
	if task.Depth > e.maxDepth {
		e.log.Warn(ctx, "recursion limit reached", "user_id", task.UserID, "path", task.Path, "depth", task.Depth)
		return nil, common.NewError(common.KindRecursionLimitExceeded,
			"folder %s is nested deeper than %d levels", task.Path, e.maxDepth)
	}
	if task.Depth < 0 {
		return nil, common.NewError(common.KindInvalidArgument, "negative depth %d", task.Depth)
	}
	if task.UserID == "" {
		return nil, common.NewError(common.KindInvalidArgument, "missing user id")
	}
	p, err := paths.Canonical(task.Path)
	if err != nil {
		return nil, err
	}
	if paths.IsRoot(p) {
		return nil, common.NewError(common.KindInvalidArgument, "the root folder cannot be deleted")
	}

	log := e.log.With("user_id", task.UserID, "path", p, "depth", task.Depth)

	folderID, ok, err := e.meta.FolderExists(ctx, task.UserID, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.KindNotFound, "folder %s not found", p)
	}

	under, err := e.meta.ListFoldersUnder(ctx, task.UserID, p)
	if err != nil {
		return nil, err
	}

	if hops := subtreeHops(under, p); task.Depth+hops > e.maxDepth {
		log.Warn(ctx, "recursion limit reached", "subtree_hops", hops)
		return nil, common.NewError(common.KindRecursionLimitExceeded,
			"folder %s has a subtree %d levels deep, the limit is %d", p, task.Depth+hops, e.maxDepth)
	}

	res := &DeleteResult{Path: p}
	for _, child := range paths.NearestDescendants(under, p) {
		r, err := e.dispatcher.Dispatch(ctx, DeleteTask{UserID: task.UserID, Path: child, Depth: task.Depth + 1})
		if err != nil {
			log.Warn(ctx, "subtree delete failed", "child", child, "error", err)
			return nil, err
		}
		res.FoldersDeleted += r.FoldersDeleted
		res.FilesDeleted += r.FilesDeleted
	}

	files, err := e.meta.ListFilesIn(ctx, task.UserID, folderID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := e.blobs.Delete(ctx, f.StorageKey); err != nil {
			log.Error(ctx, "blob delete failed", "file_id", f.ID, "key", f.StorageKey, "error", err)
			return nil, err
		}
		if err := e.meta.DeleteFile(ctx, task.UserID, f.ID); err != nil {
			log.Error(ctx, "file row delete failed", "file_id", f.ID, "error", err)
			return nil, err
		}
		res.FilesDeleted++
	}

	if err := e.meta.DeleteFolder(ctx, task.UserID, p); err != nil {
		return nil, err
	}
	res.FoldersDeleted++

	log.Info(ctx, "folder deleted", "files", len(files), "subtree_folders", res.FoldersDeleted)
	return res, nil
}

// subtreeHops is the number of dispatch hops from ref down to its deepest
// folder in under.
func subtreeHops(under []string, ref string) int {
	deepest := 0
	for _, child := range paths.NearestDescendants(under, ref) {
		if h := 1 + subtreeHops(under, child); h > deepest {
			deepest = h
		}
	}
	return deepest
}
