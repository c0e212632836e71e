package services

import (
	"context"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metrics"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
)

// UploadRecorder consumes upload events and records file metadata.
type UploadRecorder struct {
	meta    metadata.Store
	blobs   objectstore.Store
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewUploadRecorder(meta metadata.Store, blobs objectstore.Store, log logging.Logger, m *metrics.Metrics) *UploadRecorder {
	return &UploadRecorder{meta: meta, blobs: blobs, log: log.With("module", "recorder"), metrics: m}
}

// Handle is an events.Handler. Redelivery of an event already recorded is
// a no-op; a later event for the same storage key overwrites size and time.
// An event whose folder is gone by now records nothing and its blob is
// removed.
func (r *UploadRecorder) Handle(ctx context.Context, ev *models.UploadEvent) error {
	if err := ev.Validate(); err != nil {
		r.metrics.EventRecorded("invalid")
		r.log.Warn(ctx, "invalid upload event", "file_id", ev.FileID, "key", ev.StorageKey, "error", err)
		return common.WrapError(common.KindInvalidArgument, err, "invalid upload event")
	}

	ok, err := r.meta.FolderIDExists(ctx, ev.UserID, ev.FolderID)
	if err != nil {
		return err
	}
	if !ok {
		if err := r.blobs.Delete(ctx, ev.StorageKey); err != nil {
			r.log.Error(ctx, "orphaned blob delete failed", "file_id", ev.FileID, "key", ev.StorageKey, "error", err)
			return err
		}
		r.metrics.EventRecorded("orphaned")
		r.log.Warn(ctx, "folder gone before upload was recorded", "file_id", ev.FileID, "folder_id", ev.FolderID, "key", ev.StorageKey)
		return nil
	}

	id, inserted, err := r.meta.InsertFile(ctx, ev.File())
	if err != nil {
		r.log.Error(ctx, "file record failed", "file_id", ev.FileID, "key", ev.StorageKey, "error", err)
		return err
	}

	switch {
	case inserted:
		r.metrics.EventRecorded("inserted")
	case id == ev.FileID:
		r.metrics.EventRecorded("duplicate")
	default:
		r.metrics.EventRecorded("overwrite")
	}
	r.log.Debug(ctx, "file recorded", "file_id", id, "key", ev.StorageKey, "inserted", inserted)
	return nil
}
