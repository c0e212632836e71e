package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/events"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metrics"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/google/uuid"
)

type UploadResult struct {
	FileID    string `json:"file_id"`
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
}

// UploadCoordinator writes the blob synchronously and leaves the metadata
// row to the event consumer.
type UploadCoordinator struct {
	meta      metadata.Store
	blobs     objectstore.Store
	publisher events.Publisher
	log       logging.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewUploadCoordinator(meta metadata.Store, blobs objectstore.Store, pub events.Publisher, log logging.Logger, m *metrics.Metrics) *UploadCoordinator {
	return &UploadCoordinator{
		meta:      meta,
		blobs:     blobs,
		publisher: pub,
		log:       log.With("module", "upload"),
		metrics:   m,
		now:       time.Now,
	}
}

// StorageKey is the object key of filename inside a folder.
func StorageKey(folderID, filename string) string {
	return folderID + "/" + filename
}

var fileIDSpace = uuid.MustParse("3b8f7c52-1d6e-4a0b-9f24-6c5e81d07a93")

// FileID is the id of the file stored under key. Re-uploading the same
// name into the same folder yields the same id, which is the id the
// metadata row keeps.
func FileID(key string) string {
	return uuid.NewSHA1(fileIDSpace, []byte(key)).String()
}

func (c *UploadCoordinator) Upload(ctx context.Context, userID, folderPath, filename string, content []byte) (*UploadResult, error) {
	if err := validateFilename(filename); err != nil {
		c.metrics.Upload("rejected", 0)
		return nil, err
	}
	p, folderID, ok, err := resolveFolder(ctx, c.meta, userID, folderPath)
	if err != nil {
		c.metrics.Upload("rejected", 0)
		return nil, err
	}
	if !ok {
		c.metrics.Upload("rejected", 0)
		return nil, common.NewError(common.KindNotFound, "folder %s not found", p)
	}

	key := StorageKey(folderID, filename)
	if err := c.blobs.Put(ctx, key, content); err != nil {
		c.metrics.Upload("failed", 0)
		c.log.Error(ctx, "blob write failed", "user_id", userID, "key", key, "error", err)
		return nil, err
	}

	ev := &models.UploadEvent{
		FileID:     FileID(key),
		UserID:     userID,
		FolderID:   folderID,
		Filename:   filename,
		StorageKey: key,
		SizeBytes:  int64(len(content)),
		UploadedAt: c.now().UTC(),
	}
	if err := c.publisher.Publish(ctx, ev); err != nil {
		// the blob is already stored; the row can be recovered from it
		c.metrics.PublishFailed()
		c.log.Error(ctx, "upload event publish failed", "user_id", userID, "key", key, "file_id", ev.FileID, "error", err)
	}

	c.metrics.Upload("ok", len(content))
	c.log.Info(ctx, "file uploaded", "user_id", userID, "path", p, "key", key, "size", len(content))
	return &UploadResult{FileID: ev.FileID, Key: key, SizeBytes: ev.SizeBytes}, nil
}
