package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// UploadEvent announces that a blob has been written and its metadata row
// still has to be recorded. FileID is minted by the uploader so that
// redelivery of the same event is recognizable.
type UploadEvent struct {
	FileID     string    `json:"file_id"`
	UserID     string    `json:"user_id"`
	FolderID   string    `json:"folder_id"`
	Filename   string    `json:"filename"`
	StorageKey string    `json:"storage_key"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Validate checks that every field required to record the file is present.
func (e *UploadEvent) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"file_id":     e.FileID,
		"user_id":     e.UserID,
		"folder_id":   e.FolderID,
		"filename":    e.Filename,
		"storage_key": e.StorageKey,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}
	if e.SizeBytes < 0 {
		return errors.New("negative size_bytes")
	}
	return nil
}

// File converts the event into the metadata row it describes.
func (e *UploadEvent) File() *File {
	return &File{
		ID:         e.FileID,
		UserID:     e.UserID,
		FolderID:   e.FolderID,
		Filename:   e.Filename,
		StorageKey: e.StorageKey,
		SizeBytes:  e.SizeBytes,
		UploadedAt: e.UploadedAt,
	}
}
