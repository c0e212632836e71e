package models

import "time"

// File describes the metadata row of a stored blob. The bytes live in the
// object store under StorageKey.
type File struct {
	ID     string
	UserID string
	// FolderID binds the file to the folder's stable id, not its path.
	FolderID   string
	Filename   string
	StorageKey string
	SizeBytes  int64
	UploadedAt time.Time
}

// FileEntry is the listing shape of a file.
type FileEntry struct {
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedAt string `json:"uploaded_at"`
}

// UploadedAtLayout is the timestamp format used in listings.
const UploadedAtLayout = "01/02/2006 15:04:05"

// Entry converts f into its listing shape.
func (f *File) Entry() FileEntry {
	return FileEntry{
		FileID:     f.ID,
		Filename:   f.Filename,
		SizeBytes:  f.SizeBytes,
		UploadedAt: f.UploadedAt.UTC().Format(UploadedAtLayout),
	}
}
