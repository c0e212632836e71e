// Package models defines server-side records persisted in the metadata store.
package models

import "time"

// Folder is a user's folder addressed by its materialized path.
type Folder struct {
	// ID is stable and independent of Path.
	ID     string
	UserID string
	// Path is canonical: absolute, "/"-separated, no trailing slash except root.
	Path       string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// FolderEntry is one direct child folder in a listing.
type FolderEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
