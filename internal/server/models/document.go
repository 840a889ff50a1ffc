// Package models defines server-side data models persisted in the database.
package models

import "time"

// Document describes one confirmed upload owned by exactly one user. The
// bytes themselves live in object storage under StorageKey; this row only
// ties the key to its owner. Rows are inserted once on upload confirmation
// and never updated or deleted.
type Document struct {
	// RowID is the database-assigned identifier.
	RowID string
	// UserID is the owner (the subject claim of the identity token).
	UserID string
	// StorageKey is the object-storage key of the uploaded image.
	StorageKey string
	// Filename is the sanitized display name supplied at confirmation.
	Filename string
	// ContentType is the declared MIME type (image subtypes only).
	ContentType string
	// CreatedAt is set by the database on insert.
	CreatedAt time.Time
}
