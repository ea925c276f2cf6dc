package models

import "time"

// Note is an encrypted record owned by exactly one account, optionally
// filed into one folder. Fingerprint is the SHA-256 of the plaintext
// content at the last successful write; it is the sole staleness signal
// for concurrent updates.
//
// Deleting a note flips Active instead of removing the row.
type Note struct {
	ID               string
	AccountID        string
	FolderID         *string
	EncryptedTitle   *string
	EncryptedContent string
	Fingerprint      string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	Active           bool
}

// DecryptedNote is a note together with its plaintext title and content,
// produced for a caller that supplied the correct secret. It is never
// persisted.
type DecryptedNote struct {
	Note
	Title   *string
	Content string
}
