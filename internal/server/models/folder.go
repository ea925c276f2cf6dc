package models

import "time"

// Folder groups notes within one account. The display name is stored only
// in encrypted form. Folders do not enumerate their notes; membership is
// derived by filtering notes on FolderID.
type Folder struct {
	ID            string
	AccountID     string
	EncryptedName string
	Color         *string
	Icon          *string
	CreatedAt     time.Time
}
