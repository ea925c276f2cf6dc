package models

import "time"

// ShareLink grants unauthenticated read access to one note's decrypted
// content. Token is the unguessable public identifier. WrappedSecret is the
// owner's secret encrypted under the token itself, which is how a public
// viewer can decrypt without presenting a credential; rotating or revoking
// the link destroys the wrapper. At most one link exists per note.
type ShareLink struct {
	Token         string
	NoteID        string
	WrappedSecret string
	ExpiresAt     *time.Time
	ViewCount     int64
	CreatedAt     time.Time
}

// SharedNoteView is what a public viewer receives.
type SharedNoteView struct {
	Title     *string
	Content   string
	CreatedAt time.Time
	ViewCount int64
}
