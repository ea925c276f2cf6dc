package models

import "time"

// Account is the owner of all folders, notes, and share links. The alias is
// the public identifier; EncryptedAlias is the alias encrypted under the
// account secret and doubles as the credential verifier: a caller proves
// knowledge of the secret by decrypting it back to the alias.
type Account struct {
	ID             string
	Alias          string
	EncryptedAlias string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
