package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"strings"

	"cryptora/internal/common"
	"cryptora/internal/cryptox"
	"cryptora/internal/dbx"
	"cryptora/internal/server/repositories/repomanager"
)

const (
	minAliasLength  = 1
	maxAliasLength  = 100
	minSecretLength = 4
)

var aliasPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// normalizeAlias lowercases the alias and checks its shape. Returns
// ErrorValidation for anything that is not letters, digits, hyphens,
// or underscores.
func normalizeAlias(alias string) (string, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if len(alias) < minAliasLength || len(alias) > maxAliasLength || !aliasPattern.MatchString(alias) {
		return "", common.ErrorValidation
	}
	return alias, nil
}

// authenticator resolves an alias+secret pair to an account. The secret is
// verified by decrypting the stored encrypted alias and comparing it to the
// alias itself; the secret is never persisted and never cached.
type authenticator struct {
	repos  repomanager.RepositoryManager
	cipher cryptox.Cipher
}

// verify returns the account for alias if secret is correct. Unknown alias
// and wrong secret are indistinguishable: both yield ErrorUnauthorized.
func (a *authenticator) verify(ctx context.Context, db dbx.DBTX, alias, secret string) (*accountHandle, error) {
	alias, err := normalizeAlias(alias)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	account, err := a.repos.Accounts(db).GetByAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	decrypted, err := a.cipher.Decrypt(account.EncryptedAlias, secret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(decrypted), []byte(account.Alias)) != 1 {
		return nil, common.ErrorUnauthorized
	}

	return &accountHandle{id: account.ID, alias: account.Alias}, nil
}

// accountHandle is the minimal identity every account-scoped operation
// carries after credential verification.
type accountHandle struct {
	id    string
	alias string
}
