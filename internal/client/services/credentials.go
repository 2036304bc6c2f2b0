// Package services contains the application services of twosync: the local
// cache of the Twos export, the remote index pipeline, and the credential
// store both of them read from.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/twosync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/twosync/internal/common"
	"github.com/dmitrijs2005/twosync/internal/dbx"
)

// Credentials are the secrets the pipelines need.
type Credentials struct {
	OpenAIKey  string
	TwosUserID string
	TwosToken  string
}

// HasTwos reports whether both Twos fields are set.
func (c Credentials) HasTwos() bool {
	return c.TwosUserID != "" && c.TwosToken != ""
}

// CredentialStore persists credentials in the metadata table.
//
// Contract:
//   - Load: read the stored values on every call; non-empty overrides win.
//   - Save: write all three keys in one transaction; an empty value removes
//     the key.
//   - Clear: remove the three keys.
type CredentialStore interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, c Credentials) error
	Clear(ctx context.Context) error
}

type credentialStore struct {
	db        *sql.DB
	overrides Credentials
}

// NewCredentialStore returns a store over db. overrides usually come from the
// environment or the config file.
func NewCredentialStore(db *sql.DB, overrides Credentials) CredentialStore {
	return &credentialStore{db: db, overrides: overrides}
}

func (s *credentialStore) Load(ctx context.Context) (Credentials, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	read := func(key, override string) (string, error) {
		if override != "" {
			return override, nil
		}
		v, _, err := repo.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %w", common.ErrStorage, key, err)
		}
		return v, nil
	}

	var c Credentials
	var err error
	if c.OpenAIKey, err = read(common.KeyOpenAIID, s.overrides.OpenAIKey); err != nil {
		return Credentials{}, err
	}
	if c.TwosUserID, err = read(common.KeyTwosUserID, s.overrides.TwosUserID); err != nil {
		return Credentials{}, err
	}
	if c.TwosToken, err = read(common.KeyTwosToken, s.overrides.TwosToken); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

func (s *credentialStore) Save(ctx context.Context, c Credentials) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, kv := range [][2]string{
			{common.KeyOpenAIID, c.OpenAIKey},
			{common.KeyTwosUserID, c.TwosUserID},
			{common.KeyTwosToken, c.TwosToken},
		} {
			var err error
			if kv[1] == "" {
				err = repo.Delete(ctx, kv[0])
			} else {
				err = repo.Set(ctx, kv[0], kv[1])
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save credentials: %w", common.ErrStorage, err)
	}
	return nil
}

func (s *credentialStore) Clear(ctx context.Context) error {
	return s.Save(ctx, Credentials{})
}
