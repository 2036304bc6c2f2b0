package posts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/dmitrijs2005/twosync/internal/client/models"
	"github.com/dmitrijs2005/twosync/internal/dbx"
)

const selectColumns = `SELECT id, entry_id, text, type, last_modified, url, tags FROM posts`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("failed to clear posts: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, p *models.Post) error {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags of post %s: %w", p.ID, err)
	}

	query := `INSERT INTO posts (id, entry_id, text, type, last_modified, url, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.EntryID, p.Text, p.Type, p.LastModified, nullString(p.URL), tags)
	if err != nil {
		return fmt.Errorf("failed to insert post %s: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) All(ctx context.Context) iter.Seq2[models.Post, error] {
	return dbx.Each(ctx, r.db, scanPost, selectColumns+` ORDER BY rowid`)
}

func (r *SQLiteRepository) GetByEntryID(ctx context.Context, entryID string) ([]models.Post, error) {
	posts, err := dbx.Collect(dbx.Each(ctx, r.db, scanPost, selectColumns+` WHERE entry_id = ? ORDER BY rowid`, entryID))
	if err != nil {
		return nil, fmt.Errorf("failed to select posts of entry %s: %w", entryID, err)
	}
	return posts, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func scanPost(rows *sql.Rows) (models.Post, error) {
	var (
		p    models.Post
		url  sql.NullString
		tags sql.NullString
	)
	if err := rows.Scan(&p.ID, &p.EntryID, &p.Text, &p.Type, &p.LastModified, &url, &tags); err != nil {
		return p, err
	}
	p.URL = url.String
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.Tags); err != nil {
			return p, fmt.Errorf("failed to decode tags of post %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
