package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/dmitrijs2005/twosync/internal/client/models"
	"github.com/dmitrijs2005/twosync/internal/common"
	"github.com/dmitrijs2005/twosync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (id, title, last_modified) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.Title, e.LastModified); err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", e.ID, err)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (models.Entry, error) {
	var e models.Entry
	err := rows.Scan(&e.ID, &e.Title, &e.LastModified)
	return e, err
}

func (r *SQLiteRepository) All(ctx context.Context) iter.Seq2[models.Entry, error] {
	return dbx.Each(ctx, r.db, scanEntry, `SELECT id, title, last_modified FROM entries ORDER BY rowid`)
}

// GetByID looks the entry up by primary key.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT id, title, last_modified FROM entries WHERE id = ?`

	e := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Title, &e.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}
