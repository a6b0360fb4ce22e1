package cv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cv-builder/resume/model"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Save upserts by id. The conflict update only applies when the stored row
// has the same owner, so a foreign id returns no row.
func (r *PGRepo) Save(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO cvs (id, user_id, title, template, document, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  template = EXCLUDED.template,
  document = EXCLUDED.document,
  updated_at = EXCLUDED.updated_at
WHERE cvs.user_id = EXCLUDED.user_id
RETURNING created_at, updated_at`
	doc, err := json.Marshal(rec.Document)
	if err != nil {
		return Record{}, fmt.Errorf("marshal document: %w", err)
	}
	err = r.DB.QueryRowContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Document.Title,
		string(rec.Document.Template),
		doc,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Record, error) {
	const query = `
SELECT id, user_id, document, created_at, updated_at
FROM cvs
WHERE id = $1 AND user_id = $2
LIMIT 1`
	return scanRecord(r.DB.QueryRowContext(ctx, query, id, userID))
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	const query = `
SELECT id, user_id, document, created_at, updated_at
FROM cvs
WHERE user_id = $1
ORDER BY updated_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cvs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Reassign(ctx context.Context, fromUserID, toUserID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE cvs SET user_id = $2 WHERE user_id = $1`, fromUserID, toUserID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// RawDocuments returns every stored document as raw JSON, oldest first.
func (r *PGRepo) RawDocuments(ctx context.Context) ([]RawDocument, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, user_id, document FROM cvs ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawDocument
	for rows.Next() {
		var doc RawDocument
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Document); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ReplaceDocument overwrites a stored document without touching updated_at.
func (r *PGRepo) ReplaceDocument(ctx context.Context, id string, cv model.CV) error {
	doc, err := json.Marshal(cv)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `UPDATE cvs SET title = $2, template = $3, document = $4 WHERE id = $1`,
		id, cv.Title, string(cv.Template), doc)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec Record
		doc []byte
	)
	err := row.Scan(&rec.ID, &rec.UserID, &doc, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(doc, &rec.Document); err != nil {
		return Record{}, fmt.Errorf("decode document: %w", err)
	}
	rec.Document.Normalize()
	return rec, nil
}

var (
	_ Repo     = (*PGRepo)(nil)
	_ Repo     = (*MemoryRepo)(nil)
	_ RawStore = (*PGRepo)(nil)
)
