package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jjudge-oj/imageforms/types"
	"github.com/lib/pq"
)

// RecordRepository handles persistence for records in PostgreSQL.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) List(ctx context.Context, collection string) ([]types.StoredRecord, error) {
	const query = `
		SELECT id, collection, name, email, password_hash, image_keys, content, created_at, updated_at
		FROM records
		WHERE collection = $1
		ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]types.StoredRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *RecordRepository) Get(ctx context.Context, collection, id string) (types.StoredRecord, error) {
	const query = `
		SELECT id, collection, name, email, password_hash, image_keys, content, created_at, updated_at
		FROM records
		WHERE collection = $1 AND id = $2`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StoredRecord{}, ErrNotFound
		}
		return types.StoredRecord{}, err
	}
	return rec, nil
}

func (r *RecordRepository) Create(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error) {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	const query = `
		INSERT INTO records (id, collection, name, email, password_hash, image_keys, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Collection,
		rec.Name,
		rec.Email,
		rec.PasswordHash,
		pq.Array(nonNil(rec.ImageKeys)),
		pq.Array(nonNil(rec.Content)),
		rec.CreatedAt,
		rec.UpdatedAt,
	); err != nil {
		return types.StoredRecord{}, err
	}
	return rec, nil
}

func (r *RecordRepository) Update(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error) {
	rec.UpdatedAt = time.Now()

	const query = `
		UPDATE records
		SET name = $1,
			email = $2,
			password_hash = $3,
			image_keys = $4,
			content = $5,
			updated_at = $6
		WHERE collection = $7 AND id = $8
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		rec.Name,
		rec.Email,
		rec.PasswordHash,
		pq.Array(nonNil(rec.ImageKeys)),
		pq.Array(nonNil(rec.Content)),
		rec.UpdatedAt,
		rec.Collection,
		rec.ID,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StoredRecord{}, ErrNotFound
		}
		return types.StoredRecord{}, err
	}
	return rec, nil
}

func (r *RecordRepository) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM records WHERE collection = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.StoredRecord, error) {
	var rec types.StoredRecord
	err := row.Scan(
		&rec.ID,
		&rec.Collection,
		&rec.Name,
		&rec.Email,
		&rec.PasswordHash,
		pq.Array(&rec.ImageKeys),
		pq.Array(&rec.Content),
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
