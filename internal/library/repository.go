package library

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateVideo(ctx context.Context, video *Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	ListVideos(ctx context.Context, limit int) ([]*Video, error)
	UpdateVideoStatus(ctx context.Context, id, status string) error
	CountVideos(ctx context.Context, status string) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateVideo(ctx context.Context, v *Video) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, filename, original_name, size_bytes, status, storage_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.Filename, v.OriginalName, v.SizeBytes, v.Status, v.StoragePath,
		v.CreatedAt.Format(time.RFC3339), v.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, original_name, size_bytes, status, storage_path, created_at, updated_at
		FROM videos WHERE id = ?
	`, id)
	return scanVideo(row)
}

func scanVideo(row *sql.Row) (*Video, error) {
	var v Video
	var createdAt, updatedAt string

	err := row.Scan(&v.ID, &v.Filename, &v.OriginalName, &v.SizeBytes, &v.Status, &v.StoragePath, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &v, nil
}

func (r *SQLiteRepository) ListVideos(ctx context.Context, limit int) ([]*Video, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, original_name, size_bytes, status, storage_path, created_at, updated_at
		FROM videos ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		var v Video
		var createdAt, updatedAt string
		if err := rows.Scan(&v.ID, &v.Filename, &v.OriginalName, &v.SizeBytes, &v.Status, &v.StoragePath, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		videos = append(videos, &v)
	}
	return videos, rows.Err()
}

func (r *SQLiteRepository) UpdateVideoStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE videos SET status = ?, updated_at = datetime('now') WHERE id = ?
	`, status, id)
	return err
}

func (r *SQLiteRepository) CountVideos(ctx context.Context, status string) (int, error) {
	var count int
	var err error
	if status == "" {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos WHERE status = ?", status).Scan(&count)
	}
	return count, err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
