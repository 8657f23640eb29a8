package repositories

import (
	"context"
	"errors"

	"filestream/internal/httpkit"
	"filestream/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFileNotFound = errors.New("file not found")
var ErrFileExists = errors.New("file already exists")

type FileRepository struct {
	db *pgxpool.Pool
}

func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, f *models.File) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO files (id, name, mime, size_bytes, object_key, provider, secret, thumb_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, f.ID, f.Name, f.Mime, f.SizeBytes, f.ObjectKey, f.Provider, f.Secret, nullIfEmpty(f.ThumbKey), f.CreatedAt)

	if err != nil {
		if httpkit.IsUniqueViolation(err) {
			return ErrFileExists
		}
		return err
	}
	return nil
}

func (r *FileRepository) Get(ctx context.Context, id string) (*models.File, error) {
	var f models.File
	var thumbKey *string
	err := r.db.QueryRow(ctx, `
		SELECT id, name, mime, size_bytes, object_key, provider, secret, thumb_key, created_at
		FROM files
		WHERE id=$1
	`, id).Scan(
		&f.ID,
		&f.Name,
		&f.Mime,
		&f.SizeBytes,
		&f.ObjectKey,
		&f.Provider,
		&f.Secret,
		&thumbKey,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if thumbKey != nil {
		f.ThumbKey = *thumbKey
	}
	return &f, nil
}

func (r *FileRepository) List(ctx context.Context, limit int) ([]models.File, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, name, mime, size_bytes, object_key, provider, secret, thumb_key, created_at
		FROM files
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.File
	for rows.Next() {
		var f models.File
		var thumbKey *string
		if err := rows.Scan(&f.ID, &f.Name, &f.Mime, &f.SizeBytes, &f.ObjectKey, &f.Provider, &f.Secret, &thumbKey, &f.CreatedAt); err != nil {
			return nil, err
		}
		if thumbKey != nil {
			f.ThumbKey = *thumbKey
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// SetThumb records the poster object written by the thumbnail worker.
func (r *FileRepository) SetThumb(ctx context.Context, id, thumbKey string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE files SET thumb_key=$2 WHERE id=$1`, id, thumbKey)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
