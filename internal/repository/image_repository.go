package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/land-rent-service/internal/model"
)

// ImageRepo provides data access to the `images` table. Rows belong
// to a land parcel and cascade when the parcel is deleted; the
// stored file itself lives in the file store and is cleaned up by
// the handler after the database row is gone.
type ImageRepo struct{ DB *sql.DB }

func NewImageRepo(db *sql.DB) *ImageRepo { return &ImageRepo{DB: db} }

const imageCols = "id,land_id,label,stored_name,url,created_at"

func scanImage(row interface{ Scan(...any) error }) (model.Image, error) {
	var im model.Image
	err := row.Scan(&im.ID, &im.LandID, &im.Label, &im.StoredName, &im.URL, &im.CreatedAt)
	return im, err
}

// Create inserts an image row. A missing land surfaces as
// sql.ErrNoRows via the foreign key rather than a prior lookup.
func (r *ImageRepo) Create(ctx context.Context, im model.Image) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO images (land_id, label, stored_name, url) VALUES (?,?,?,?)",
		im.LandID, im.Label, im.StoredName, im.URL)
	if err != nil {
		if isFKViolation(err) {
			return 0, sql.ErrNoRows
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an image row.
func (r *ImageRepo) GetByID(ctx context.Context, id uint64) (model.Image, error) {
	return scanImage(r.DB.QueryRowContext(ctx,
		"SELECT "+imageCols+" FROM images WHERE id=? LIMIT 1", id))
}

// GetForLand fetches an image scoped to a specific parcel, for the
// nested update route.
func (r *ImageRepo) GetForLand(ctx context.Context, imageID, landID uint64) (model.Image, error) {
	return scanImage(r.DB.QueryRowContext(ctx,
		"SELECT "+imageCols+" FROM images WHERE id=? AND land_id=? LIMIT 1", imageID, landID))
}

// ListByLand returns all images attached to a parcel.
func (r *ImageRepo) ListByLand(ctx context.Context, landID uint64) ([]model.Image, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+imageCols+" FROM images WHERE land_id=? ORDER BY id", landID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	images := make([]model.Image, 0)
	for rows.Next() {
		im, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, im)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

// UpdateLabel renames an image's display label. The stored filename
// and URL never change after upload.
func (r *ImageRepo) UpdateLabel(ctx context.Context, imageID, landID uint64, label string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE images SET label=? WHERE id=? AND land_id=?", label, imageID, landID)
	if err != nil {
		return err
	}
	return requireRow(res, imageID)
}

// Delete removes an image row.
func (r *ImageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM images WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}
