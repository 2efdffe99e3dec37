package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/land-rent-service/internal/model"
)

// LandRepo provides data access to the `lands` table. Parcel names
// are unique; creation relies on the unique key rather than a
// lookup so that two concurrent creates with the same name cannot
// both succeed.
type LandRepo struct{ DB *sql.DB }

func NewLandRepo(db *sql.DB) *LandRepo { return &LandRepo{DB: db} }

const landCols = "id,name,address,size,location,description,created_at,updated_at"

func scanLand(row interface{ Scan(...any) error }) (model.Land, error) {
	var l model.Land
	var size sql.NullFloat64
	var desc sql.NullString
	err := row.Scan(&l.ID, &l.Name, &l.Address, &size, &l.Location, &desc, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return l, err
	}
	if size.Valid {
		v := size.Float64
		l.Size = &v
	}
	if desc.Valid {
		d := desc.String
		l.Description = &d
	}
	return l, nil
}

// Create inserts a land parcel and returns its ID. A name collision
// surfaces as ErrLandNameExists.
func (r *LandRepo) Create(ctx context.Context, l model.Land) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO lands (name, address, size, location, description) VALUES (?,?,?,?,?)",
		l.Name, l.Address, l.Size, l.Location, l.Description)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrLandNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single parcel. Returns sql.ErrNoRows when
// absent.
func (r *LandRepo) GetByID(ctx context.Context, id uint64) (model.Land, error) {
	return scanLand(r.DB.QueryRowContext(ctx,
		"SELECT "+landCols+" FROM lands WHERE id=? LIMIT 1", id))
}

// LandFilter narrows a land search. Nil fields are not applied.
// SizeMin/SizeMax bound the parcel size inclusively.
type LandFilter struct {
	Address     *string
	Location    *string
	Description *string
	SizeMin     *float64
	SizeMax     *float64
}

// Search returns parcels matching the filter with offset/limit
// pagination, ordered by id. An empty result is returned as an
// empty slice; the handler decides whether that is a 404.
func (r *LandRepo) Search(ctx context.Context, f LandFilter, skip, limit int) ([]model.Land, error) {
	q := "SELECT " + landCols + " FROM lands"
	conds := make([]string, 0, 5)
	args := make([]any, 0, 7)
	if f.Address != nil {
		conds = append(conds, "address=?")
		args = append(args, *f.Address)
	}
	if f.Location != nil {
		conds = append(conds, "location=?")
		args = append(args, *f.Location)
	}
	if f.Description != nil {
		conds = append(conds, "description LIKE ?")
		args = append(args, "%"+*f.Description+"%")
	}
	if f.SizeMin != nil {
		conds = append(conds, "size >= ?")
		args = append(args, *f.SizeMin)
	}
	if f.SizeMax != nil {
		conds = append(conds, "size <= ?")
		args = append(args, *f.SizeMax)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, skip)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lands := make([]model.Land, 0)
	for rows.Next() {
		l, err := scanLand(rows)
		if err != nil {
			return nil, err
		}
		lands = append(lands, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lands, nil
}

// LandPatch carries the optional fields of a partial land update.
type LandPatch struct {
	Name        *string
	Address     *string
	Size        *float64
	Location    *string
	Description *string
}

// UpdatePartial applies only the fields present in the patch.
// Returns sql.ErrNoRows when the parcel does not exist and
// ErrLandNameExists on a name collision.
func (r *LandRepo) UpdatePartial(ctx context.Context, id uint64, p LandPatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.Address != nil {
		sets = append(sets, "address=?")
		args = append(args, *p.Address)
	}
	if p.Size != nil {
		sets = append(sets, "size=?")
		args = append(args, *p.Size)
	}
	if p.Location != nil {
		sets = append(sets, "location=?")
		args = append(args, *p.Location)
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *p.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE lands SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrLandNameExists
		}
		return err
	}
	return requireRow(res, id)
}

// Delete removes a parcel. Image rows and any active rental cascade
// in the database; stored image files are the handler's problem
// (it collects them before deleting and removes them afterwards).
func (r *LandRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM lands WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}
