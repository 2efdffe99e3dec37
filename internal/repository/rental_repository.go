package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/rental"
)

// RentalRepo provides data access to the `rentals` table and
// implements rental.Store. The table carries a UNIQUE key on
// land_id, which is what makes Insert safe under concurrency: the
// losing writer of a borrow race receives a duplicate-key error
// from MySQL and never a second row. Release runs in a transaction
// with SELECT ... FOR UPDATE so the borrower comparison and the
// delete commit together or not at all.
type RentalRepo struct{ DB *sql.DB }

func NewRentalRepo(db *sql.DB) *RentalRepo { return &RentalRepo{DB: db} }

// compile-time check that RentalRepo satisfies the machine's
// store contract.
var _ rental.Store = (*RentalRepo)(nil)

// Insert creates the borrow row for (landID, userID). The unique
// key on land_id turns a concurrent second borrow into
// rental.ErrAlreadyBorrowed; the foreign keys turn a missing land
// or user into rental.ErrLandNotFound.
func (r *RentalRepo) Insert(ctx context.Context, landID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO rentals (user_id, land_id) VALUES (?,?)", userID, landID)
	if err != nil {
		if isDuplicateKey(err) {
			return rental.ErrAlreadyBorrowed
		}
		if isFKViolation(err) {
			return rental.ErrLandNotFound
		}
		return err
	}
	return nil
}

// Release deletes the borrow row for landID when it is held by
// userID. The row is locked first so a concurrent return or forced
// release cannot interleave between the check and the delete.
func (r *RentalRepo) Release(ctx context.Context, landID, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var holder uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM rentals WHERE land_id=? FOR UPDATE", landID).Scan(&holder)
	if err != nil {
		if err == sql.ErrNoRows {
			return rental.ErrNoActiveRental
		}
		return err
	}
	if holder != userID {
		return rental.ErrNotBorrower
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM rentals WHERE land_id=? AND user_id=?", landID, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Borrower returns the active borrower of a parcel. The second
// return value is false when the parcel is free.
func (r *RentalRepo) Borrower(ctx context.Context, landID uint64) (uint64, bool, error) {
	var holder uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM rentals WHERE land_id=? LIMIT 1", landID).Scan(&holder)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return holder, true, nil
}

// ListByUser returns the caller's active rentals joined with the
// parcel they hold, newest first.
func (r *RentalRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Rental, []model.Land, error) {
	const q = `SELECT r.id, r.user_id, r.land_id, r.created_at,
	                  l.id, l.name, l.address, l.size, l.location, l.description, l.created_at, l.updated_at
	           FROM rentals r
	           JOIN lands l ON l.id = r.land_id
	           WHERE r.user_id = ?
	           ORDER BY r.created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	rentals := make([]model.Rental, 0)
	lands := make([]model.Land, 0)
	for rows.Next() {
		var rt model.Rental
		var l model.Land
		var size sql.NullFloat64
		var desc sql.NullString
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.LandID, &rt.CreatedAt,
			&l.ID, &l.Name, &l.Address, &size, &l.Location, &desc, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, nil, err
		}
		if size.Valid {
			v := size.Float64
			l.Size = &v
		}
		if desc.Valid {
			d := desc.String
			l.Description = &d
		}
		rentals = append(rentals, rt)
		lands = append(lands, l)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return rentals, lands, nil
}
