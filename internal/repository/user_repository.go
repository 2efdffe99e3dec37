package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/land-rent-service/internal/model"
)

// UserRepo provides data access to the `users` table. Email is
// normalized to lower case on every write and lookup. Deleting a
// user hard-deletes the row; dependent rentals and chat messages
// are removed by the schema's ON DELETE CASCADE rules.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,username,full_name,email,address,phone_number,password_hash,role,disabled,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Address,
		&u.PhoneNumber, &u.PasswordHash, &u.Role, &u.Disabled, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The caller supplies an
// already-hashed password. A duplicate email surfaces as
// ErrEmailExists straight from the unique key, so two concurrent
// registrations of the same address cannot both succeed.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, full_name, email, address, phone_number, password_hash, role, disabled) VALUES (?,?,?,?,?,?,?,?)",
		u.Username, u.FullName, strings.ToLower(strings.TrimSpace(u.Email)),
		u.Address, u.PhoneNumber, u.PasswordHash, u.Role, u.Disabled)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email. Returns
// sql.ErrNoRows when no such user exists.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns users ordered by id with offset/limit pagination.
func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UserPatch carries the optional fields of a partial user update.
// Nil fields are left untouched ("exclude unset" semantics).
// PasswordHash, when set, must already be hashed by the caller.
type UserPatch struct {
	Username     *string
	Email        *string
	Address      *string
	PhoneNumber  *string
	PasswordHash *string
}

// UpdatePartial applies only the fields present in the patch. It
// returns sql.ErrNoRows when the user does not exist and
// ErrEmailExists when the new email collides with another account.
func (r *UserRepo) UpdatePartial(ctx context.Context, id uint64, p UserPatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if p.Username != nil {
		sets = append(sets, "username=?")
		args = append(args, *p.Username)
	}
	if p.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*p.Email)))
	}
	if p.Address != nil {
		sets = append(sets, "address=?")
		args = append(args, *p.Address)
	}
	if p.PhoneNumber != nil {
		sets = append(sets, "phone_number=?")
		args = append(args, *p.PhoneNumber)
	}
	if p.PasswordHash != nil {
		sets = append(sets, "password_hash=?")
		args = append(args, *p.PasswordHash)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return requireRow(res, id)
}

// AdminPatch carries the fields only an admin may change.
type AdminPatch struct {
	Role     *string
	Disabled *bool
}

// UpdateAdmin applies role/disabled changes to the target user.
func (r *UserRepo) UpdateAdmin(ctx context.Context, id uint64, p AdminPatch) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if p.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, *p.Role)
	}
	if p.Disabled != nil {
		sets = append(sets, "disabled=?")
		args = append(args, *p.Disabled)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// Delete removes a user. Rentals held by the user and chat
// messages they authored go with the row via ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// requireRow converts a zero-row UPDATE/DELETE into sql.ErrNoRows
// so handlers can answer 404 without a prior existence query.
func requireRow(res sql.Result, _ uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
