package model

import "time"

// Role names as stored in users.role and carried in the JWT "role"
// claim. The set is fixed; unknown values are rejected at the API
// boundary.
const (
	RoleAdmin      = "admin"
	RoleNormalUser = "normal_user"
	RoleSecurity   = "security"
	RoleStaff      = "staff"
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleNormalUser, RoleSecurity, RoleStaff:
		return true
	}
	return false
}

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. Handlers define separate response types with the
// appropriate JSON tags; repository code scans directly into this
// struct.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – display handle, indexed.
//  FullName     – legal name, indexed.
//  Email        – unique email address; also the JWT subject.
//  Address      – postal contact address.
//  PhoneNumber  – contact phone number.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of the Role* constants.
//  Disabled     – when true the account cannot authenticate.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	FullName     string    // users.full_name
	Email        string    // users.email
	Address      string    // users.address
	PhoneNumber  string    // users.phone_number
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Disabled     bool      // users.disabled
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the user carries the admin role. Admin
// bypasses ordinary role lists but is still subject to the
// disabled-account check during authentication.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
