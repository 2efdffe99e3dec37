// Package rental implements the land-rental state machine. A land
// parcel is either Free or Borrowed by exactly one user; every
// transition (borrow, return, admin-forced release) goes through
// Machine, which is the only code path allowed to mutate the
// rentals table. The mutual-exclusion guarantee itself lives at the
// store's consistency boundary — a UNIQUE key on rentals.land_id —
// so two concurrent borrows of the same free parcel race inside the
// database and exactly one wins, regardless of process count.
package rental

import (
	"context"
	"errors"

	"github.com/iliyamo/land-rent-service/internal/model"
)

// ErrAlreadyBorrowed is returned when a borrow targets a parcel
// that already has an active borrower. Handlers translate this
// into an HTTP 409.
var ErrAlreadyBorrowed = errors.New("land already borrowed")

// ErrNotBorrower is returned when a return is attempted by a user
// other than the current borrower. The parcel's state is unchanged.
var ErrNotBorrower = errors.New("caller is not the current borrower")

// ErrNoActiveRental is returned when a return or forced release
// targets a parcel with no active borrow by the named user.
var ErrNoActiveRental = errors.New("no active rental for land")

// ErrLandNotFound is returned when the target parcel does not
// exist.
var ErrLandNotFound = errors.New("land not found")

// ErrNotPermitted is returned when the caller's role may not
// borrow land. Only normal_user borrows; security and staff are
// deliberately excluded (see DESIGN.md).
var ErrNotPermitted = errors.New("role may not borrow land")

// Store is the persistence contract the machine runs against. An
// implementation must make Insert atomic with respect to the
// one-borrower invariant: when the parcel already has a live
// rental, Insert returns ErrAlreadyBorrowed without writing, even
// under concurrent callers. Release must atomically compare the
// current borrower with the expected user and delete the rental
// only on a match, returning ErrNoActiveRental when the parcel is
// free and ErrNotBorrower when someone else holds it.
type Store interface {
	Insert(ctx context.Context, landID, userID uint64) error
	Release(ctx context.Context, landID, userID uint64) error
	Borrower(ctx context.Context, landID uint64) (uint64, bool, error)
}

// Machine exposes the rental transitions. It is stateless; all
// shared state lives in the Store.
type Machine struct {
	store Store
}

// NewMachine returns a Machine bound to the given store.
func NewMachine(s Store) *Machine {
	if s == nil {
		panic("nil store passed to rental.NewMachine")
	}
	return &Machine{store: s}
}

// Borrow transitions a Free parcel to Borrowed(borrower). The
// borrower must hold the normal_user role; admin, security and
// staff are rejected with ErrNotPermitted before the store is
// touched. The store decides the race: a parcel that is already
// borrowed yields ErrAlreadyBorrowed, a missing parcel or user
// yields ErrLandNotFound.
func (m *Machine) Borrow(ctx context.Context, landID uint64, borrower model.User) error {
	if borrower.Role != model.RoleNormalUser {
		return ErrNotPermitted
	}
	return m.store.Insert(ctx, landID, borrower.ID)
}

// Return transitions Borrowed(caller) back to Free. Only the
// current borrower may return; anyone else gets ErrNotBorrower and
// the parcel stays borrowed.
func (m *Machine) Return(ctx context.Context, landID uint64, caller model.User) error {
	return m.store.Release(ctx, landID, caller.ID)
}

// ForceReturn releases a parcel on behalf of targetUserID without
// requiring the caller to be the borrower. Route middleware
// restricts this to admins; here only the Borrowed(target)
// precondition is checked, so a stale target yields
// ErrNoActiveRental or ErrNotBorrower.
func (m *Machine) ForceReturn(ctx context.Context, landID, targetUserID uint64) error {
	return m.store.Release(ctx, landID, targetUserID)
}

// Borrower reports the active borrower of a parcel, if any.
func (m *Machine) Borrower(ctx context.Context, landID uint64) (uint64, bool, error) {
	return m.store.Borrower(ctx, landID)
}
