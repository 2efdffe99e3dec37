package model

import "time"

// Rental is an active borrow relationship between a user and a land
// parcel, one row per borrowed land. The `rentals` table carries a
// UNIQUE key on land_id so the database itself rejects a second
// concurrent borrower; application code must never emulate this
// with a check-then-insert.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – the current borrower; cascades on user deletion.
//  LandID    – the borrowed parcel; unique, cascades on land deletion.
//  CreatedAt – when the borrow took effect.
type Rental struct {
	ID        uint64    // rentals.id
	UserID    uint64    // rentals.user_id
	LandID    uint64    // rentals.land_id
	CreatedAt time.Time // rentals.created_at
}
