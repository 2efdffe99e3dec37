// Package queue defines message payloads exchanged over the message broker.
package queue

// Rental transition kinds carried in RentalActivityEvent.Action.
const (
	ActionBorrowed      = "borrowed"
	ActionReturned      = "returned"
	ActionForceReturned = "force_returned"
)

// RentalActivityEvent is published whenever a land parcel changes
// hands: a borrow, a return, or an admin-forced release. It carries
// enough information for downstream consumers to log or notify
// without querying the primary database.
type RentalActivityEvent struct {
	Action     string `json:"action"`
	LandID     uint64 `json:"land_id"`
	LandName   string `json:"land_name"`
	UserID     uint64 `json:"user_id"`
	UserEmail  string `json:"user_email"`
	ActorID    uint64 `json:"actor_id"` // who triggered the transition; differs from UserID on forced release
	OccurredAt string `json:"occurred_at"`
}
