package model

import "time"

// Audience values for chat messages. A message addressed to ONE must
// carry a resolvable receiver; a message addressed to ALL must not
// carry a receiver at all.
const (
	AudienceOne = "ONE"
	AudienceAll = "ALL"
)

// ValidAudience reports whether s is a known audience value.
func ValidAudience(s string) bool { return s == AudienceOne || s == AudienceAll }

// CheckAudience validates the mutual constraint between a message's
// audience and its receiver: ALL forbids a receiver, ONE requires
// one. It returns false when the combination is inconsistent.
// Resolving the receiver to an existing user is the repository's
// job; this only checks shape.
func CheckAudience(audience string, hasReceiver bool) bool {
	switch audience {
	case AudienceAll:
		return !hasReceiver
	case AudienceOne:
		return hasReceiver
	}
	return false
}

// Chat is a message row in the `chats` table. Sender and sent time
// are immutable after creation; body and audience may be edited by
// the original sender only.
//
// Fields:
//  ID         – primary key identifier.
//  SenderID   – author of the message; cascades on user deletion.
//  ReceiverID – addressee when Audience is ONE, nil for ALL.
//  Audience   – AudienceOne or AudienceAll.
//  Body       – message text.
//  SentAt     – creation timestamp, immutable.
type Chat struct {
	ID         uint64    // chats.id
	SenderID   uint64    // chats.sender_id
	ReceiverID *uint64   // chats.receiver_id (nullable)
	Audience   string    // chats.audience
	Body       string    // chats.body
	SentAt     time.Time // chats.sent_at
}
