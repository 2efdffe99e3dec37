package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/land-rent-service/internal/model"
)

// ChatRepo provides data access to the `chats` table. Audience
// shape (ONE requires a receiver, ALL forbids one) is validated by
// the handler via model.CheckAudience before any write lands here;
// receiver existence is enforced by the foreign key on
// chats.receiver_id and mapped to ErrReceiverNotFound.
type ChatRepo struct{ DB *sql.DB }

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{DB: db} }

const chatCols = "id,sender_id,receiver_id,audience,body,sent_at"

func scanChat(row interface{ Scan(...any) error }) (model.Chat, error) {
	var c model.Chat
	var recv sql.NullInt64
	err := row.Scan(&c.ID, &c.SenderID, &recv, &c.Audience, &c.Body, &c.SentAt)
	if err != nil {
		return c, err
	}
	if recv.Valid {
		id := uint64(recv.Int64)
		c.ReceiverID = &id
	}
	return c, nil
}

// Create inserts a chat message and returns its ID.
func (r *ChatRepo) Create(ctx context.Context, c model.Chat) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO chats (sender_id, receiver_id, audience, body) VALUES (?,?,?,?)",
		c.SenderID, c.ReceiverID, c.Audience, c.Body)
	if err != nil {
		if isFKViolation(err) {
			return 0, ErrReceiverNotFound
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single message.
func (r *ChatRepo) GetByID(ctx context.Context, id uint64) (model.Chat, error) {
	return scanChat(r.DB.QueryRowContext(ctx,
		"SELECT "+chatCols+" FROM chats WHERE id=? LIMIT 1", id))
}

// ListVisible returns the messages a user is allowed to read:
// those addressed to them plus broadcasts, newest first, with
// offset/limit pagination. Chat is pull-based; nothing is pushed.
func (r *ChatRepo) ListVisible(ctx context.Context, userID uint64, skip, limit int) ([]model.Chat, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+chatCols+" FROM chats WHERE receiver_id=? OR audience=? ORDER BY sent_at DESC, id DESC LIMIT ? OFFSET ?",
		userID, model.AudienceAll, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chats := make([]model.Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chats, nil
}

// Update replaces a message's body, audience and receiver in one
// statement. Sender and sent_at are immutable; ownership is the
// handler's check. Passing a nil receiver clears the column, which
// is how an edit to audience ALL drops the addressee.
func (r *ChatRepo) Update(ctx context.Context, id uint64, body, audience string, receiverID *uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE chats SET body=?, audience=?, receiver_id=? WHERE id=?",
		body, audience, receiverID, id)
	if err != nil {
		if isFKViolation(err) {
			return ErrReceiverNotFound
		}
		return err
	}
	return requireRow(res, id)
}

// Delete removes a message.
func (r *ChatRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM chats WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}
