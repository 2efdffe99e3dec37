package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/land-rent-service/internal/middleware"
	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/repository"
)

// ChatStore is what the chat handler needs from persistence. It is
// satisfied by *repository.ChatRepo.
type ChatStore interface {
	Create(ctx context.Context, c model.Chat) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Chat, error)
	ListVisible(ctx context.Context, userID uint64, skip, limit int) ([]model.Chat, error)
	Update(ctx context.Context, id uint64, body, audience string, receiverID *uint64) error
	Delete(ctx context.Context, id uint64) error
}

var _ ChatStore = (*repository.ChatRepo)(nil)

// ChatHandler serves direct and broadcast messages. A message is
// either addressed to exactly one receiver (ONE) or to everyone
// (ALL); the two shapes never mix.
type ChatHandler struct {
	Chats ChatStore
}

func NewChatHandler(chats ChatStore) *ChatHandler {
	if chats == nil {
		panic("nil repository passed to NewChatHandler")
	}
	return &ChatHandler{Chats: chats}
}

type chatReq struct {
	Body       string  `json:"body"`
	Audience   string  `json:"audience"`
	ReceiverID *uint64 `json:"receiver_id"`
}

type chatOut struct {
	ID         uint64    `json:"id"`
	SenderID   uint64    `json:"sender_id"`
	ReceiverID *uint64   `json:"receiver_id,omitempty"`
	Audience   string    `json:"audience"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}

func toChatOut(m model.Chat) chatOut {
	return chatOut{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Audience:   m.Audience,
		Body:       m.Body,
		SentAt:     m.SentAt,
	}
}

func validateChatReq(req chatReq) *echo.Map {
	if req.Body == "" {
		return &echo.Map{"error": "body is required"}
	}
	if !model.ValidAudience(req.Audience) {
		return &echo.Map{"error": "audience must be ONE or ALL"}
	}
	if !model.CheckAudience(req.Audience, req.ReceiverID != nil) {
		return &echo.Map{"error": "ONE messages need a receiver, ALL messages must not have one"}
	}
	return nil
}

// Send handles POST /v1/chats. Non-admin users may address ONE or
// ALL; the receiver must exist.
func (h *ChatHandler) Send(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)

	var req chatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if m := validateChatReq(req); m != nil {
		return c.JSON(http.StatusBadRequest, *m)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	msg := model.Chat{
		SenderID:   caller.ID,
		ReceiverID: req.ReceiverID,
		Audience:   req.Audience,
		Body:       req.Body,
	}
	id, err := h.Chats.Create(ctx, msg)
	if err != nil {
		if errors.Is(err, repository.ErrReceiverNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receiver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	created, err := h.Chats.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, toChatOut(created))
}

// Broadcast handles POST /v1/chats/broadcast (admin). The audience
// is forced to ALL whatever the body says.
func (h *ChatHandler) Broadcast(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)

	var req chatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	msg := model.Chat{
		SenderID: caller.ID,
		Audience: model.AudienceAll,
		Body:     req.Body,
	}
	id, err := h.Chats.Create(ctx, msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	created, err := h.Chats.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, toChatOut(created))
}

// List handles GET /v1/chats: messages addressed to the caller plus
// every broadcast, newest first.
func (h *ChatHandler) List(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	skip, limit := pagination(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	msgs, err := h.Chats.ListVisible(ctx, caller.ID, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(msgs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no messages found"})
	}
	out := make([]chatOut, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toChatOut(m))
	}
	return c.JSON(http.StatusOK, out)
}

// chatUpdateReq is the partial-update body for PATCH. Nil fields
// are left as they are on the stored message.
type chatUpdateReq struct {
	Body       *string `json:"body"`
	Audience   *string `json:"audience"`
	ReceiverID *uint64 `json:"receiver_id"`
}

// Update handles PATCH /v1/chats/:id. Only the sender may edit, and
// only the supplied fields change. The merged result must still
// satisfy the audience shape: switching to ALL drops the receiver,
// switching to ONE demands one (kept from the original message or
// supplied in the same request).
func (h *ChatHandler) Update(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req chatUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := h.Chats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if existing.SenderID != caller.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the sender can edit a message"})
	}

	body, audience, receiver := existing.Body, existing.Audience, existing.ReceiverID
	if req.Body != nil {
		if *req.Body == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "body cannot be empty"})
		}
		body = *req.Body
	}
	if req.Audience != nil {
		if !model.ValidAudience(*req.Audience) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "audience must be ONE or ALL"})
		}
		audience = *req.Audience
	}
	if req.ReceiverID != nil {
		receiver = req.ReceiverID
	}
	if audience == model.AudienceAll {
		receiver = nil
	} else if receiver == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ONE messages need a receiver"})
	}

	if err := h.Chats.Update(ctx, id, body, audience, receiver); err != nil {
		if errors.Is(err, repository.ErrReceiverNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receiver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Chats.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toChatOut(updated))
}

// Delete handles DELETE /v1/chats/:id. Sender-only, like Update.
func (h *ChatHandler) Delete(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := h.Chats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if existing.SenderID != caller.ID && !caller.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the sender can delete a message"})
	}

	if err := h.Chats.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return okMsg(c, http.StatusOK, "Message deleted successfully")
}
