package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/repository"
)

// fakeChatStore keeps messages in a map and mirrors the repository's
// error contract, including the receiver FK check.
type fakeChatStore struct {
	nextID uint64
	msgs   map[uint64]model.Chat
	users  map[uint64]bool
}

func newFakeChatStore(userIDs ...uint64) *fakeChatStore {
	s := &fakeChatStore{nextID: 1, msgs: map[uint64]model.Chat{}, users: map[uint64]bool{}}
	for _, id := range userIDs {
		s.users[id] = true
	}
	return s
}

func (s *fakeChatStore) Create(_ context.Context, c model.Chat) (uint64, error) {
	if c.ReceiverID != nil && !s.users[*c.ReceiverID] {
		return 0, repository.ErrReceiverNotFound
	}
	c.ID = s.nextID
	c.SentAt = time.Now().UTC()
	s.msgs[c.ID] = c
	s.nextID++
	return c.ID, nil
}

func (s *fakeChatStore) GetByID(_ context.Context, id uint64) (model.Chat, error) {
	m, ok := s.msgs[id]
	if !ok {
		return model.Chat{}, sql.ErrNoRows
	}
	return m, nil
}

func (s *fakeChatStore) ListVisible(_ context.Context, userID uint64, skip, limit int) ([]model.Chat, error) {
	var out []model.Chat
	for _, m := range s.msgs {
		if m.Audience == model.AudienceAll || (m.ReceiverID != nil && *m.ReceiverID == userID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeChatStore) Update(_ context.Context, id uint64, body, audience string, receiverID *uint64) error {
	m, ok := s.msgs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if receiverID != nil && !s.users[*receiverID] {
		return repository.ErrReceiverNotFound
	}
	m.Body, m.Audience, m.ReceiverID = body, audience, receiverID
	s.msgs[id] = m
	return nil
}

func (s *fakeChatStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.msgs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.msgs, id)
	return nil
}

func chatCtx(method, target, body string, caller model.User, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	c.Set("user", caller)
	return c, rec
}

var (
	chatAdmin = model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}
	chatAlice = model.User{ID: 2, Email: "alice@example.com", Role: model.RoleNormalUser}
	chatBob   = model.User{ID: 3, Email: "bob@example.com", Role: model.RoleNormalUser}
)

func TestChatDirectMessageFlow(t *testing.T) {
	store := newFakeChatStore(chatAdmin.ID, chatAlice.ID, chatBob.ID)
	h := NewChatHandler(store)

	// Alice sends Bob a direct message.
	body := `{"body":"is parcel 10 free?","audience":"ONE","receiver_id":3}`
	c, rec := chatCtx(http.MethodPost, "/v1/chats", body, chatAlice)
	require.NoError(t, h.Send(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created chatOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, chatAlice.ID, created.SenderID)
	require.NotNil(t, created.ReceiverID)
	assert.Equal(t, chatBob.ID, *created.ReceiverID)

	// Bob sees it; Alice does not see her own outbound in the feed.
	c, rec = chatCtx(http.MethodGet, "/v1/chats", "", chatBob)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []chatOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "is parcel 10 free?", feed[0].Body)

	c, rec = chatCtx(http.MethodGet, "/v1/chats", "", chatAlice)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatSendValidation(t *testing.T) {
	store := newFakeChatStore(chatAlice.ID, chatBob.ID)
	h := NewChatHandler(store)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing body", `{"audience":"ALL"}`, http.StatusBadRequest},
		{"unknown audience", `{"body":"x","audience":"SOME"}`, http.StatusBadRequest},
		{"ONE without receiver", `{"body":"x","audience":"ONE"}`, http.StatusBadRequest},
		{"ALL with receiver", `{"body":"x","audience":"ALL","receiver_id":3}`, http.StatusBadRequest},
		{"receiver does not exist", `{"body":"x","audience":"ONE","receiver_id":42}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := chatCtx(http.MethodPost, "/v1/chats", tt.body, chatAlice)
			require.NoError(t, h.Send(c))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestChatBroadcastVisibleToEveryone(t *testing.T) {
	store := newFakeChatStore(chatAdmin.ID, chatAlice.ID, chatBob.ID)
	h := NewChatHandler(store)

	// The broadcast endpoint forces ALL even if the body says ONE.
	body := `{"body":"maintenance tonight","audience":"ONE","receiver_id":2}`
	c, rec := chatCtx(http.MethodPost, "/v1/chats/broadcast", body, chatAdmin)
	require.NoError(t, h.Broadcast(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created chatOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.AudienceAll, created.Audience)
	assert.Nil(t, created.ReceiverID)

	for _, u := range []model.User{chatAlice, chatBob} {
		c, rec = chatCtx(http.MethodGet, "/v1/chats", "", u)
		require.NoError(t, h.List(c))
		assert.Equal(t, http.StatusOK, rec.Code, "user %d", u.ID)
	}
}

func TestChatUpdateSenderOnly(t *testing.T) {
	store := newFakeChatStore(chatAlice.ID, chatBob.ID)
	h := NewChatHandler(store)

	id, err := store.Create(context.Background(), model.Chat{
		SenderID: chatAlice.ID, Audience: model.AudienceOne, ReceiverID: &chatBob.ID, Body: "draft",
	})
	require.NoError(t, err)
	param := strconv.FormatUint(id, 10)

	// Bob cannot edit Alice's message.
	body := `{"body":"hijacked","audience":"ALL"}`
	c, rec := chatCtx(http.MethodPatch, "/v1/chats/"+param, body, chatBob, "id", param)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Alice switches the message to a broadcast; the receiver is
	// dropped with the audience change.
	body = `{"body":"final","audience":"ALL"}`
	c, rec = chatCtx(http.MethodPatch, "/v1/chats/"+param, body, chatAlice, "id", param)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated chatOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "final", updated.Body)
	assert.Equal(t, model.AudienceAll, updated.Audience)
	assert.Nil(t, updated.ReceiverID)
}

func TestChatUpdatePartial(t *testing.T) {
	newMsg := func(store *fakeChatStore) string {
		id, err := store.Create(context.Background(), model.Chat{
			SenderID: chatAlice.ID, Audience: model.AudienceOne, ReceiverID: &chatBob.ID, Body: "original",
		})
		require.NoError(t, err)
		return strconv.FormatUint(id, 10)
	}

	t.Run("audience alone switches to broadcast", func(t *testing.T) {
		store := newFakeChatStore(chatAlice.ID, chatBob.ID)
		h := NewChatHandler(store)
		param := newMsg(store)

		c, rec := chatCtx(http.MethodPatch, "/v1/chats/"+param, `{"audience":"ALL"}`, chatAlice, "id", param)
		require.NoError(t, h.Update(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var updated chatOut
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, model.AudienceAll, updated.Audience)
		assert.Nil(t, updated.ReceiverID)
		assert.Equal(t, "original", updated.Body, "untouched fields must survive the edit")
	})

	t.Run("body alone keeps audience and receiver", func(t *testing.T) {
		store := newFakeChatStore(chatAlice.ID, chatBob.ID)
		h := NewChatHandler(store)
		param := newMsg(store)

		c, rec := chatCtx(http.MethodPatch, "/v1/chats/"+param, `{"body":"edited"}`, chatAlice, "id", param)
		require.NoError(t, h.Update(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var updated chatOut
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "edited", updated.Body)
		assert.Equal(t, model.AudienceOne, updated.Audience)
		require.NotNil(t, updated.ReceiverID)
		assert.Equal(t, chatBob.ID, *updated.ReceiverID)
	})

	t.Run("switching a broadcast to ONE needs a receiver", func(t *testing.T) {
		store := newFakeChatStore(chatAlice.ID, chatBob.ID)
		h := NewChatHandler(store)
		id, err := store.Create(context.Background(), model.Chat{
			SenderID: chatAlice.ID, Audience: model.AudienceAll, Body: "to everyone",
		})
		require.NoError(t, err)
		param := strconv.FormatUint(id, 10)

		c, rec := chatCtx(http.MethodPatch, "/v1/chats/"+param, `{"audience":"ONE"}`, chatAlice, "id", param)
		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		c, rec = chatCtx(http.MethodPatch, "/v1/chats/"+param, `{"audience":"ONE","receiver_id":3}`, chatAlice, "id", param)
		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects empty body and unknown audience", func(t *testing.T) {
		store := newFakeChatStore(chatAlice.ID, chatBob.ID)
		h := NewChatHandler(store)
		param := newMsg(store)

		for _, body := range []string{`{"body":""}`, `{"audience":"SOME"}`} {
			c, rec := chatCtx(http.MethodPatch, "/v1/chats/"+param, body, chatAlice, "id", param)
			require.NoError(t, h.Update(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "payload %s", body)
		}
	})
}

func TestChatDelete(t *testing.T) {
	store := newFakeChatStore(chatAdmin.ID, chatAlice.ID, chatBob.ID)
	h := NewChatHandler(store)

	id, err := store.Create(context.Background(), model.Chat{
		SenderID: chatAlice.ID, Audience: model.AudienceAll, Body: "oops",
	})
	require.NoError(t, err)
	param := strconv.FormatUint(id, 10)

	c, rec := chatCtx(http.MethodDelete, "/v1/chats/"+param, "", chatBob, "id", param)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin can moderate any message away.
	c, rec = chatCtx(http.MethodDelete, "/v1/chats/"+param, "", chatAdmin, "id", param)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = chatCtx(http.MethodDelete, "/v1/chats/"+param, "", chatAdmin, "id", param)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
