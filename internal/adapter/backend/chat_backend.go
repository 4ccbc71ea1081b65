package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
)

type chatBackend struct {
	client *Client
}

func NewChatBackend(client *Client) repository.ChatRepository {
	return &chatBackend{client: client}
}

// historyMessage is a stored chat row as the history endpoints return it.
type historyMessage struct {
	ID         int64         `json:"id"`
	SenderID   entity.UserID `json:"senderId"`
	SenderNick string        `json:"senderNick"`
	Message    string        `json:"message"`
	MsgType    string        `json:"msgType"`
}

type historyResponse struct {
	Message []historyMessage `json:"message"`
}

func (r historyResponse) toEntities(roomID int64) []entity.ChatMessage {
	out := make([]entity.ChatMessage, 0, len(r.Message))
	for _, m := range r.Message {
		out = append(out, entity.ChatMessage{
			ID:         m.ID,
			RoomID:     roomID,
			SenderID:   m.SenderID,
			SenderNick: m.SenderNick,
			Body:       m.Message,
			Kind:       entity.NormalizeKind(m.MsgType),
		})
	}
	return out
}

func (b *chatBackend) Recent(ctx context.Context, roomID int64) ([]entity.ChatMessage, error) {
	var resp historyResponse
	if err := b.client.getJSON(ctx, fmt.Sprintf("/chat/%d", roomID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toEntities(roomID), nil
}

func (b *chatBackend) Older(ctx context.Context, roomID int64, cursor int64) ([]entity.ChatMessage, error) {
	var resp historyResponse
	query := url.Values{"cursor": {strconv.FormatInt(cursor, 10)}}
	if err := b.client.getJSON(ctx, fmt.Sprintf("/chat/%d/history", roomID), query, &resp); err != nil {
		return nil, err
	}
	return resp.toEntities(roomID), nil
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

func (b *chatBackend) UploadImage(ctx context.Context, upload entity.ImageUpload) (string, error) {
	fields := map[string]string{
		"senderId":   upload.SenderID.String(),
		"senderNick": upload.SenderNick,
		"roomId":     strconv.FormatInt(upload.RoomID, 10),
		"chatHost":   upload.ChatHost.String(),
		"chatGuest":  upload.ChatGuest.String(),
	}
	file := formFile{
		field:       "image",
		name:        upload.File.Name,
		contentType: mimetype.Detect(upload.File.Data).String(),
		data:        upload.File.Data,
	}

	var resp uploadResponse
	if err := b.client.sendMultipart(ctx, http.MethodPost, "/chat/image", fields, []formFile{file}, &resp); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", errors.Application("upload returned no image url")
	}
	return resp.ImageURL, nil
}

type createRoomResponse struct {
	RoomID int64 `json:"roomId"`
}

func (b *chatBackend) CreateRoom(ctx context.Context, room entity.ChatRoom) (int64, error) {
	payload := map[string]interface{}{
		"itemId":    room.ItemID,
		"chatHost":  room.ChatHost,
		"chatGuest": room.ChatGuest,
		"guestNick": room.GuestNick,
	}

	var resp createRoomResponse
	if err := b.client.sendJSON(ctx, http.MethodPost, "/chat/chatroom/create", payload, &resp); err != nil {
		return 0, err
	}
	if resp.RoomID == 0 {
		return 0, errors.Application("chat room was not created")
	}
	return resp.RoomID, nil
}

func (b *chatBackend) DeleteRoom(ctx context.Context, roomID int64) error {
	return b.client.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/chat/room/%d", roomID), nil, nil)
}
