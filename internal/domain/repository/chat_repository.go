package repository

import (
	"context"

	"dongnezip/internal/domain/entity"
)

type ChatRepository interface {
	// Recent returns the newest page of a room, newest first
	Recent(ctx context.Context, roomID int64) ([]entity.ChatMessage, error)

	// Older returns the page before cursor, newest first
	Older(ctx context.Context, roomID int64, cursor int64) ([]entity.ChatMessage, error)

	UploadImage(ctx context.Context, upload entity.ImageUpload) (string, error)
	CreateRoom(ctx context.Context, room entity.ChatRoom) (int64, error)
	DeleteRoom(ctx context.Context, roomID int64) error
}
