package models

import (
	"time"

	"github.com/google/uuid"
)

// Media is an uploaded object in the media bucket.
type Media struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key         string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"key"`
	URL         string    `gorm:"not null" json:"url"`
	ContentType string    `gorm:"type:varchar(64);not null" json:"content_type"`
	Size        int64     `json:"size"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PresignRequest asks for an upload URL.
type PresignRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignResponse carries the presigned PUT URL and where the object will be served from.
type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
	ExpiresIn int    `json:"expires_in"`
}

// RegisterMediaRequest records an object the client uploaded.
type RegisterMediaRequest struct {
	Key         string `json:"key" binding:"required,startswith=media/,max=512"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"gte=0"`
}
