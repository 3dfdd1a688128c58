package models

import "github.com/google/uuid"

const (
	// MaxCodeLines and MaxCodeChars bound snippet content. Oversized content
	// is a validation error, checked before any store access.
	MaxCodeLines = 600
	MaxCodeChars = 30000
)

// Code is a short text snippet stored inline; unlike Image it has no blob.
type Code struct {
	BaseModel
	Filename string `json:"filename" gorm:"type:varchar(255);not null"`
	Content  string `json:"content" gorm:"type:text;not null"`

	FolderID         uuid.UUID `json:"folderId" gorm:"type:uuid;not null;index"`
	UploadedBy       uuid.UUID `json:"uploadedBy" gorm:"type:uuid;not null;index"`
	UploaderUsername string    `json:"uploaderUsername" gorm:"type:varchar(100);not null"`
}

func (c *Code) OwnedBy() uuid.UUID {
	return c.UploadedBy
}
