package models

import "github.com/google/uuid"

// Image is the metadata row for an uploaded picture. The bytes live in the
// object store: URL is the public location shown to clients, StoragePath the
// object key the cascade deletes by. Both point at the same blob.
type Image struct {
	BaseModel
	URL         string `json:"url" gorm:"type:text;not null"`
	Filename    string `json:"filename" gorm:"type:varchar(255);not null"`
	StoragePath string `json:"-" gorm:"type:text;not null"`

	FolderID         uuid.UUID `json:"folderId" gorm:"type:uuid;not null;index"`
	UploadedBy       uuid.UUID `json:"uploadedBy" gorm:"type:uuid;not null;index"`
	UploaderUsername string    `json:"uploaderUsername" gorm:"type:varchar(100);not null"`
}

func (i *Image) OwnedBy() uuid.UUID {
	return i.UploadedBy
}
