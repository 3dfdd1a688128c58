package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Folder is a named container for images and code snippets. An optional
// bcrypt hash gates read access to its contents; the raw password is never
// stored or serialized.
type Folder struct {
	BaseModel
	Name         string  `json:"name" gorm:"type:varchar(255);not null"`
	Description  string  `json:"description" gorm:"type:text;not null;default:''"`
	PasswordHash *string `json:"-" gorm:"type:text"`

	// CreatorUsername is a write-time snapshot for display. It is not kept
	// in sync if the creator later renames.
	CreatedBy       uuid.UUID `json:"createdBy" gorm:"type:uuid;not null;index"`
	CreatorUsername string    `json:"creatorUsername" gorm:"type:varchar(100);not null"`

	IsPasswordProtected bool `json:"isPasswordProtected" gorm:"-"`

	Images []Image `json:"-" gorm:"foreignKey:FolderID"`
	Codes  []Code  `json:"-" gorm:"foreignKey:FolderID"`
}

func (f *Folder) AfterFind(_ *gorm.DB) error {
	f.IsPasswordProtected = f.PasswordHash != nil && *f.PasswordHash != ""
	return nil
}

func (f *Folder) OwnedBy() uuid.UUID {
	return f.CreatedBy
}
