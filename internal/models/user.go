package models

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

type User struct {
	BaseModel
	Username     string   `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'user'"`

	Folders []Folder `json:"-" gorm:"foreignKey:CreatedBy"`
	Images  []Image  `json:"-" gorm:"foreignKey:UploadedBy"`
	Codes   []Code   `json:"-" gorm:"foreignKey:UploadedBy"`
}

// OwnedBy satisfies services.Owned: a user record is owned by itself.
func (u *User) OwnedBy() uuid.UUID {
	return u.ID
}
