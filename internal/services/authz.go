package services

import (
	"github.com/folderdrop/backend/internal/models"
	"github.com/google/uuid"
)

// Action is a mutating operation gated by CanMutate.
type Action string

const (
	ActionDeleteFolder Action = "folder.delete"
	ActionDeleteImage  Action = "image.delete"
	ActionDeleteCode   Action = "code.delete"
	ActionDeleteUser   Action = "user.delete"
	ActionPromoteUser  Action = "user.promote"
)

// Identity is the authenticated caller, resolved from the session by
// middleware and passed explicitly. A nil Identity means unauthenticated.
type Identity struct {
	ID   uuid.UUID
	Role models.UserRole
}

// Owned is any record with an ownership field: a folder is owned by its
// creator, images and codes by their uploader, a user record by itself.
type Owned interface {
	OwnedBy() uuid.UUID
}

// CanMutate decides whether identity may perform action on target. It is a
// pure function; callers surface the permission error when it returns false.
//
// Rule precedence:
//  1. unauthenticated: denied
//  2. promotion and user deletion: admin only, and an admin may not delete
//     their own user record
//  3. admin may delete any folder, image, or code
//  4. otherwise only the record's owner may delete it
func CanMutate(identity *Identity, target Owned, action Action) bool {
	if identity == nil {
		return false
	}

	switch action {
	case ActionPromoteUser:
		return identity.Role == models.UserRoleAdmin

	case ActionDeleteUser:
		if identity.Role != models.UserRoleAdmin {
			return false
		}
		// Self-deletion guard: the admin-deletion path never removes the
		// acting admin's own account.
		return identity.ID != target.OwnedBy()

	case ActionDeleteFolder, ActionDeleteImage, ActionDeleteCode:
		if identity.Role == models.UserRoleAdmin {
			return true
		}
		return identity.ID == target.OwnedBy()
	}

	return false
}
