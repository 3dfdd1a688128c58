package services

import (
	"testing"

	"github.com/folderdrop/backend/internal/models"
	"github.com/google/uuid"
)

func TestCanMutate(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()
	adminID := uuid.New()

	owner := &Identity{ID: ownerID, Role: models.UserRoleUser}
	other := &Identity{ID: otherID, Role: models.UserRoleUser}
	admin := &Identity{ID: adminID, Role: models.UserRoleAdmin}

	folder := &models.Folder{CreatedBy: ownerID}
	image := &models.Image{UploadedBy: ownerID}
	code := &models.Code{UploadedBy: ownerID}
	user := &models.User{BaseModel: models.BaseModel{ID: ownerID}}
	adminSelf := &models.User{BaseModel: models.BaseModel{ID: adminID}}

	tests := []struct {
		name     string
		identity *Identity
		target   Owned
		action   Action
		want     bool
	}{
		{"unauthenticated denied for folder delete", nil, folder, ActionDeleteFolder, false},
		{"unauthenticated denied for user delete", nil, user, ActionDeleteUser, false},
		{"owner may delete own folder", owner, folder, ActionDeleteFolder, true},
		{"non-owner may not delete folder", other, folder, ActionDeleteFolder, false},
		{"admin may delete any folder", admin, folder, ActionDeleteFolder, true},
		{"owner may delete own image", owner, image, ActionDeleteImage, true},
		{"non-owner may not delete image", other, image, ActionDeleteImage, false},
		{"admin may delete any image", admin, image, ActionDeleteImage, true},
		{"owner may delete own code", owner, code, ActionDeleteCode, true},
		{"non-owner may not delete code", other, code, ActionDeleteCode, false},
		{"admin may delete any code", admin, code, ActionDeleteCode, true},
		{"non-admin may not delete users", owner, user, ActionDeleteUser, false},
		{"admin may delete other users", admin, user, ActionDeleteUser, true},
		{"admin may not delete own account", admin, adminSelf, ActionDeleteUser, false},
		{"non-admin may not promote", owner, user, ActionPromoteUser, false},
		{"admin may promote", admin, user, ActionPromoteUser, true},
		{"unknown action denied", admin, folder, Action("folder.rename"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.identity, tt.target, tt.action); got != tt.want {
				t.Errorf("CanMutate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanMutateIsDeterministic(t *testing.T) {
	admin := &Identity{ID: uuid.New(), Role: models.UserRoleAdmin}
	folder := &models.Folder{CreatedBy: uuid.New()}

	for i := 0; i < 10; i++ {
		if !CanMutate(admin, folder, ActionDeleteFolder) {
			t.Fatal("expected identical inputs to yield identical decisions")
		}
	}
}
