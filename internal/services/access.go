package services

import (
	"github.com/folderdrop/backend/internal/models"
	"github.com/folderdrop/backend/pkg/utils"
)

// VerifyFolderPassword is the folder access gate: a one-way comparison of the
// supplied password against the stored hash. It is stateless per call; a
// grant is a client-side fact, not a server-side capability.
//
// Folders without a stored hash never reach the gate for reads.
func VerifyFolderPassword(folder *models.Folder, password string) bool {
	if folder.PasswordHash == nil || *folder.PasswordHash == "" {
		return false
	}
	return utils.CheckPassword(password, *folder.PasswordHash)
}
