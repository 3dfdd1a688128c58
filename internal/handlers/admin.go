package handlers

import (
	"github.com/folderdrop/backend/internal/middleware"
	"github.com/folderdrop/backend/internal/models"
	"github.com/folderdrop/backend/internal/services"
	"github.com/folderdrop/backend/pkg/logger"
	"github.com/folderdrop/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminHandler covers moderation: instance status, role promotion, and user
// removal with its full cascade. Routes are mounted behind AdminOnly; the
// per-target decisions still go through services.CanMutate.
type AdminHandler struct {
	DB      *gorm.DB
	Cascade *services.CascadeService
	Audit   *services.AuditService
}

func NewAdminHandler(db *gorm.DB, cascade *services.CascadeService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{DB: db, Cascade: cascade, Audit: audit}
}

func (h *AdminHandler) Status(c *fiber.Ctx) error {
	var userCount, folderCount, imageCount, codeCount int64

	if err := h.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}
	if err := h.DB.Model(&models.Folder{}).Count(&folderCount).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting folders")
	}
	if err := h.DB.Model(&models.Image{}).Count(&imageCount).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting images")
	}
	if err := h.DB.Model(&models.Code{}).Count(&codeCount).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting code snippets")
	}

	var users []models.User
	if err := h.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	var folders []models.Folder
	if err := h.DB.Order("created_at DESC").Find(&folders).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing folders")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"userCount":   userCount,
		"folderCount": folderCount,
		"imageCount":  imageCount,
		"codeCount":   codeCount,
		"users":       users,
		"folders":     folders,
	})
}

// PromoteUser raises a user to admin. Promotion only; there is no demotion
// path in this design.
func (h *AdminHandler) PromoteUser(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	if !services.CanMutate(middleware.GetIdentity(c), &user, services.ActionPromoteUser) {
		return utils.Error(c, fiber.StatusForbidden, "not authorized to change roles")
	}

	if user.Role == models.UserRoleAdmin {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "user is already an admin"})
	}

	if err := h.DB.Model(&user).Update("role", models.UserRoleAdmin).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user role")
	}

	logger.InfoWithUser(currentUser.ID.String(), "user_promoted", map[string]interface{}{
		"target_user_id": user.ID.String(),
		"username":       user.Username,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "user.promote",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"username": user.Username,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "user " + user.Username + " is now an admin"})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	if !services.CanMutate(middleware.GetIdentity(c), &user, services.ActionDeleteUser) {
		if currentUser.ID == user.ID {
			return utils.Error(c, fiber.StatusBadRequest, "admins cannot delete their own account")
		}
		return utils.Error(c, fiber.StatusForbidden, "not authorized to delete users")
	}

	if err := h.Cascade.DeleteUser(c.Context(), user.ID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	logger.InfoWithUser(currentUser.ID.String(), "user_deleted", map[string]interface{}{
		"target_user_id": user.ID.String(),
		"username":       user.Username,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "user.delete",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"username": user.Username,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "user and all associated content deleted"})
}
