package handlers

import (
	"strings"

	"github.com/folderdrop/backend/internal/middleware"
	"github.com/folderdrop/backend/internal/models"
	"github.com/folderdrop/backend/internal/services"
	"github.com/folderdrop/backend/pkg/logger"
	"github.com/folderdrop/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type FoldersHandler struct {
	DB      *gorm.DB
	Cascade *services.CascadeService
	Audit   *services.AuditService
}

func NewFoldersHandler(db *gorm.DB, cascade *services.CascadeService, audit *services.AuditService) *FoldersHandler {
	return &FoldersHandler{DB: db, Cascade: cascade, Audit: audit}
}

type createFolderRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
}

func (h *FoldersHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "folder name is required")
	}

	var passwordHash *string
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
		}
		passwordHash = &hash
	}

	folder := models.Folder{
		Name:            name,
		Description:     strings.TrimSpace(req.Description),
		PasswordHash:    passwordHash,
		CreatedBy:       currentUser.ID,
		CreatorUsername: currentUser.Username,
	}

	if err := h.DB.Create(&folder).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating folder")
	}
	folder.IsPasswordProtected = passwordHash != nil

	logger.InfoWithUser(currentUser.ID.String(), "folder_created", map[string]interface{}{
		"folder_id":   folder.ID.String(),
		"folder_name": folder.Name,
		"protected":   folder.IsPasswordProtected,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "folder.create",
		ResourceType: "folder",
		ResourceID:   &folder.ID,
		Details: map[string]interface{}{
			"folder_name": folder.Name,
			"protected":   folder.IsPasswordProtected,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusCreated, folder)
}

func (h *FoldersHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	var total int64
	if err := h.DB.Model(&models.Folder{}).Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting folders")
	}

	var folders []models.Folder
	if err := utils.ApplyPagination(h.DB.Order("created_at DESC"), p).Find(&folders).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing folders")
	}

	return utils.Paginated(c, folders, p.Page, p.Limit, total)
}

// Get returns folder metadata readable without the access gate: name,
// description, creator display name, and whether a password is set. The hash
// itself is never serialized.
func (h *FoldersHandler) Get(c *fiber.Ctx) error {
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var folder models.Folder
	if err := h.DB.First(&folder, "id = ?", folderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "folder not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching folder")
	}

	return utils.Success(c, fiber.StatusOK, folder)
}

type verifyFolderRequest struct {
	Password string `json:"password"`
}

// Verify is the folder access gate. Every mismatch gets the same response
// shape; a grant is remembered by the client, not the server.
func (h *FoldersHandler) Verify(c *fiber.Ctx) error {
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req verifyFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "password is required")
	}

	var folder models.Folder
	if err := h.DB.First(&folder, "id = ?", folderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "folder not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching folder")
	}

	if !folder.IsPasswordProtected {
		return utils.Error(c, fiber.StatusBadRequest, "this folder is not password protected")
	}

	if !services.VerifyFolderPassword(&folder, req.Password) {
		return utils.Error(c, fiber.StatusUnauthorized, "incorrect password")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"granted": true})
}

func (h *FoldersHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var folder models.Folder
	if err := h.DB.First(&folder, "id = ?", folderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "folder not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching folder")
	}

	if !services.CanMutate(middleware.GetIdentity(c), &folder, services.ActionDeleteFolder) {
		logger.WarnWithUser(currentUser.ID.String(), "permission_denied", map[string]interface{}{
			"action":    "folder_delete",
			"target_id": folder.ID.String(),
		})
		return utils.Error(c, fiber.StatusForbidden, "not authorized to delete this folder")
	}

	if err := h.Cascade.DeleteFolder(c.Context(), folder.ID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting folder")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_deleted", map[string]interface{}{
		"folder_id":   folder.ID.String(),
		"folder_name": folder.Name,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "folder.delete",
		ResourceType: "folder",
		ResourceID:   &folder.ID,
		Details: map[string]interface{}{
			"folder_name": folder.Name,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "folder deleted"})
}

func (h *FoldersHandler) ListImages(c *fiber.Ctx) error {
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var images []models.Image
	if err := h.DB.Where("folder_id = ?", folderID).Order("created_at DESC").Find(&images).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing images")
	}

	return utils.Success(c, fiber.StatusOK, images)
}

func (h *FoldersHandler) ListCodes(c *fiber.Ctx) error {
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var codes []models.Code
	if err := h.DB.Where("folder_id = ?", folderID).Order("created_at DESC").Find(&codes).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing code snippets")
	}

	return utils.Success(c, fiber.StatusOK, codes)
}
