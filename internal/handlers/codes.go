package handlers

import (
	"fmt"
	"strings"

	"github.com/folderdrop/backend/internal/middleware"
	"github.com/folderdrop/backend/internal/models"
	"github.com/folderdrop/backend/internal/services"
	"github.com/folderdrop/backend/pkg/logger"
	"github.com/folderdrop/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CodesHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewCodesHandler(db *gorm.DB, audit *services.AuditService) *CodesHandler {
	return &CodesHandler{DB: db, Audit: audit}
}

type createCodeRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	FolderID string `json:"folderId"`
}

func (h *CodesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" || req.Content == "" || strings.TrimSpace(req.FolderID) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "filename, content, and folderId are required")
	}

	// Cheapest checks first: size limits before any store access.
	if len(req.Content) > models.MaxCodeChars {
		return utils.Error(c, fiber.StatusBadRequest,
			fmt.Sprintf("code snippet must be at most %d characters", models.MaxCodeChars))
	}
	if strings.Count(req.Content, "\n")+1 > models.MaxCodeLines {
		return utils.Error(c, fiber.StatusBadRequest,
			fmt.Sprintf("code snippet must be less than %d lines", models.MaxCodeLines))
	}

	folderID, err := parseUUID(req.FolderID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folderId")
	}

	var folder models.Folder
	if err := h.DB.First(&folder, "id = ?", folderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "folder not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating folder")
	}

	code := models.Code{
		Filename:         filename,
		Content:          req.Content,
		FolderID:         folder.ID,
		UploadedBy:       currentUser.ID,
		UploaderUsername: currentUser.Username,
	}

	if err := h.DB.Create(&code).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving code snippet")
	}

	logger.InfoWithUser(currentUser.ID.String(), "code_created", map[string]interface{}{
		"code_id":   code.ID.String(),
		"filename":  filename,
		"folder_id": folder.ID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "code.create",
		ResourceType: "code",
		ResourceID:   &code.ID,
		Details: map[string]interface{}{
			"filename":  filename,
			"folder_id": folder.ID.String(),
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusCreated, code)
}

// Get serves the raw snippet as text/plain so browsers render it inline.
func (h *CodesHandler) Get(c *fiber.Ctx) error {
	codeID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid code id")
	}

	var code models.Code
	if err := h.DB.First(&code, "id = ?", codeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "code snippet not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching code snippet")
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", code.Filename))
	return c.Status(fiber.StatusOK).SendString(code.Content)
}

func (h *CodesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	codeID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid code id")
	}

	var code models.Code
	if err := h.DB.First(&code, "id = ?", codeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "code snippet not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching code snippet")
	}

	if !services.CanMutate(middleware.GetIdentity(c), &code, services.ActionDeleteCode) {
		logger.WarnWithUser(currentUser.ID.String(), "permission_denied", map[string]interface{}{
			"action":    "code_delete",
			"target_id": code.ID.String(),
		})
		return utils.Error(c, fiber.StatusForbidden, "not authorized to delete this snippet")
	}

	if err := h.DB.Delete(&models.Code{}, "id = ?", code.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting code snippet")
	}

	logger.InfoWithUser(currentUser.ID.String(), "code_deleted", map[string]interface{}{
		"code_id":  code.ID.String(),
		"filename": code.Filename,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "code.delete",
		ResourceType: "code",
		ResourceID:   &code.ID,
		Details: map[string]interface{}{
			"filename":  code.Filename,
			"folder_id": code.FolderID.String(),
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "code snippet deleted"})
}
