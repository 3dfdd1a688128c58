package handlers

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/folderdrop/backend/internal/middleware"
	"github.com/folderdrop/backend/internal/models"
	"github.com/folderdrop/backend/internal/services"
	"github.com/folderdrop/backend/internal/storage"
	"github.com/folderdrop/backend/pkg/logger"
	"github.com/folderdrop/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const presignedURLExpiry = 15 * time.Minute

type ImagesHandler struct {
	DB      *gorm.DB
	Storage storage.BlobStore
	Audit   *services.AuditService
}

func NewImagesHandler(db *gorm.DB, blobs storage.BlobStore, audit *services.AuditService) *ImagesHandler {
	return &ImagesHandler{DB: db, Storage: blobs, Audit: audit}
}

func (h *ImagesHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderIDRaw := strings.TrimSpace(c.FormValue("folderId"))
	if folderIDRaw == "" {
		return utils.Error(c, fiber.StatusBadRequest, "folderId is required")
	}
	folderID, err := parseUUID(folderIDRaw)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folderId")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	var folder models.Folder
	if err := h.DB.First(&folder, "id = ?", folderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "folder not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating folder")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("%s/%s/%s", folder.ID.String(), uuid.New().String(), filename)
	if err := h.Storage.Upload(c.Context(), objectName, stream, fileHeader.Size, contentType); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed uploading image")
	}

	image := models.Image{
		URL:              h.Storage.ObjectURL(objectName),
		Filename:         filename,
		StoragePath:      objectName,
		FolderID:         folder.ID,
		UploadedBy:       currentUser.ID,
		UploaderUsername: currentUser.Username,
	}

	if err := h.DB.Create(&image).Error; err != nil {
		_ = h.Storage.Delete(c.Context(), objectName)
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating image record")
	}

	logger.InfoWithUser(currentUser.ID.String(), "image_uploaded", map[string]interface{}{
		"image_id":     image.ID.String(),
		"filename":     filename,
		"size":         fileHeader.Size,
		"folder_id":    folder.ID.String(),
		"storage_path": objectName,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "image.upload",
		ResourceType: "image",
		ResourceID:   &image.ID,
		Details: map[string]interface{}{
			"filename":  filename,
			"size":      fileHeader.Size,
			"folder_id": folder.ID.String(),
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusCreated, image)
}

// DownloadURL hands out a short-lived presigned link for the blob.
func (h *ImagesHandler) DownloadURL(c *fiber.Ctx) error {
	imageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid image id")
	}

	var image models.Image
	if err := h.DB.First(&image, "id = ?", imageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "image not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching image")
	}

	url, err := h.Storage.PresignedGetURL(c.Context(), image.StoragePath, presignedURLExpiry)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating download url")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url})
}

func (h *ImagesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	imageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid image id")
	}

	var image models.Image
	if err := h.DB.First(&image, "id = ?", imageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "image not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching image")
	}

	if !services.CanMutate(middleware.GetIdentity(c), &image, services.ActionDeleteImage) {
		logger.WarnWithUser(currentUser.ID.String(), "permission_denied", map[string]interface{}{
			"action":    "image_delete",
			"target_id": image.ID.String(),
		})
		return utils.Error(c, fiber.StatusForbidden, "not authorized to delete this image")
	}

	// Blob first so a failed blob delete can be retried against a row that
	// still references it. A blob already gone is benign.
	if err := h.Storage.Delete(c.Context(), image.StoragePath); err != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "image_blob_delete_failed", err, map[string]interface{}{
			"image_id":     image.ID.String(),
			"storage_path": image.StoragePath,
		})
	}

	if err := h.DB.Delete(&models.Image{}, "id = ?", image.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting image")
	}

	logger.InfoWithUser(currentUser.ID.String(), "image_deleted", map[string]interface{}{
		"image_id": image.ID.String(),
		"filename": image.Filename,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "image.delete",
		ResourceType: "image",
		ResourceID:   &image.ID,
		Details: map[string]interface{}{
			"filename":  image.Filename,
			"folder_id": image.FolderID.String(),
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "image deleted"})
}
