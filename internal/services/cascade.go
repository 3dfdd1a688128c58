package services

import (
	"context"

	"github.com/folderdrop/backend/internal/models"
	"github.com/folderdrop/backend/internal/storage"
	"github.com/folderdrop/backend/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// CascadeService removes a folder or user together with everything that
// references it. It is the only code path allowed to bulk-delete images or
// codes by folder or uploader.
//
// No transaction spans the database and the object store. Blob deletes are
// attempted first and their failures tolerated: a leaked, unreferenced blob
// is a cheaper failure mode than a database row pointing at nothing.
// Database errors abort the remaining steps; already-applied deletions are
// not rolled back.
type CascadeService struct {
	DB    *gorm.DB
	Blobs storage.BlobStore
}

func NewCascadeService(db *gorm.DB, blobs storage.BlobStore) *CascadeService {
	return &CascadeService{DB: db, Blobs: blobs}
}

// DeleteFolder removes every image and code inside the folder, their blobs,
// and finally the folder row itself.
func (s *CascadeService) DeleteFolder(ctx context.Context, folderID uuid.UUID) error {
	var images []models.Image
	if err := s.DB.WithContext(ctx).Where("folder_id = ?", folderID).Find(&images).Error; err != nil {
		return err
	}

	s.deleteBlobs(ctx, images)

	if err := s.DB.WithContext(ctx).Where("folder_id = ?", folderID).Delete(&models.Image{}).Error; err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Where("folder_id = ?", folderID).Delete(&models.Code{}).Error; err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Delete(&models.Folder{}, "id = ?", folderID).Error
}

// DeleteUser removes the user's own folders with their full contents, then
// sweeps images and codes the user uploaded into other people's folders, then
// the user row. The second phase is required because content is keyed by
// folder, not transitively by uploader.
func (s *CascadeService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	var folders []models.Folder
	if err := s.DB.WithContext(ctx).Where("created_by = ?", userID).Find(&folders).Error; err != nil {
		return err
	}

	for _, folder := range folders {
		if err := s.DeleteFolder(ctx, folder.ID); err != nil {
			return err
		}
	}

	var strayImages []models.Image
	if err := s.DB.WithContext(ctx).Where("uploaded_by = ?", userID).Find(&strayImages).Error; err != nil {
		return err
	}

	s.deleteBlobs(ctx, strayImages)

	if err := s.DB.WithContext(ctx).Where("uploaded_by = ?", userID).Delete(&models.Image{}).Error; err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Where("uploaded_by = ?", userID).Delete(&models.Code{}).Error; err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", userID).Error
}

// deleteBlobs issues the object-store deletes for a batch concurrently and
// waits for all of them to settle before document cleanup proceeds. Failures
// are logged, not returned: a missed blob must not block row deletion.
func (s *CascadeService) deleteBlobs(ctx context.Context, images []models.Image) {
	if len(images) == 0 {
		return
	}

	var g errgroup.Group
	for _, img := range images {
		objectName := img.StoragePath
		imageID := img.ID
		g.Go(func() error {
			if err := s.Blobs.Delete(ctx, objectName); err != nil {
				logger.Error("cascade_blob_delete_failed", err, map[string]interface{}{
					"image_id":    imageID.String(),
					"object_name": objectName,
				})
			}
			return nil
		})
	}
	_ = g.Wait()
}
