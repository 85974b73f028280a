package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"rosterhub/internal/models"
	"rosterhub/pkg/config"
	appErrors "rosterhub/pkg/errors"
	"rosterhub/pkg/storage"
)

type courierAttachmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Courier, error)
	SetAttachment(ctx context.Context, id string, slot models.AttachmentSlot, path string) error
}

type staffAttachmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.OfficeStaff, error)
	SetAttachment(ctx context.Context, id string, path string) error
}

// Attachment is a stored file streamed back to the caller.
type Attachment struct {
	Filename    string
	ContentType string
	Reader      io.ReadCloser
}

// AttachmentService stores documents and vehicle photos next to their
// personnel records. The stored-path reference on the record is written
// first and a failed file write is reported but never rolled back, so a
// record and its file are each valid on their own even when the pair is
// inconsistent.
type AttachmentService struct {
	couriers courierAttachmentRepo
	staff    staffAttachmentRepo
	files    *storage.LocalStorage
	cfg      config.UploadsConfig
	logger   *zap.Logger
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(couriers courierAttachmentRepo, staff staffAttachmentRepo, files *storage.LocalStorage, cfg config.UploadsConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{couriers: couriers, staff: staff, files: files, cfg: cfg, logger: logger}
}

// StoredName returns the flat-file name for a slot: the record id plus
// the original filename, with vehicle photos prefixed "vehicle_".
func StoredName(slot models.AttachmentSlot, recordID, original string) string {
	name := recordID + "_" + filepath.Base(original)
	if slot == models.SlotVehiclePhoto {
		name = "vehicle_" + name
	}
	return name
}

// Attach stores an uploaded file in the given slot, overwriting any
// previous attachment reference. The prior file is left on disk.
func (s *AttachmentService) Attach(ctx context.Context, actor Actor, category models.Category, id string, slot models.AttachmentSlot, filename string, size int64, r io.Reader) (string, error) {
	if !models.Can(actor.Role, models.ActionEdit) {
		return "", appErrors.ErrForbidden
	}
	if slot == models.SlotVehiclePhoto && category != models.CategoryCourier {
		return "", appErrors.Clone(appErrors.ErrValidation, "vehicle photos apply to couriers only")
	}
	if filename == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "filename is required")
	}
	if s.cfg.MaxFileSizeBytes > 0 && size > s.cfg.MaxFileSizeBytes {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if err := s.checkMIME(filename); err != nil {
		return "", err
	}

	prior, err := s.priorPath(ctx, category, id, slot)
	if err != nil {
		return "", err
	}

	stored := StoredName(slot, id, filename)
	if err := s.setPath(ctx, category, id, slot, stored); err != nil {
		return "", err
	}
	if _, err := s.files.SaveStream(stored, r); err != nil {
		s.logger.Error("attachment file write failed after record update",
			zap.String("record_id", id),
			zap.String("path", stored),
			zap.Error(err))
		return stored, appErrors.Wrap(err, appErrors.ErrFileWriteFailed.Code, appErrors.ErrFileWriteFailed.Status, appErrors.ErrFileWriteFailed.Message)
	}

	if prior != nil && *prior != stored {
		// Replacing a slot leaves the old file behind on disk.
		s.logger.Warn("attachment replaced, previous file orphaned",
			zap.String("record_id", id),
			zap.String("slot", string(slot)),
			zap.String("orphaned_path", *prior))
	}
	return stored, nil
}

// Download opens the stored attachment in the given slot.
func (s *AttachmentService) Download(ctx context.Context, actor Actor, category models.Category, id string, slot models.AttachmentSlot) (*Attachment, error) {
	if !models.Can(actor.Role, models.ActionView) {
		return nil, appErrors.ErrForbidden
	}
	path, err := s.priorPath(ctx, category, id, slot)
	if err != nil {
		return nil, err
	}
	if path == nil || *path == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no attachment in this slot")
	}
	f, err := s.files.Open(*path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment file missing from storage")
	}
	contentType := mime.TypeByExtension(filepath.Ext(*path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Attachment{Filename: filepath.Base(*path), ContentType: contentType, Reader: f}, nil
}

func (s *AttachmentService) checkMIME(filename string) error {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return nil
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(contentType, allowed) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
}

func (s *AttachmentService) priorPath(ctx context.Context, category models.Category, id string, slot models.AttachmentSlot) (*string, error) {
	if category == models.CategoryCourier {
		courier, err := s.couriers.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "courier not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load courier")
		}
		if slot == models.SlotVehiclePhoto {
			return courier.VehiclePhotoPath, nil
		}
		return courier.DocumentPath, nil
	}
	staff, err := s.staff.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "office staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load office staff")
	}
	return staff.DocumentPath, nil
}

func (s *AttachmentService) setPath(ctx context.Context, category models.Category, id string, slot models.AttachmentSlot, path string) error {
	var err error
	if category == models.CategoryCourier {
		err = s.couriers.SetAttachment(ctx, id, slot, path)
	} else {
		err = s.staff.SetAttachment(ctx, id, path)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to store attachment reference")
	}
	return nil
}
