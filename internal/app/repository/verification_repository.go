package repository

import (
	"context"
	"strings"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerificationFilter 인증 요청 목록 필터
type VerificationFilter struct {
	Status   model.VerificationStatus
	Priority model.Priority
	Search   string // university name, admin email or admin name (case-insensitive)
}

type VerificationRepository interface {
	Create(ctx context.Context, req *model.VerificationRequest) error
	Save(ctx context.Context, req *model.VerificationRequest) error
	UpdateDocument(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id string) (*model.VerificationRequest, error)
	FindLatestByUniversityID(ctx context.Context, universityID string) (*model.VerificationRequest, error)
	FindAll(ctx context.Context, filter VerificationFilter) ([]model.VerificationRequest, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func preloadDocuments(db *gorm.DB) *gorm.DB {
	return db.Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// Create inserts the request together with its documents
func (r *verificationRepository) Create(ctx context.Context, req *model.VerificationRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		logger.Error("Failed to create verification request", err, map[string]interface{}{
			"verification_id": req.ID,
			"university_id":   req.UniversityID,
		})
		return err
	}

	logger.Debug("Verification request created in database", map[string]interface{}{
		"verification_id": req.ID,
		"documents":       len(req.Documents),
	})
	return nil
}

// Save persists the request row only; documents are written with UpdateDocument
func (r *verificationRepository) Save(ctx context.Context, req *model.VerificationRequest) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(req).Error; err != nil {
		logger.Error("Failed to save verification request", err, map[string]interface{}{
			"verification_id": req.ID,
		})
		return err
	}
	return nil
}

func (r *verificationRepository) UpdateDocument(ctx context.Context, doc *model.Document) error {
	result := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND verification_request_id = ?", doc.ID, doc.VerificationRequestID).
		Updates(map[string]interface{}{
			"status":       doc.Status,
			"review_notes": doc.ReviewNotes,
		})
	if result.Error != nil {
		logger.Error("Failed to update document", result.Error, map[string]interface{}{
			"document_id": doc.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *verificationRepository) FindByID(ctx context.Context, id string) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	if err := preloadDocuments(r.db.WithContext(ctx)).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindLatestByUniversityID returns the most recently submitted request of a university
func (r *verificationRepository) FindLatestByUniversityID(ctx context.Context, universityID string) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	err := preloadDocuments(r.db.WithContext(ctx)).
		Where("university_id = ?", universityID).
		Order("submitted_at DESC").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *verificationRepository) FindAll(ctx context.Context, filter VerificationFilter) ([]model.VerificationRequest, error) {
	query := preloadDocuments(r.db.WithContext(ctx)).Model(&model.VerificationRequest{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(university_name) LIKE ? OR LOWER(admin_email) LIKE ? OR LOWER(admin_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var requests []model.VerificationRequest
	if err := query.Order("submitted_at DESC").Find(&requests).Error; err != nil {
		logger.Error("Failed to list verification requests", err, map[string]interface{}{
			"status":   filter.Status,
			"priority": filter.Priority,
		})
		return nil, err
	}

	return requests, nil
}
