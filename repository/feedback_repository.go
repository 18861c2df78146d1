package repository

import (
	"fmt"
	"time"

	"github.com/yroh0840/manga-relay/models"
	"gorm.io/gorm"
)

type GormFeedbackRepository struct {
	db *gorm.DB
}

func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) CreateAdminMessage(msg *models.AdminMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create admin message: %w", err)
	}
	return nil
}

func (r *GormFeedbackRepository) CreatePublicComment(comment *models.PublicComment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if err := r.db.Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create public comment: %w", err)
	}
	return nil
}

func (r *GormFeedbackRepository) ListRecentPublicComments(limit int) ([]models.PublicComment, error) {
	var comments []models.PublicComment
	err := r.db.Where("is_public = ? AND is_deleted = ?", true, false).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public comments: %w", err)
	}
	return comments, nil
}
