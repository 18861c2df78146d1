package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/models"
	"github.com/yroh0840/manga-relay/repository"
	"gorm.io/gorm"
)

// FeedbackService stores operator messages and footer comments
type FeedbackService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewFeedbackService(db *gorm.DB, log zerolog.Logger) *FeedbackService {
	return &FeedbackService{db: db, log: log}
}

func (s *FeedbackService) repo(ctx context.Context) repository.FeedbackRepositoryInterface {
	return repository.NewGormFeedbackRepository(s.db.WithContext(ctx))
}

func (s *FeedbackService) SubmitAdminMessage(ctx context.Context, category, message string, wantsReply bool) (*models.AdminMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	msg := &models.AdminMessage{
		Category:   strings.TrimSpace(category),
		Message:    message,
		WantsReply: wantsReply,
	}
	if err := s.repo(ctx).CreateAdminMessage(msg); err != nil {
		return nil, err
	}
	s.log.Info().Uint("id", msg.ID).Str("category", msg.Category).Bool("wants_reply", wantsReply).Msg("feedback: admin message received")
	return msg, nil
}

func (s *FeedbackService) SubmitPublicComment(ctx context.Context, message string, isPublic bool) (*models.PublicComment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	comment := &models.PublicComment{Message: message, IsPublic: isPublic}
	if err := s.repo(ctx).CreatePublicComment(comment); err != nil {
		return nil, err
	}
	s.log.Info().Uint("id", comment.ID).Bool("public", isPublic).Msg("feedback: footer comment received")
	return comment, nil
}

// RecentPublicComments returns the newest visible comments, at most limit
func (s *FeedbackService) RecentPublicComments(ctx context.Context, limit int) ([]models.PublicComment, error) {
	if limit <= 0 {
		limit = FooterCommentLimit
	}
	return s.repo(ctx).ListRecentPublicComments(limit)
}
