package repository

import "github.com/yroh0840/manga-relay/models"

// ComicRepositoryInterface defines the methods for comic data operations
type ComicRepositoryInterface interface {
	Create(comic *models.Comic) error
	GetByID(id uint) (*models.Comic, error)
	ListActive() ([]models.Comic, error)
	ListAll() ([]models.Comic, error)
	SetDeleted(id uint, deleted bool) error
}

// KomaRepositoryInterface defines the methods for koma data operations
type KomaRepositoryInterface interface {
	Create(koma *models.Koma) error
	GetByID(id uint) (*models.Koma, error)
	MaxFrameNumber(comicID uint) (int, error)
	ListActiveByComic(comicID uint) ([]models.Koma, error)
	ListByComic(comicID uint) ([]models.Koma, error)
	CountActiveByComics(comicIDs []uint) (map[uint]int64, error)
	CountByComics(comicIDs []uint) (map[uint]int64, error)
	SetDeleted(id uint, deleted bool) error
	SetDeletedByComic(comicID uint, deleted bool) (int64, error)
}

// FeedbackRepositoryInterface defines the methods for admin messages and footer comments
type FeedbackRepositoryInterface interface {
	CreateAdminMessage(msg *models.AdminMessage) error
	CreatePublicComment(comment *models.PublicComment) error
	ListRecentPublicComments(limit int) ([]models.PublicComment, error)
}
