package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yroh0840/manga-relay/models"
	"gorm.io/gorm"
)

// ComicRepository handles database operations for Comic entities
type ComicRepository struct {
	DB *gorm.DB
}

// NewComicRepository creates a new instance of ComicRepository
func NewComicRepository(db *gorm.DB) *ComicRepository {
	return &ComicRepository{DB: db}
}

// Create creates a new comic record in the database
func (r *ComicRepository) Create(comic *models.Comic) error {
	if comic.StartedAt.IsZero() {
		comic.StartedAt = time.Now().UTC()
	}
	if strings.TrimSpace(comic.Title) == "" {
		comic.Title = models.DefaultComicTitle
	}
	if comic.MaxKoma <= 0 {
		comic.MaxKoma = models.DefaultMaxKoma
	}

	if err := r.DB.Create(comic).Error; err != nil {
		return fmt.Errorf("failed to create comic %q: %w", comic.Title, err)
	}
	return nil
}

// GetByID retrieves a comic by its ID whether or not it is soft deleted
func (r *ComicRepository) GetByID(id uint) (*models.Comic, error) {
	var comic models.Comic
	err := r.DB.First(&comic, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get comic by ID %d: %w", id, err)
	}
	return &comic, nil
}

// ListActive retrieves all comics not soft deleted, newest first
func (r *ComicRepository) ListActive() ([]models.Comic, error) {
	var comics []models.Comic
	err := r.DB.Where("is_deleted = ?", false).Order("started_at DESC").Order("id DESC").Find(&comics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comics: %w", err)
	}
	return comics, nil
}

// ListAll retrieves every comic including soft deleted ones, newest first
func (r *ComicRepository) ListAll() ([]models.Comic, error) {
	var comics []models.Comic
	err := r.DB.Order("started_at DESC").Order("id DESC").Find(&comics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list all comics: %w", err)
	}
	return comics, nil
}

// SetDeleted sets the soft delete flag of the comic row only.
// callers cascade to komas themselves.
func (r *ComicRepository) SetDeleted(id uint, deleted bool) error {
	result := r.DB.Model(&models.Comic{}).Where("id = ?", id).Update("is_deleted", deleted)
	if result.Error != nil {
		return fmt.Errorf("failed to set deleted=%t on comic ID %d: %w", deleted, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
