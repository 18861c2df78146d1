package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yroh0840/manga-relay/models"
	"gorm.io/gorm"
)

// KomaRepository handles database operations for Koma entities
type KomaRepository struct {
	DB *gorm.DB
}

// NewKomaRepository creates a new instance of KomaRepository
func NewKomaRepository(db *gorm.DB) *KomaRepository {
	return &KomaRepository{DB: db}
}

// Create inserts a koma. frame number must already be assigned.
func (r *KomaRepository) Create(koma *models.Koma) error {
	if koma.PostedAt.IsZero() {
		koma.PostedAt = time.Now().UTC()
	}
	if err := r.DB.Create(koma).Error; err != nil {
		return fmt.Errorf("failed to create koma %d of comic %d: %w", koma.FrameNumber, koma.ComicID, err)
	}
	return nil
}

// GetByID retrieves a koma by its ID whether or not it is soft deleted
func (r *KomaRepository) GetByID(id uint) (*models.Koma, error) {
	var koma models.Koma
	err := r.DB.First(&koma, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get koma by ID %d: %w", id, err)
	}
	return &koma, nil
}

// MaxFrameNumber returns the highest frame number used by the comic,
// soft deleted komas included, or 0 when the comic has none
func (r *KomaRepository) MaxFrameNumber(comicID uint) (int, error) {
	var maxFrame sql.NullInt64
	row := r.DB.Model(&models.Koma{}).Where("comic_id = ?", comicID).Select("MAX(frame_number)").Row()
	if err := row.Scan(&maxFrame); err != nil {
		return 0, fmt.Errorf("failed to get max frame number for comic %d: %w", comicID, err)
	}
	if !maxFrame.Valid {
		return 0, nil
	}
	return int(maxFrame.Int64), nil
}

// ListActiveByComic retrieves the visible komas of a comic in frame order
func (r *KomaRepository) ListActiveByComic(comicID uint) ([]models.Koma, error) {
	var komas []models.Koma
	err := r.DB.Where("comic_id = ? AND is_deleted = ?", comicID, false).
		Order("frame_number ASC").Order("id ASC").
		Find(&komas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list komas for comic %d: %w", comicID, err)
	}
	return komas, nil
}

// ListByComic retrieves every koma of a comic including soft deleted ones
func (r *KomaRepository) ListByComic(comicID uint) ([]models.Koma, error) {
	var komas []models.Koma
	err := r.DB.Where("comic_id = ?", comicID).
		Order("frame_number ASC").Order("id ASC").
		Find(&komas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list all komas for comic %d: %w", comicID, err)
	}
	return komas, nil
}

type comicCount struct {
	ComicID uint
	Count   int64
}

func (r *KomaRepository) countByComics(comicIDs []uint, activeOnly bool) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(comicIDs))
	if len(comicIDs) == 0 {
		return counts, nil
	}

	query := r.DB.Model(&models.Koma{}).
		Select("comic_id, COUNT(*) AS count").
		Where("comic_id IN ?", comicIDs)
	if activeOnly {
		query = query.Where("is_deleted = ?", false)
	}

	var rows []comicCount
	if err := query.Group("comic_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count komas: %w", err)
	}
	for _, row := range rows {
		counts[row.ComicID] = row.Count
	}
	return counts, nil
}

// CountActiveByComics counts visible komas per comic. comics without any
// are absent from the map.
func (r *KomaRepository) CountActiveByComics(comicIDs []uint) (map[uint]int64, error) {
	return r.countByComics(comicIDs, true)
}

// CountByComics counts all komas per comic, soft deleted included
func (r *KomaRepository) CountByComics(comicIDs []uint) (map[uint]int64, error) {
	return r.countByComics(comicIDs, false)
}

// SetDeleted sets the soft delete flag on a single koma
func (r *KomaRepository) SetDeleted(id uint, deleted bool) error {
	result := r.DB.Model(&models.Koma{}).Where("id = ?", id).Update("is_deleted", deleted)
	if result.Error != nil {
		return fmt.Errorf("failed to set deleted=%t on koma ID %d: %w", deleted, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetDeletedByComic sets the soft delete flag on every koma of a comic
func (r *KomaRepository) SetDeletedByComic(comicID uint, deleted bool) (int64, error) {
	result := r.DB.Model(&models.Koma{}).Where("comic_id = ?", comicID).Update("is_deleted", deleted)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to set deleted=%t on komas of comic %d: %w", deleted, comicID, result.Error)
	}
	return result.RowsAffected, nil
}
