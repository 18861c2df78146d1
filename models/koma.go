package models

import (
	"strings"
	"time"
)

// Koma is a single panel of a comic. It corresponds to the 'koma' table.
type Koma struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ComicID     uint `gorm:"not null;index" json:"comic_id"`
	FrameNumber int  `gorm:"not null" json:"frame_number"`
	// local filename under the upload dir, or an absolute URL for remote stores
	ImageFilename     string    `gorm:"size:500;not null;unique" json:"image_filename"`
	ThumbnailFilename *string   `gorm:"size:500" json:"thumbnail_filename,omitempty"` // Nullable, local store only
	PostedAt          time.Time `gorm:"not null" json:"posted_at"`
	IsDeleted         bool      `gorm:"not null;default:false" json:"is_deleted"`
}

// TableName explicitly sets the table name for GORM.
func (Koma) TableName() string {
	return "koma"
}

// IsRemoteImage reports whether the image reference is an external URL
func IsRemoteImage(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
