package models

import "time"

// DefaultComicTitle is used when a new relay is started without a title
const DefaultComicTitle = "無題の漫画リレー"

// DefaultMaxKoma is the panel limit stored on a comic when none is given
const DefaultMaxKoma = 20

// Comic is one relay strip. It corresponds to the 'comic' table.
type Comic struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"size:100;default:'無題の漫画リレー'" json:"title"`
	StartedAt   time.Time `gorm:"not null;index" json:"started_at"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	IsDeleted   bool      `gorm:"not null;default:false" json:"is_deleted"`
	MaxKoma     int       `gorm:"not null;default:20" json:"max_koma"`

	// Relationships
	Komas []Koma `gorm:"foreignKey:ComicID" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Comic) TableName() string {
	return "comic"
}
