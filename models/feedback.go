package models

import "time"

// AdminMessage is feedback sent to the operator through the /dm form.
// Nothing in the application reads it back.
type AdminMessage struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Category   string    `gorm:"size:50" json:"category"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	WantsReply bool      `gorm:"not null;default:false" json:"wants_reply"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (AdminMessage) TableName() string {
	return "admin_dm"
}

// PublicComment is a footer comment, optionally answered by the operator.
type PublicComment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	IsPublic   bool      `gorm:"not null" json:"is_public"`
	AdminReply *string   `gorm:"type:text" json:"admin_reply,omitempty"` // Nullable
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
	IsDeleted  bool      `gorm:"not null;default:false" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (PublicComment) TableName() string {
	return "public_comment"
}
