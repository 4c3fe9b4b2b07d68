package feed

import "time"

// Notification is a per-user inbox row. Feed items are shared; a
// notification targets one account (the applicant whose application
// moved, the reviewer who was assigned).
type Notification struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Title  string `gorm:"size:300;not null" json:"title"`
	Body   string `gorm:"type:text" json:"body,omitempty"`

	// Optional link to the feed item this notification mirrors
	ItemID *string `gorm:"size:36" json:"item_id,omitempty"`

	Read      bool      `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "in_app_notifications"
}
