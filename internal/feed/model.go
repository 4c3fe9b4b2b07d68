package feed

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Kind classifies feed items.
type Kind string

const (
	KindAlert    Kind = "alert"
	KindActivity Kind = "activity"
	KindMeeting  Kind = "meeting"
	KindInsight  Kind = "insight"
)

// Priority is the canonical urgency scale. Upstream producers disagree on
// casing ("HIGH" from the market alert stream, "high" everywhere else), so
// every inbound value passes through ParsePriority before it is stored.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes an inbound priority value to the canonical
// lowercase form. ok is false for values outside the scale.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	default:
		return "", false
	}
}

// Item is one entry on the notification feed: an upstream market alert, a
// workflow activity, a meeting notice or a board insight.
type Item struct {
	ID       string   `gorm:"primaryKey;size:36" json:"id"`
	Kind     Kind     `gorm:"size:20;not null;index" json:"kind"`
	Title    string   `gorm:"size:300;not null" json:"title"`
	Body     string   `gorm:"type:text" json:"body,omitempty"`
	Category string   `gorm:"size:100;index" json:"category,omitempty"`
	Priority Priority `gorm:"size:10;not null;index;default:medium" json:"priority"`

	// Kind-specific payload (meeting venue, alert figures, ...)
	Details datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`

	// Where the item came from: manual | workflow | upstream
	Source string `gorm:"size:20" json:"source"`

	// Optional link to the board action this item concerns
	ActionID *string `gorm:"size:36;index" json:"action_id,omitempty"`

	Read    bool `gorm:"default:false" json:"read"`
	Deleted bool `gorm:"default:false;index" json:"-"`

	CreatedBy *uint     `json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string {
	return "feed_items"
}

// ListFilter narrows feed queries. Search matches title and body
// case-insensitively.
type ListFilter struct {
	Kind       Kind     `json:"kind"`
	Priority   Priority `json:"priority"`
	Category   string   `json:"category"`
	Search     string   `json:"search"`
	UnreadOnly bool     `json:"unread_only"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
}
