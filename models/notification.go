package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kilo/kilo_backend/reconcile"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Notification struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserId     string         `gorm:"size:36;not null;index" json:"user_id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Message    string         `gorm:"type:text" json:"message"`
	Type       string         `gorm:"size:50" json:"type"`
	LinkUrl    string         `gorm:"type:text" json:"link_url"`
	EntityType string         `gorm:"size:50" json:"entity_type"`
	EntityId   string         `gorm:"size:36" json:"entity_id"`
	Read       bool           `gorm:"not null;default:false" json:"read"`
	ReadAt     *time.Time     `json:"read_at"`
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// NewValidationNotification tells the importer a validation result is ready
// for review.
func NewValidationNotification(order *Order, doc *Document, res reconcile.ValidationResult) Notification {
	name := doc.FileName
	if name == "" {
		name = string(doc.Category)
	}
	notifType := "info"
	switch res.Disposition {
	case reconcile.DispositionAutoApprove:
		notifType = "success"
	case reconcile.DispositionReview:
		notifType = "warning"
	}
	return Notification{
		UserId:     order.ImporterId,
		Title:      "Document validated",
		Message:    fmt.Sprintf("%s: %.1f%% match (%s)", name, res.MatchPercentage, res.Disposition.Label()),
		Type:       notifType,
		LinkUrl:    fmt.Sprintf("/dashboard/importer/orders/%s/review/%s", order.ID, doc.ID),
		EntityType: "document",
		EntityId:   doc.ID,
	}
}
