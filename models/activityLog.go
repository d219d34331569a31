package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityLog struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserId     *string        `gorm:"size:36;index" json:"user_id"`
	Action     ActivityAction `gorm:"size:50;not null" json:"action"`
	EntityType string         `gorm:"size:50;not null;index:idx_activity_entity" json:"entity_type"`
	EntityId   string         `gorm:"size:36;not null;index:idx_activity_entity" json:"entity_id"`
	OldValue   datatypes.JSON `json:"old_value"`
	NewValue   datatypes.JSON `json:"new_value"`
	Metadata   datatypes.JSON `json:"metadata"`
	IpAddress  string         `gorm:"size:64" json:"ip_address"`
	UserAgent  string         `gorm:"type:text" json:"user_agent"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_log" }

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// NewActivityLog builds an entry; a blank userId is stored as NULL (system action).
func NewActivityLog(userId string, action ActivityAction, entityType, entityId string, oldValue, newValue any) (*ActivityLog, error) {
	entry := &ActivityLog{
		Action:     action,
		EntityType: entityType,
		EntityId:   entityId,
	}
	if userId != "" {
		entry.UserId = &userId
	}
	var err error
	if entry.OldValue, err = toJSON(oldValue); err != nil {
		return nil, err
	}
	if entry.NewValue, err = toJSON(newValue); err != nil {
		return nil, err
	}
	return entry, nil
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
