package models

import (
	"time"

	"gorm.io/datatypes"
)

// AdminLog is append-only.
type AdminLog struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID   string         `gorm:"type:uuid;not null;index" json:"adminId"`
	Action    AdminAction    `gorm:"type:varchar(40);not null" json:"action"`
	TargetID  *string        `gorm:"type:uuid" json:"targetId,omitempty"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
}
