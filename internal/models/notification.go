// internal/models/notification.go
package models

import (
	"github.com/google/uuid"
)

// Notification is the durable in-app record of a side effect. Email
// delivery for the same event is best-effort and tracked nowhere.
type Notification struct {
	BaseModel
	UserID  uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Type    NotificationType `json:"type" gorm:"type:varchar(40);not null"`
	Message string           `json:"message" gorm:"type:text;not null"`
	Data    JSONB            `json:"data,omitempty" gorm:"type:jsonb"`
	Read    bool             `json:"read" gorm:"default:false;index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
