// internal/models/car.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Car is the central listing entity. Status owns the lifecycle:
// pending -> verification -> {available, rejected}, available -> sold,
// with verification -> pending on deadline expiry.
type Car struct {
	BaseModel
	Brand        string           `json:"brand" gorm:"size:100;not null"`
	Model        string           `json:"model" gorm:"size:100;not null"`
	VehicleType  VehicleType      `json:"vehicle_type" gorm:"type:varchar(20);not null"`
	Transmission TransmissionType `json:"transmission" gorm:"type:varchar(20);not null"`
	Year         int              `json:"year" gorm:"not null"`
	FuelType     FuelType         `json:"fuel_type" gorm:"type:varchar(20);not null"`
	Seater       int              `json:"seater"`
	Color        string           `json:"color" gorm:"size:50"`
	CarNumber    string           `json:"car_number" gorm:"uniqueIndex;size:20;not null"`
	KmDriven     int              `json:"km_driven"`
	Price        float64          `json:"price" gorm:"type:decimal(12,2);not null"`
	Photos       StringList       `json:"photos" gorm:"type:jsonb"`
	Address      string           `json:"address,omitempty" gorm:"size:255"`
	City         string           `json:"city,omitempty" gorm:"size:100"`
	State        string           `json:"state,omitempty" gorm:"size:100"`
	Pincode      string           `json:"pincode,omitempty" gorm:"size:10"`

	SellerID    uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`
	SellerName  string    `json:"seller_name" gorm:"size:100"`
	SellerPhone string    `json:"seller_phone" gorm:"size:20"`

	// Lifecycle fields. agent_name is a cached display value; agent_id is
	// the source of truth and agent_name is refreshed on every write that
	// touches agent_id.
	Status                CarStatus  `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	AgentID               *uuid.UUID `json:"agent_id" gorm:"type:uuid;index"`
	AgentName             *string    `json:"agent_name" gorm:"size:100"`
	VerificationDays      *int       `json:"verification_days"`
	VerificationStartTime *time.Time `json:"verification_start_time"`
	VerificationDeadline  *time.Time `json:"verification_deadline"`

	// Technical specs, filled by the agent at approval.
	Engine          *int       `json:"engine,omitempty"`
	Torque          *int       `json:"torque,omitempty"`
	Power           *int       `json:"power,omitempty"`
	GroundClearance *int       `json:"ground_clearance,omitempty"`
	TopSpeed        *int       `json:"top_speed,omitempty"`
	FuelTank        *int       `json:"fuel_tank,omitempty"`
	DriveType       *DriveType `json:"drive_type,omitempty" gorm:"type:varchar(5)"`

	// Relationships
	Seller    User       `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Agent     *User      `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	Purchases []Purchase `json:"purchases,omitempty" gorm:"foreignKey:CarID"`
}

// UnderVerification reports whether the listing currently holds the
// verification state with all required fields set.
func (c *Car) UnderVerification() bool {
	return c.Status == CarStatusVerification &&
		c.AgentID != nil && c.VerificationDeadline != nil && c.VerificationStartTime != nil
}
