// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL jsonb columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, j)
}

// StringList stores a list of strings as a JSON document. Used for the
// photo URL list so the same column works on Postgres and the SQLite
// test database.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, l)
}

// Enums
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAgent UserRole = "agent"
	RoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type CarStatus string

const (
	CarStatusPending      CarStatus = "pending"
	CarStatusVerification CarStatus = "verification"
	CarStatusAvailable    CarStatus = "available"
	CarStatusSold         CarStatus = "sold"
	CarStatusRejected     CarStatus = "rejected"
)

type VehicleType string

const (
	VehicleTypeSedan       VehicleType = "sedan"
	VehicleTypeSUV         VehicleType = "suv"
	VehicleTypeHatchback   VehicleType = "hatchback"
	VehicleTypeCoupe       VehicleType = "coupe"
	VehicleTypeConvertible VehicleType = "convertible"
	VehicleTypePickup      VehicleType = "pickup"
	VehicleTypeVan         VehicleType = "van"
)

type TransmissionType string

const (
	TransmissionManual    TransmissionType = "manual"
	TransmissionAutomatic TransmissionType = "automatic"
)

type FuelType string

const (
	FuelTypePetrol   FuelType = "petrol"
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
	FuelTypeCNG      FuelType = "cng"
)

type DriveType string

const (
	DriveTypeFWD DriveType = "FWD"
	DriveTypeRWD DriveType = "RWD"
	DriveTypeAWD DriveType = "AWD"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusConfirmed PurchaseStatus = "confirmed"
	PurchaseStatusSold      PurchaseStatus = "sold"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodEMI        PaymentMethod = "emi"
)

type NotificationType string

const (
	NotificationListingSubmitted     NotificationType = "listing_submitted"
	NotificationVerificationAssigned NotificationType = "verification_assigned"
	NotificationVerificationStarted  NotificationType = "verification_started"
	NotificationListingApproved      NotificationType = "listing_approved"
	NotificationListingRejected      NotificationType = "listing_rejected"
	NotificationVerificationExpired  NotificationType = "verification_expired"
	NotificationPurchaseConfirmed    NotificationType = "purchase_confirmed"
	NotificationSaleRecorded         NotificationType = "sale_recorded"
	NotificationPurchaseCancelled    NotificationType = "purchase_cancelled"
)
