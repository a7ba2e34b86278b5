// internal/models/purchase.go
package models

import (
	"github.com/google/uuid"
)

// Purchase records a sale of a car. Car status and purchase status are
// changed together but remain independent entities: cancelling a purchase
// reopens the car to available.
type Purchase struct {
	BaseModel
	CarID         uuid.UUID      `json:"car_id" gorm:"type:uuid;not null;index"`
	BuyerID       uuid.UUID      `json:"buyer_id" gorm:"type:uuid;not null;index"`
	BuyerName     string         `json:"buyer_name" gorm:"size:100;not null"`
	BuyerPhone    string         `json:"buyer_phone" gorm:"size:20;not null"`
	Address       string         `json:"address" gorm:"size:255"`
	City          string         `json:"city" gorm:"size:100"`
	State         string         `json:"state" gorm:"size:100"`
	Pincode       string         `json:"pincode" gorm:"size:10"`
	PaymentMethod PaymentMethod  `json:"payment_method" gorm:"type:varchar(20);not null"`
	TotalPrice    float64        `json:"total_price" gorm:"type:decimal(12,2);not null"`
	Status        PurchaseStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	// Relationships
	Car   Car  `json:"car,omitempty" gorm:"foreignKey:CarID"`
	Buyer User `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
}
