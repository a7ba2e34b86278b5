// internal/services/purchase_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wheeldeal/wheeldeal-backend/internal/database"
	"github.com/wheeldeal/wheeldeal-backend/internal/models"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

// PurchaseService records sales. It flips cars between available and sold
// but the listing lifecycle still owns every other transition. The car
// update and the purchase insert share one transaction; notifications go
// out only after commit.
type PurchaseService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewPurchaseService(db *gorm.DB, notifier *NotificationService) *PurchaseService {
	return &PurchaseService{
		db:       db,
		notifier: notifier,
	}
}

type CreatePurchaseRequest struct {
	CarID         uuid.UUID            `json:"car_id" validate:"required"`
	BuyerName     string               `json:"buyer_name" validate:"required,max=100"`
	BuyerPhone    string               `json:"buyer_phone" validate:"required,max=20"`
	Address       string               `json:"address" validate:"required,max=255"`
	City          string               `json:"city" validate:"required,max=100"`
	State         string               `json:"state" validate:"required,max=100"`
	Pincode       string               `json:"pincode" validate:"required,max=10"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card upi netbanking emi"`
}

// CreatePurchase finalizes a sale immediately: the purchase is written in
// sold status and the car follows in the same transaction. The total
// price is a snapshot of the car price at purchase time. The available ->
// sold flip is a conditional update, so of two concurrent buyers exactly
// one wins.
func (s *PurchaseService) CreatePurchase(buyerID uuid.UUID, req *CreatePurchaseRequest) (*models.Purchase, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var purchase *models.Purchase
	var car models.Car

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&car, "id = ?", req.CarID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCarNotFound
			}
			return fmt.Errorf("failed to load car: %w", err)
		}

		res := tx.Model(&models.Car{}).
			Where("id = ? AND status = ?", req.CarID, models.CarStatusAvailable).
			Update("status", models.CarStatusSold)
		if res.Error != nil {
			return fmt.Errorf("failed to mark car sold: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCarNotAvailable
		}

		purchase = &models.Purchase{
			CarID:         req.CarID,
			BuyerID:       buyerID,
			BuyerName:     req.BuyerName,
			BuyerPhone:    req.BuyerPhone,
			Address:       req.Address,
			City:          req.City,
			State:         req.State,
			Pincode:       req.Pincode,
			PaymentMethod: req.PaymentMethod,
			TotalPrice:    car.Price,
			Status:        models.PurchaseStatusSold,
		}

		if err := tx.Create(purchase).Error; err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyQuietly(buyerID, models.NotificationPurchaseConfirmed,
		fmt.Sprintf("Your purchase of %s %s (%s) for %.2f is confirmed.", car.Brand, car.Model, car.CarNumber, car.Price),
		models.JSONB{"purchase_id": purchase.ID.String(), "car_id": car.ID.String()})

	// All agents learn about the sale for fulfillment coordination.
	var agents []models.User
	if err := s.db.Where("role = ?", models.RoleAgent).Find(&agents).Error; err != nil {
		logrus.WithError(err).Warn("Failed to load agents for sale notification")
	} else {
		for i := range agents {
			s.notifyQuietly(agents[i].ID, models.NotificationSaleRecorded,
				fmt.Sprintf("%s %s (%s) was sold for %.2f.", car.Brand, car.Model, car.CarNumber, car.Price),
				models.JSONB{"purchase_id": purchase.ID.String(), "car_id": car.ID.String()})
		}
	}

	return purchase, nil
}

// UpdatePurchaseStatus moves a purchase between states and cascades onto
// the car where required: cancellation reopens the car for sale, moving a
// purchase to sold takes the car off the market, everything else leaves
// the car untouched. Repeating the current status is rejected, and every
// write is a conditional update so a purchase cancelled after the car was
// resold cannot reopen the new buyer's car.
func (s *PurchaseService) UpdatePurchaseStatus(purchaseID uuid.UUID, newStatus models.PurchaseStatus) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := s.db.Preload("Car").First(&purchase, "id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	if purchase.Status == newStatus {
		return nil, ErrInvalidState
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", purchaseID, purchase.Status).
			Update("status", newStatus)
		if res.Error != nil {
			return fmt.Errorf("failed to update purchase status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		switch newStatus {
		case models.PurchaseStatusCancelled:
			// The buyer backed out; the car goes back on the market,
			// but only while this sale still holds it sold.
			res := tx.Model(&models.Car{}).
				Where("id = ? AND status = ?", purchase.CarID, models.CarStatusSold).
				Update("status", models.CarStatusAvailable)
			if res.Error != nil {
				return fmt.Errorf("failed to reopen car: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrInvalidState
			}
		case models.PurchaseStatusSold:
			res := tx.Model(&models.Car{}).
				Where("id = ? AND status = ?", purchase.CarID, models.CarStatusAvailable).
				Update("status", models.CarStatusSold)
			if res.Error != nil {
				return fmt.Errorf("failed to mark car sold: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrCarNotAvailable
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if newStatus == models.PurchaseStatusCancelled {
		s.notifyQuietly(purchase.BuyerID, models.NotificationPurchaseCancelled,
			fmt.Sprintf("Your purchase of %s %s was cancelled. The car is open for sale again.",
				purchase.Car.Brand, purchase.Car.Model),
			models.JSONB{"purchase_id": purchase.ID.String(), "car_id": purchase.CarID.String()})
	}

	return s.GetPurchase(purchaseID)
}

func (s *PurchaseService) GetPurchase(id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := s.db.Preload("Car").First(&purchase, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	return &purchase, nil
}

func (s *PurchaseService) ListBuyerPurchases(buyerID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.Preload("Car").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

func (s *PurchaseService) notifyQuietly(userID uuid.UUID, ntype models.NotificationType, message string, data models.JSONB) {
	if err := s.notifier.Notify(userID, ntype, message, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    ntype,
		}).Warn("Failed to deliver notification")
	}
}
