// internal/services/listing_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

// ListingService owns the car status field and every legal transition:
//
//	pending -> verification        (agent accepts)
//	verification -> available      (agent approves)
//	verification -> rejected       (agent rejects)
//	verification -> pending        (deadline expiry, sweep only)
//
// available -> sold belongs to PurchaseService; both services guard their
// transitions with conditional single-record updates so concurrent calls
// cannot both win.
type ListingService struct {
	db       *gorm.DB
	agents   *AgentDirectory
	notifier *NotificationService
}

func NewListingService(db *gorm.DB, agents *AgentDirectory, notifier *NotificationService) *ListingService {
	return &ListingService{
		db:       db,
		agents:   agents,
		notifier: notifier,
	}
}

type CreateListingRequest struct {
	Brand        string                  `json:"brand" validate:"required,max=100"`
	Model        string                  `json:"model" validate:"required,max=100"`
	VehicleType  models.VehicleType      `json:"vehicle_type" validate:"required,oneof=sedan suv hatchback coupe convertible pickup van"`
	Transmission models.TransmissionType `json:"transmission" validate:"required,oneof=manual automatic"`
	Year         int                     `json:"year" validate:"required,min=1950,max=2100"`
	FuelType     models.FuelType         `json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid cng"`
	Seater       int                     `json:"seater" validate:"omitempty,min=2,max=12"`
	Color        string                  `json:"color" validate:"omitempty,max=50"`
	CarNumber    string                  `json:"car_number" validate:"required,car_number"`
	KmDriven     int                     `json:"km_driven" validate:"min=0"`
	Price        float64                 `json:"price" validate:"required,min=1"`
	Photos       []string                `json:"photos" validate:"required,min=4,dive,url"`
	Address      string                  `json:"address" validate:"omitempty,max=255"`
	City         string                  `json:"city" validate:"omitempty,max=100"`
	State        string                  `json:"state" validate:"omitempty,max=100"`
	Pincode      string                  `json:"pincode" validate:"omitempty,max=10"`
}

// ApproveRequest carries the technical spec fields an agent fills in at
// approval. Each field is independently optional; only supplied fields
// are written.
type ApproveRequest struct {
	Engine          *int              `json:"engine" validate:"omitempty,min=1"`
	Torque          *int              `json:"torque" validate:"omitempty,min=1"`
	Power           *int              `json:"power" validate:"omitempty,min=1"`
	GroundClearance *int              `json:"ground_clearance" validate:"omitempty,min=1"`
	TopSpeed        *int              `json:"top_speed" validate:"omitempty,min=1"`
	FuelTank        *int              `json:"fuel_tank" validate:"omitempty,min=1"`
	DriveType       *models.DriveType `json:"drive_type" validate:"omitempty,oneof=FWD RWD AWD"`
}

// VerificationItem is a queue entry annotated with how long the car has
// been under verification.
type VerificationItem struct {
	models.Car
	ElapsedHours int `json:"elapsed_hours"`
	ElapsedDays  int `json:"elapsed_days"`
}

type AvailableCarFilter struct {
	utils.PaginationParams
	Brand    string
	FuelType *models.FuelType
	City     string
	PriceMin *float64
	PriceMax *float64
}

// CreateListing validates the submission, assigns the least-busy eligible
// agent and persists the car in pending status. The seller is read once
// up front; its contact fields feed both the denormalized listing columns
// and the notifications.
func (s *ListingService) CreateListing(sellerID uuid.UUID, req *CreateListingRequest) (*models.Car, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	carNumber := strings.ToUpper(strings.TrimSpace(req.CarNumber))

	var dupes int64
	if err := s.db.Model(&models.Car{}).Where("car_number = ?", carNumber).Count(&dupes).Error; err != nil {
		return nil, fmt.Errorf("failed to check registration number: %w", err)
	}
	if dupes > 0 {
		return nil, ErrDuplicateRegistration
	}

	var seller models.User
	if err := s.db.First(&seller, "id = ?", sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}

	agent, err := s.agents.PickLeastBusy()
	if err != nil {
		return nil, err
	}

	car := &models.Car{
		Brand:        req.Brand,
		Model:        req.Model,
		VehicleType:  req.VehicleType,
		Transmission: req.Transmission,
		Year:         req.Year,
		FuelType:     req.FuelType,
		Seater:       req.Seater,
		Color:        req.Color,
		CarNumber:    carNumber,
		KmDriven:     req.KmDriven,
		Price:        req.Price,
		Photos:       models.StringList(req.Photos),
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Pincode:      req.Pincode,
		SellerID:     seller.ID,
		SellerName:   seller.Username,
		SellerPhone:  seller.Phone,
		Status:       models.CarStatusPending,
		AgentID:      &agent.ID,
		AgentName:    &agent.Username,
	}

	if err := s.db.Create(car).Error; err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.notifyQuietly(&seller, models.NotificationListingSubmitted,
		fmt.Sprintf("Your %s %s (%s) was submitted and is awaiting verification.", car.Brand, car.Model, car.CarNumber),
		models.JSONB{"car_id": car.ID.String()})
	s.notifyQuietly(agent, models.NotificationVerificationAssigned,
		fmt.Sprintf("A %s %s (%s) was assigned to you for verification pickup.", car.Brand, car.Model, car.CarNumber),
		models.JSONB{"car_id": car.ID.String()})

	return car, nil
}

// AcceptForVerification moves a pending car into verification for the
// assigned agent with a 1-10 day window. The status precondition and the
// write share one conditional update, so of two concurrent accepts only
// one wins and the loser observes ErrInvalidState.
func (s *ListingService) AcceptForVerification(carID, agentID uuid.UUID, verificationDays int) (*models.Car, error) {
	if verificationDays < 1 || verificationDays > 10 {
		return nil, ErrInvalidVerificationDays
	}

	var car models.Car
	if err := s.db.Preload("Seller").First(&car, "id = ?", carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to load car: %w", err)
	}

	if car.Status != models.CarStatusPending {
		return nil, ErrInvalidState
	}
	if car.AgentID == nil || *car.AgentID != agentID {
		return nil, ErrNotAssignedAgent
	}

	var agent models.User
	if err := s.db.First(&agent, "id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}

	now := time.Now()
	deadline := now.Add(time.Duration(verificationDays) * 24 * time.Hour)

	res := s.db.Model(&models.Car{}).
		Where("id = ? AND status = ?", carID, models.CarStatusPending).
		Updates(map[string]interface{}{
			"status":                  models.CarStatusVerification,
			"agent_id":                agentID,
			"agent_name":              agent.Username,
			"verification_days":       verificationDays,
			"verification_start_time": now,
			"verification_deadline":   deadline,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to accept car for verification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	s.notifyQuietly(&car.Seller, models.NotificationVerificationStarted,
		fmt.Sprintf("Agent %s accepted your %s %s for verification. It will be completed within %d day(s).",
			agent.Username, car.Brand, car.Model, verificationDays),
		models.JSONB{"car_id": car.ID.String(), "verification_days": verificationDays})

	return s.GetCar(carID)
}

// Approve finishes verification: technical specs are merged in, the car
// goes live and the verification window fields are cleared. Only the
// agent the car is assigned to may approve.
func (s *ListingService) Approve(carID, agentID uuid.UUID, req *ApproveRequest) (*models.Car, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	car, agent, err := s.loadForVerificationAction(carID, agentID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":                  models.CarStatusAvailable,
		"agent_name":              agent.Username,
		"verification_days":       nil,
		"verification_start_time": nil,
		"verification_deadline":   nil,
	}
	if req.Engine != nil {
		updates["engine"] = *req.Engine
	}
	if req.Torque != nil {
		updates["torque"] = *req.Torque
	}
	if req.Power != nil {
		updates["power"] = *req.Power
	}
	if req.GroundClearance != nil {
		updates["ground_clearance"] = *req.GroundClearance
	}
	if req.TopSpeed != nil {
		updates["top_speed"] = *req.TopSpeed
	}
	if req.FuelTank != nil {
		updates["fuel_tank"] = *req.FuelTank
	}
	if req.DriveType != nil {
		updates["drive_type"] = *req.DriveType
	}

	res := s.db.Model(&models.Car{}).
		Where("id = ? AND status = ? AND agent_id = ?", carID, models.CarStatusVerification, agentID).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to approve car: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	s.notifyQuietly(&car.Seller, models.NotificationListingApproved,
		fmt.Sprintf("Your %s %s (%s) passed verification and is now listed for sale.", car.Brand, car.Model, car.CarNumber),
		models.JSONB{"car_id": car.ID.String()})

	return s.GetCar(carID)
}

// Reject ends verification negatively. The agent reference is retained on
// the record for audit; only the window fields are cleared.
func (s *ListingService) Reject(carID, agentID uuid.UUID) (*models.Car, error) {
	car, _, err := s.loadForVerificationAction(carID, agentID)
	if err != nil {
		return nil, err
	}

	res := s.db.Model(&models.Car{}).
		Where("id = ? AND status = ? AND agent_id = ?", carID, models.CarStatusVerification, agentID).
		Updates(map[string]interface{}{
			"status":                  models.CarStatusRejected,
			"verification_days":       nil,
			"verification_start_time": nil,
			"verification_deadline":   nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reject car: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	s.notifyQuietly(&car.Seller, models.NotificationListingRejected,
		fmt.Sprintf("Your %s %s (%s) did not pass verification and was rejected.", car.Brand, car.Model, car.CarNumber),
		models.JSONB{"car_id": car.ID.String()})

	return s.GetCar(carID)
}

// SweepExpiredVerifications resets every verification whose deadline has
// passed back to pending and unassigns the agent. Each record is reset
// with a conditional update on status and deadline, so concurrent or
// repeated sweeps cannot reset or notify the same listing twice. Failures
// are isolated per record; the sweep keeps going and reports how many
// listings it actually reset.
func (s *ListingService) SweepExpiredVerifications() (int, error) {
	now := time.Now()

	var expired []models.Car
	err := s.db.Preload("Seller").
		Where("status = ? AND verification_deadline < ?", models.CarStatusVerification, now).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query expired verifications: %w", err)
	}

	reset := 0
	for i := range expired {
		car := &expired[i]

		res := s.db.Model(&models.Car{}).
			Where("id = ? AND status = ? AND verification_deadline < ?", car.ID, models.CarStatusVerification, now).
			Updates(map[string]interface{}{
				"status":                  models.CarStatusPending,
				"agent_id":                nil,
				"agent_name":              nil,
				"verification_days":       nil,
				"verification_start_time": nil,
				"verification_deadline":   nil,
			})
		if res.Error != nil {
			logrus.WithError(res.Error).WithField("car_id", car.ID).Error("Failed to reset expired verification")
			continue
		}
		if res.RowsAffected == 0 {
			// Already reset by a concurrent sweep or acted on by the agent.
			continue
		}

		reset++
		s.notifyQuietly(&car.Seller, models.NotificationVerificationExpired,
			fmt.Sprintf("The verification window for your %s %s (%s) expired. The listing was reset to pending.",
				car.Brand, car.Model, car.CarNumber),
			models.JSONB{"car_id": car.ID.String()})
	}

	return reset, nil
}

func (s *ListingService) GetCar(id uuid.UUID) (*models.Car, error) {
	var car models.Car
	if err := s.db.First(&car, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to load car: %w", err)
	}
	return &car, nil
}

// GetAssigned lists the agent's cars in the given status, oldest first.
// With status=pending this is the acceptance queue.
func (s *ListingService) GetAssigned(agentID uuid.UUID, status models.CarStatus) ([]models.Car, error) {
	var cars []models.Car
	err := s.db.
		Where("agent_id = ? AND status = ?", agentID, status).
		Order("created_at ASC").
		Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned cars: %w", err)
	}
	return cars, nil
}

// GetVerificationQueue lists the agent's in-flight verifications
// annotated with elapsed time. Callers usually run a sweep first so the
// queue never shows already-expired entries.
func (s *ListingService) GetVerificationQueue(agentID uuid.UUID) ([]VerificationItem, error) {
	var cars []models.Car
	err := s.db.
		Where("agent_id = ? AND status = ?", agentID, models.CarStatusVerification).
		Order("verification_deadline ASC").
		Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list verification queue: %w", err)
	}

	now := time.Now()
	items := make([]VerificationItem, 0, len(cars))
	for _, car := range cars {
		item := VerificationItem{Car: car}
		if car.VerificationStartTime != nil {
			elapsed := now.Sub(*car.VerificationStartTime)
			item.ElapsedHours = int(elapsed.Hours())
			item.ElapsedDays = int(elapsed.Hours() / 24)
		}
		items = append(items, item)
	}

	return items, nil
}

// ListAvailable returns the public browse view of cars for sale.
func (s *ListingService) ListAvailable(filter AvailableCarFilter) ([]models.Car, int64, error) {
	query := s.db.Model(&models.Car{}).Where("status = ?", models.CarStatusAvailable)

	if filter.Brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(filter.Brand))
	}
	if filter.FuelType != nil {
		query = query.Where("fuel_type = ?", *filter.FuelType)
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(filter.City))
	}
	if filter.PriceMin != nil {
		query = query.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("price <= ?", *filter.PriceMax)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(brand) LIKE ? OR LOWER(model) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "year", "km_driven"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var cars []models.Car
	if err := query.Find(&cars).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch cars: %w", err)
	}

	return cars, total, nil
}

// GetSellerCars lists every listing owned by the seller, any status.
func (s *ListingService) GetSellerCars(sellerID uuid.UUID) ([]models.Car, error) {
	var cars []models.Car
	err := s.db.
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seller cars: %w", err)
	}
	return cars, nil
}

// loadForVerificationAction runs the shared approve/reject precondition
// checks and returns the car (with seller preloaded) and acting agent.
func (s *ListingService) loadForVerificationAction(carID, agentID uuid.UUID) (*models.Car, *models.User, error) {
	var car models.Car
	if err := s.db.Preload("Seller").First(&car, "id = ?", carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCarNotFound
		}
		return nil, nil, fmt.Errorf("failed to load car: %w", err)
	}

	if car.Status != models.CarStatusVerification {
		return nil, nil, ErrInvalidState
	}
	if car.AgentID == nil || *car.AgentID != agentID {
		return nil, nil, ErrNotAssignedAgent
	}

	var agent models.User
	if err := s.db.First(&agent, "id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to load agent: %w", err)
	}

	return &car, &agent, nil
}

// notifyQuietly isolates notification failures from the primary write.
func (s *ListingService) notifyQuietly(user *models.User, ntype models.NotificationType, message string, data models.JSONB) {
	if err := s.notifier.NotifyUser(user, ntype, message, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": user.ID,
			"type":    ntype,
		}).Warn("Failed to deliver notification")
	}
}
