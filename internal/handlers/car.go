// internal/handlers/car.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

type CarHandler struct {
	listingService *services.ListingService
}

func NewCarHandler(listingService *services.ListingService) *CarHandler {
	return &CarHandler{listingService: listingService}
}

// GET /cars
//
// Public browse over available cars only.
func (h *CarHandler) ListCars(c *gin.Context) {
	filter := services.AvailableCarFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Brand:            c.Query("brand"),
		City:             c.Query("city"),
	}

	if fuel := c.Query("fuel_type"); fuel != "" {
		ft := models.FuelType(fuel)
		filter.FuelType = &ft
	}
	if raw := c.Query("price_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.PriceMin = &v
		}
	}
	if raw := c.Query("price_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.PriceMax = &v
		}
	}

	cars, total, err := h.listingService.ListAvailable(filter)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(cars, total, filter.PaginationParams))
}

// GET /cars/:id
func (h *CarHandler) GetCar(c *gin.Context) {
	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid car ID", nil)
		return
	}

	car, err := h.listingService.GetCar(carID)
	if err != nil {
		if errors.Is(err, services.ErrCarNotFound) {
			utils.NotFoundResponse(c, "Car not found")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	// Non-available cars are visible to their seller and assigned agent
	// only.
	if car.Status != models.CarStatusAvailable && !h.canViewUnlisted(c, car) {
		utils.NotFoundResponse(c, "Car not found")
		return
	}

	utils.SuccessResponse(c, gin.H{"car": car})
}

func (h *CarHandler) canViewUnlisted(c *gin.Context, car *models.Car) bool {
	userID, ok := currentUserID(c)
	if !ok {
		return false
	}
	if car.SellerID == userID {
		return true
	}
	if car.AgentID != nil && *car.AgentID == userID {
		return true
	}
	role, _ := utils.GetUserRoleFromContext(c)
	return role == string(models.RoleAdmin)
}
