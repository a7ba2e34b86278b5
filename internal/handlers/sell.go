// internal/handlers/sell.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

type SellHandler struct {
	listingService *services.ListingService
	storageService *services.StorageService
}

func NewSellHandler(listingService *services.ListingService, storageService *services.StorageService) *SellHandler {
	return &SellHandler{
		listingService: listingService,
		storageService: storageService,
	}
}

// POST /sell
func (h *SellHandler) CreateListing(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	car, err := h.listingService.CreateListing(sellerID, &req)
	if err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		case errors.Is(err, services.ErrDuplicateRegistration):
			utils.BadRequestResponse(c, err.Error(), nil)
		case errors.Is(err, services.ErrNoAgentsConfigured), errors.Is(err, services.ErrNoEligibleAgents):
			utils.NotFoundResponse(c, "No verification agents available")
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFoundResponse(c, err.Error())
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.CreatedResponse(c, "Car submitted for verification", gin.H{
		"car": gin.H{
			"id":         car.ID,
			"brand":      car.Brand,
			"model":      car.Model,
			"status":     car.Status,
			"car_number": car.CarNumber,
		},
	})
}

// GET /sell/my
func (h *SellHandler) GetMyListings(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	cars, err := h.listingService.GetSellerCars(sellerID)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"cars": cars})
}

// POST /sell/upload-photos
func (h *SellHandler) UploadPhotos(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	files := form.File["photos"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No photos uploaded", nil)
		return
	}

	options := h.storageService.CarPhotoUploadOptions()

	var uploaded []services.UploadResult
	var failed []string
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			failed = append(failed, fileHeader.Filename)
			continue
		}

		result, err := h.storageService.UploadFile(file, fileHeader, options)
		file.Close()
		if err != nil {
			failed = append(failed, fileHeader.Filename)
			continue
		}

		uploaded = append(uploaded, *result)
	}

	utils.SuccessResponse(c, gin.H{
		"photos": uploaded,
		"failed": failed,
	})
}

// currentUserID pulls the authenticated user's id out of the request
// context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	idStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}
