// internal/handlers/purchase.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

type updatePurchaseStatusRequest struct {
	Status models.PurchaseStatus `json:"status" binding:"required"`
}

// POST /purchase/create
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(buyerID, &req)
	if err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		case errors.Is(err, services.ErrCarNotFound):
			utils.NotFoundResponse(c, "Car not found")
		case errors.Is(err, services.ErrCarNotAvailable):
			utils.BadRequestResponse(c, err.Error(), nil)
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.CreatedResponse(c, "Purchase completed", gin.H{"purchase": purchase})
}

// PATCH /purchase/:id/status
func (h *PurchaseHandler) UpdateStatus(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid purchase ID", nil)
		return
	}

	var req updatePurchaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	switch req.Status {
	case models.PurchaseStatusPending, models.PurchaseStatusConfirmed,
		models.PurchaseStatusSold, models.PurchaseStatusCancelled:
	default:
		utils.BadRequestResponse(c, "Invalid purchase status", nil)
		return
	}

	purchase, err := h.purchaseService.UpdatePurchaseStatus(purchaseID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPurchaseNotFound):
			utils.NotFoundResponse(c, "Purchase not found")
		case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrCarNotAvailable):
			utils.BadRequestResponse(c, err.Error(), nil)
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.MessageResponse(c, "Purchase status updated", gin.H{"purchase": purchase})
}

// GET /purchase/my
func (h *PurchaseHandler) GetMyPurchases(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	purchases, err := h.purchaseService.ListBuyerPurchases(buyerID)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"purchases": purchases})
}
