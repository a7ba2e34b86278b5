// internal/handlers/agent.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

type AgentHandler struct {
	listingService *services.ListingService
}

func NewAgentHandler(listingService *services.ListingService) *AgentHandler {
	return &AgentHandler{listingService: listingService}
}

type acceptVerificationRequest struct {
	VerificationDays int `json:"verification_days"`
}

// GET /agent/assigned?status=pending
func (h *AgentHandler) GetAssigned(c *gin.Context) {
	agentID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	status := models.CarStatus(c.DefaultQuery("status", string(models.CarStatusPending)))
	switch status {
	case models.CarStatusPending, models.CarStatusVerification,
		models.CarStatusAvailable, models.CarStatusSold, models.CarStatusRejected:
	default:
		utils.BadRequestResponse(c, "Invalid status filter", nil)
		return
	}

	cars, err := h.listingService.GetAssigned(agentID, status)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"cars": cars})
}

// POST /agent/accept/:id
func (h *AgentHandler) AcceptVerification(c *gin.Context) {
	agentID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid car ID", nil)
		return
	}

	var req acceptVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	car, err := h.listingService.AcceptForVerification(carID, agentID, req.VerificationDays)
	if err != nil {
		h.respondListingError(c, err)
		return
	}

	utils.MessageResponse(c, "Verification started", gin.H{"car": car})
}

// GET /agent/verification
//
// Expired windows are swept before the queue is read, so a stale deadline
// never shows up as still in progress.
func (h *AgentHandler) GetVerificationQueue(c *gin.Context) {
	agentID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if _, err := h.listingService.SweepExpiredVerifications(); err != nil {
		logrus.WithError(err).Error("On-read verification sweep failed")
	}

	items, err := h.listingService.GetVerificationQueue(agentID)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"cars": items})
}

// POST /agent/approve/:id
func (h *AgentHandler) ApproveListing(c *gin.Context) {
	agentID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid car ID", nil)
		return
	}

	var req services.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	car, err := h.listingService.Approve(carID, agentID, &req)
	if err != nil {
		h.respondListingError(c, err)
		return
	}

	utils.MessageResponse(c, "Car approved and listed for sale", gin.H{"car": car})
}

// POST /agent/reject/:id
func (h *AgentHandler) RejectListing(c *gin.Context) {
	agentID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid car ID", nil)
		return
	}

	car, err := h.listingService.Reject(carID, agentID)
	if err != nil {
		h.respondListingError(c, err)
		return
	}

	utils.MessageResponse(c, "Car rejected", gin.H{"car": car})
}

func (h *AgentHandler) respondListingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	case errors.Is(err, services.ErrCarNotFound):
		utils.NotFoundResponse(c, "Car not found")
	case errors.Is(err, services.ErrNotAssignedAgent):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidVerificationDays),
		errors.Is(err, services.ErrInvalidState):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, err.Error())
	default:
		utils.InternalErrorResponse(c, "")
	}
}
