package handler

import (
	"escrow-backend/internal/adapter/http/dto"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"
	"escrow-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KYCHandler handles identity-verification endpoints.
type KYCHandler struct {
	kycSvc ports.KYCService
}

// NewKYCHandler creates a new KYCHandler.
func NewKYCHandler(kycSvc ports.KYCService) *KYCHandler {
	return &KYCHandler{kycSvc: kycSvc}
}

// Submit handles POST /api/v1/kyc.
func (h *KYCHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SubmitKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	sub, err := h.kycSvc.Submit(c.Request.Context(), userID, req.DocumentType, req.DocumentRef)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Get handles GET /api/v1/kyc.
func (h *KYCHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	sub, err := h.kycSvc.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}

// Review handles POST /api/v1/kyc/review.
func (h *KYCHandler) Review(c *gin.Context) {
	reviewerID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ReviewKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	subjectID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a UUID"))
		return
	}

	sub, err := h.kycSvc.Review(c.Request.Context(), subjectID, req.Approved, reviewerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}
