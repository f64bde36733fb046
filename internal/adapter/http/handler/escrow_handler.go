package handler

import (
	"escrow-backend/internal/adapter/http/dto"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"
	"escrow-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EscrowHandler handles project, milestone and hold/release endpoints.
type EscrowHandler struct {
	escrowSvc ports.EscrowService
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrowSvc ports.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowSvc: escrowSvc}
}

// CreateProject handles POST /api/v1/projects.
func (h *EscrowHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	project, err := h.escrowSvc.CreateProject(c.Request.Context(), userID, req.Title)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// ListProjects handles GET /api/v1/projects.
func (h *EscrowHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	projects, err := h.escrowSvc.ListProjects(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKPage(c, projects, len(projects))
}

// GetProject handles GET /api/v1/projects/:id.
func (h *EscrowHandler) GetProject(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, milestones, err := h.escrowSvc.GetProject(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"project": project, "milestones": milestones})
}

// AddMilestone handles POST /api/v1/projects/:id/milestones.
func (h *EscrowHandler) AddMilestone(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a decimal string"))
		return
	}

	m, err := h.escrowSvc.AddMilestone(c.Request.Context(), projectID, req.Title, amount, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

// HoldMilestone handles POST /api/v1/milestones/:id/hold.
func (h *EscrowHandler) HoldMilestone(c *gin.Context) {
	milestoneID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.HoldMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.Validation("wallet_id must be a UUID"))
		return
	}

	m, err := h.escrowSvc.HoldMilestone(c.Request.Context(), milestoneID, walletID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// ReleaseMilestone handles POST /api/v1/milestones/:id/release.
func (h *EscrowHandler) ReleaseMilestone(c *gin.Context) {
	milestoneID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	m, err := h.escrowSvc.ReleaseMilestone(c.Request.Context(), milestoneID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}
