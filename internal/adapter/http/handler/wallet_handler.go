package handler

import (
	"escrow-backend/internal/adapter/http/dto"
	"escrow-backend/internal/adapter/http/middleware"
	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"
	"escrow-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletHandler handles wallet registration, balance sync and event endpoints.
type WalletHandler struct {
	registrySvc ports.RegistryService
	balanceSvc  ports.BalanceService
	eventSvc    ports.EventService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(registrySvc ports.RegistryService, balanceSvc ports.BalanceService, eventSvc ports.EventService) *WalletHandler {
	return &WalletHandler{
		registrySvc: registrySvc,
		balanceSvc:  balanceSvc,
		eventSvc:    eventSvc,
	}
}

// Register handles POST /api/v1/wallets.
func (h *WalletHandler) Register(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RegisterWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	reg, err := h.registrySvc.Register(c.Request.Context(), ports.RegisterWalletRequest{
		UserID:             userID,
		Provider:           provider,
		ProviderAccountID:  req.ProviderAccountID,
		ProviderCustomerID: req.ProviderCustomerID,
		IdempotencyKey:     c.GetHeader(middleware.HeaderIdempotencyKey),
		Metadata:           req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, reg)
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	walletID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	reg, err := h.registrySvc.GetByID(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reg)
}

// Deactivate handles DELETE /api/v1/wallets/:id.
func (h *WalletHandler) Deactivate(c *gin.Context) {
	walletID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.registrySvc.Deactivate(c.Request.Context(), walletID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": walletID.String(), "is_active": false})
}

// SyncBalance handles POST /api/v1/wallets/:id/sync.
func (h *WalletHandler) SyncBalance(c *gin.Context) {
	walletID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	snap, err := h.balanceSvc.SyncBalance(c.Request.Context(), walletID, c.GetHeader(middleware.HeaderIdempotencyKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snap)
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	walletID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	snap, err := h.balanceSvc.GetLatest(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snap)
}

// ListSnapshots handles GET /api/v1/wallets/:id/snapshots.
func (h *WalletHandler) ListSnapshots(c *gin.Context) {
	walletID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	snaps, err := h.balanceSvc.ListSnapshots(c.Request.Context(), walletID, page.Limit, page.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKPage(c, snaps, len(snaps))
}

// IngestEvent handles POST /api/v1/wallets/:id/events.
func (h *WalletHandler) IngestEvent(c *gin.Context) {
	walletID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	eventType, err := domain.ParseEventType(req.EventType)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a decimal string"))
		return
	}

	var eventID uuid.UUID
	if req.EventID != "" {
		if eventID, err = uuid.Parse(req.EventID); err != nil {
			response.Error(c, apperror.Validation("event_id must be a UUID"))
			return
		}
	}

	event, err := h.eventSvc.IngestEvent(c.Request.Context(), ports.IngestEventRequest{
		EventID:         eventID,
		WalletID:        walletID,
		Provider:        provider,
		EventType:       eventType,
		Amount:          amount,
		Currency:        req.Currency,
		ProviderEventID: req.ProviderEventID,
		IdempotencyKey:  c.GetHeader(middleware.HeaderIdempotencyKey),
		Metadata:        req.Metadata,
		OccurredAt:      req.OccurredAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// ListEvents handles GET /api/v1/wallets/:id/events.
func (h *WalletHandler) ListEvents(c *gin.Context) {
	walletID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	events, err := h.eventSvc.ListByWalletID(c.Request.Context(), walletID, page.Limit, page.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKPage(c, events, len(events))
}

// currentUserID reads the authenticated user id set by the JWT middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// parseUUIDParam parses a UUID path parameter, writing the error response
// itself on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation(name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
