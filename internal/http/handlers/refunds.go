package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"finrota.com/app/internal/http/middleware"
	"finrota.com/app/internal/http/validation"
	"finrota.com/app/internal/modules/refunds"
	"finrota.com/app/internal/shared/apperr"
)

type RefundHandler struct {
	Logger *slog.Logger
	Svc    *refunds.Service
}

func NewRefundHandler(logger *slog.Logger, svc *refunds.Service) *RefundHandler {
	return &RefundHandler{Logger: logger, Svc: svc}
}

type createRefundRequest struct {
	PaymentID   string          `json:"payment_id" binding:"required"`
	Amount      *int64          `json:"amount" binding:"omitempty,gt=0"`
	ReferenceID *string         `json:"reference_id" binding:"omitempty,max=128"`
	ExternalID  *string         `json:"external_id" binding:"omitempty,max=128"`
	Reason      *string         `json:"reason" binding:"omitempty,max=255"`
	Metadata    json.RawMessage `json:"metadata"`
	RefundType  string          `json:"refund_type" binding:"omitempty,oneof=instant scheduled"`
}

// POST /api/refunds
func (h *RefundHandler) Create(c *gin.Context) {
	merchantID, ok := middleware.CurrentMerchantID(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("IR_401", "authentication required"))
		return
	}

	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("IR_400", "invalid refund request",
			validation.FromBindError(err, &req)))
		return
	}

	view, err := h.Svc.Create(c.Request.Context(), merchantID, refunds.CreateRequest{
		PaymentID:   req.PaymentID,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		ExternalID:  req.ExternalID,
		Reason:      req.Reason,
		Metadata:    req.Metadata,
		RefundType:  req.RefundType,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GET /api/refunds/:id?force_sync=true
func (h *RefundHandler) Retrieve(c *gin.Context) {
	merchantID, ok := middleware.CurrentMerchantID(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("IR_401", "authentication required"))
		return
	}

	forceSync := c.Query("force_sync") == "true"

	view, err := h.Svc.Retrieve(c.Request.Context(), merchantID, c.Param("id"), forceSync)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type listRefundsQuery struct {
	PaymentID string `form:"payment_id"`
	Status    string `form:"status" binding:"omitempty,oneof=pending manual_review success failure"`
	Connector string `form:"connector"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// GET /api/refunds
func (h *RefundHandler) List(c *gin.Context) {
	merchantID, ok := middleware.CurrentMerchantID(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("IR_401", "authentication required"))
		return
	}

	var q listRefundsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.Fail(c, apperr.InvalidErr("IR_400", "invalid list filters",
			validation.FromBindError(err, &q)))
		return
	}

	result, err := h.Svc.List(c.Request.Context(), merchantID, refunds.ListFilters{
		PaymentID: q.PaymentID,
		Status:    q.Status,
		Connector: q.Connector,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
