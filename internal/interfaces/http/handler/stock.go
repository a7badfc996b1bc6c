package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stockapp "github.com/tradelink/backend/internal/application/stock"
)

// StockHandler handles stock ledger API endpoints
type StockHandler struct {
	BaseHandler
	ledgerService *stockapp.LedgerService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(ledgerService *stockapp.LedgerService) *StockHandler {
	return &StockHandler{ledgerService: ledgerService}
}

// Create establishes a manually tracked ledger entry for a product
func (h *StockHandler) Create(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req stockapp.CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.ledgerService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns the ledger entries visible to the caller
func (h *StockHandler) List(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter stockapp.LedgerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.ledgerService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// LowStock returns the caller's entries with a raised low-stock alert
func (h *StockHandler) LowStock(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.ledgerService.LowStock(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetThreshold changes the reorder threshold of an owned ledger entry
func (h *StockHandler) SetThreshold(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	ledgerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ledger ID")
		return
	}

	var req stockapp.SetThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.ledgerService.SetThreshold(c.Request.Context(), actor, ledgerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Restock adds quantity to an owned ledger entry
func (h *StockHandler) Restock(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	ledgerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ledger ID")
		return
	}

	var req stockapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.ledgerService.Restock(c.Request.Context(), actor, ledgerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes registers all stock ledger routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stocks := rg.Group("/stock-ledgers")
	{
		stocks.POST("", h.Create)
		stocks.GET("", h.List)
		stocks.GET("/low-stock", h.LowStock)
		stocks.PUT("/:id/threshold", h.SetThreshold)
		stocks.POST("/:id/restock", h.Restock)
	}
}
