package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/pharma-billing/internal/application/service"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Version is reported by the health check
var Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	documentService service.DocumentService
	orderService    service.OrderService
	exportService   service.ExportService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	documentService service.DocumentService,
	orderService service.OrderService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		documentService: documentService,
		orderService:    orderService,
		exportService:   exportService,
		logger:          logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
		},
	})
}

// ComputeLine handles POST /api/v1/lines/compute
func (h *Handlers) ComputeLine(c *gin.Context) {
	var req ComputeLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	amounts := pricing.ComputeLine(req.Quantity.Decimal, req.Rate.Decimal, req.DiscountPercent.Decimal, req.TaxRate.Decimal)
	rounded := pricing.RoundToUnit(amounts.NetAmount)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ComputeLineResponse{
			LineAmounts: amounts,
			RoundedNet:  rounded.Amount,
			RoundOff:    rounded.Delta,
		},
	})
}

// SummarizeDocument handles POST /api/v1/documents/summarize
func (h *Handlers) SummarizeDocument(c *gin.Context) {
	var doc entity.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, "invalid document")
		return
	}

	summary, err := h.documentService.Summarize(doc)
	if err != nil {
		h.respondError(c, err, "failed to summarize document")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// PreviewDocument handles POST /api/v1/documents/preview
func (h *Handlers) PreviewDocument(c *gin.Context) {
	var doc entity.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, "invalid document")
		return
	}

	preview, err := h.documentService.Preview(c.Request.Context(), doc)
	if err != nil {
		h.respondError(c, err, "failed to preview document")
		return
	}

	issues := preview.Issues
	if issues == nil {
		issues = []string{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PreviewResponse{
			Document: preview.Document,
			Summary:  preview.Summary,
			Customer: preview.Customer,
			Issues:   issues,
			Ready:    len(issues) == 0,
		},
	})
}

// AddProduct handles POST /api/v1/documents/lines
func (h *Handlers) AddProduct(c *gin.Context) {
	var req AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}

	result, err := h.documentService.AddProduct(c.Request.Context(), &req.Document, req.ProductID, req.Quantity.Decimal, req.FreeQuantity.Decimal)
	if err != nil {
		h.respondError(c, err, "failed to add product")
		return
	}

	h.respondEdit(c, req.Document, result)
}

// ChangeQuantity handles POST /api/v1/documents/lines/quantity
func (h *Handlers) ChangeQuantity(c *gin.Context) {
	var req ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "line_id is required")
		return
	}

	result, err := h.documentService.ChangeQuantity(c.Request.Context(), &req.Document, req.LineID, req.Quantity.Decimal, req.FreeQuantity.Decimal)
	if err != nil {
		h.respondError(c, err, "failed to change quantity")
		return
	}

	h.respondEdit(c, req.Document, result)
}

// SelectBatch handles POST /api/v1/documents/lines/batch
func (h *Handlers) SelectBatch(c *gin.Context) {
	var req SelectBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "line_id and batch_id are required")
		return
	}

	result, err := h.documentService.SelectBatch(c.Request.Context(), &req.Document, req.LineID, req.BatchID)
	if err != nil {
		h.respondError(c, err, "failed to select batch")
		return
	}

	h.respondEdit(c, req.Document, result)
}

// UpdateLine handles POST /api/v1/documents/lines/update
func (h *Handlers) UpdateLine(c *gin.Context) {
	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "line_id is required")
		return
	}

	result, err := h.documentService.UpdateLine(&req.Document, req.LineID, req.update())
	if err != nil {
		h.respondError(c, err, "failed to update line")
		return
	}

	h.respondEdit(c, req.Document, result)
}

// RemoveLine handles POST /api/v1/documents/lines/remove
func (h *Handlers) RemoveLine(c *gin.Context) {
	var req RemoveLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "line_id is required")
		return
	}

	if err := h.documentService.RemoveLine(&req.Document, req.LineID); err != nil {
		h.respondError(c, err, "failed to remove line")
		return
	}

	h.respondEdit(c, req.Document, nil)
}

// respondEdit returns the edited document. Totals are left out when the document
// cannot be summarized yet, e.g. under strict rates with an unknown GST rate.
func (h *Handlers) respondEdit(c *gin.Context, doc entity.Document, result *service.LineResult) {
	resp := DocumentEditResponse{Document: doc}
	if result != nil {
		line := result.Line
		index := result.Index
		resp.Line = &line
		resp.LineIndex = &index
		if result.StockIssue != nil {
			resp.StockIssue = result.StockIssue.Error()
		}
	}
	if summary, err := h.documentService.Summarize(doc); err == nil {
		resp.Summary = &summary
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// AllocateBatch handles POST /api/v1/batches/allocate
func (h *Handlers) AllocateBatch(c *gin.Context) {
	var req AllocateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}

	selection, err := h.documentService.AllocateBatch(c.Request.Context(), req.ProductID, req.Quantity.Decimal)
	if err != nil {
		h.respondError(c, err, "failed to allocate batch")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toAllocateBatchResponse(selection)})
}

// ProductBatches handles GET /api/v1/products/:id/batches
func (h *Handlers) ProductBatches(c *gin.Context) {
	batches, err := h.documentService.ProductBatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to list batches")
		return
	}
	if batches == nil {
		batches = []entity.Batch{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: batches})
}

// SubmitOrder handles POST /api/v1/orders
func (h *Handlers) SubmitOrder(c *gin.Context) {
	var doc entity.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, "invalid document")
		return
	}

	order, err := h.orderService.Submit(c.Request.Context(), doc)
	if err != nil {
		h.respondError(c, err, "failed to submit order")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: order})
}

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	if req.Limit > 100 {
		req.Limit = 100
	}

	orders, err := h.orderService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err, "failed to retrieve orders")
		return
	}
	if orders == nil {
		orders = []*entity.Order{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: orders})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to get order")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: order})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel. The body is optional.
func (h *Handlers) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	order, err := h.orderService.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.respondError(c, err, "failed to cancel order")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: order})
}

// ExportOrder handles POST /api/v1/orders/:id/export
func (h *Handlers) ExportOrder(c *gin.Context) {
	id := c.Param("id")

	result, err := h.exportService.ExportOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to export order")
		return
	}

	h.logger.Info("Order exported", "order_id", id, "path", result.RelativePath)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ExportResponse{
			OrderID:     result.OrderID,
			Path:        result.RelativePath,
			Size:        result.Size,
			DownloadURL: fmt.Sprintf("/api/v1/orders/%s/export", result.OrderID),
		},
	})
}

// DownloadExport handles GET /api/v1/orders/:id/export
func (h *Handlers) DownloadExport(c *gin.Context) {
	content, name, err := h.exportService.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to open export")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, content)
}
