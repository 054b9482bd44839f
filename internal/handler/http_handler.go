// Package handler implements the HTTP surface: request decoding and
// validation, the uniform response envelope, and routing. It owns no
// business logic — every route delegates to the screener, sanctions, or
// audit packages.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/apperr"
	"github.com/ledgerwatch/btc-sanctions/internal/audit"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/indexer"
	"github.com/ledgerwatch/btc-sanctions/internal/sanctions"
	"github.com/ledgerwatch/btc-sanctions/internal/screener"
)

// HTTPHandler wires the HTTP surface to the screening pipeline.
type HTTPHandler struct {
	addresses     *screener.AddressScreener
	transactions  *screener.TransactionScreener
	sanctions     *sanctions.Index
	indexerClient indexer.Client
	auditLog      *audit.Log
	logger        *zap.Logger
}

// NewHTTPHandler builds an HTTPHandler.
func NewHTTPHandler(
	addresses *screener.AddressScreener,
	transactions *screener.TransactionScreener,
	sanctionsIndex *sanctions.Index,
	indexerClient indexer.Client,
	auditLog *audit.Log,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		addresses:     addresses,
		transactions:  transactions,
		sanctions:     sanctionsIndex,
		indexerClient: indexerClient,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// envelope is the uniform response shape every route returns.
type envelope struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         *errorBody  `json:"error,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlationId"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func correlationID(c *gin.Context) string {
	id := c.GetHeader("X-Correlation-Id")
	if id == "" {
		id = uuid.New().String()
	}
	return id
}

func (h *HTTPHandler) ok(c *gin.Context, correlationID string, data interface{}) {
	c.JSON(http.StatusOK, envelope{
		Success:       true,
		Data:          data,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	})
}

func (h *HTTPHandler) fail(c *gin.Context, correlationID string, err error) {
	kind := apperr.KindOf(err)
	details := ""
	if ae, ok := err.(*apperr.Error); ok {
		details = ae.Details
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.DataNotFound:
		status = http.StatusNotFound
	case apperr.ExternalAPI:
		status = http.StatusBadGateway
	}

	h.logger.Warn("request failed", zap.String("code", string(kind)), zap.Error(err))
	c.JSON(status, envelope{
		Success:       false,
		Error:         &errorBody{Code: string(kind), Message: err.Error(), Details: details},
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	})
}

// RegisterRoutes wires every HTTP route onto router.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)
	router.GET("/ready", h.ready)

	api := router.Group("/api/v1")
	{
		api.POST("/screen/address", h.screenAddress)
		api.POST("/screen/addresses", h.screenAddressBatch)
		api.POST("/screen/transaction", h.screenTransaction)
		api.POST("/screen/transactions", h.screenTransactionBatch)
		api.GET("/sanctions/metadata", h.sanctionsMetadata)
		api.GET("/sanctions/search", h.sanctionsSearch)
		api.GET("/audit/:date", h.auditByDate)
		api.GET("/audit/correlation/:id", h.auditByCorrelation)
		api.GET("/audit/stats", h.auditStats)
	}
}

// CORSMiddleware allows cross-origin calls from any origin, matching the
// permissive posture of the service's sibling HTTP surfaces.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Correlation-Id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *HTTPHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"rateLimit": h.indexerClient.RateLimitStatus(),
	})
}

func (h *HTTPHandler) ready(c *gin.Context) {
	meta, err := h.sanctions.Metadata()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "sanctionsMetadata": meta})
}

func (h *HTTPHandler) sanctionsMetadata(c *gin.Context) {
	cid := correlationID(c)
	meta, err := h.sanctions.Metadata()
	if err != nil {
		h.fail(c, cid, err)
		return
	}
	h.ok(c, cid, meta)
}

func (h *HTTPHandler) sanctionsSearch(c *gin.Context) {
	cid := correlationID(c)
	q := c.Query("q")
	entities, err := h.sanctions.SearchByName(q)
	if err != nil {
		h.fail(c, cid, err)
		return
	}
	h.ok(c, cid, entities)
}

type screenAddressRequest struct {
	Address     string `json:"address" binding:"required"`
	IncludeWalk bool   `json:"includeWalk"`
	MaxHops     int    `json:"maxHops"`
}

func (h *HTTPHandler) screenAddress(c *gin.Context) {
	cid := correlationID(c)
	var req screenAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, cid, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	result, err := h.addresses.Screen(c.Request.Context(), req.Address, req.IncludeWalk, req.MaxHops, cid)
	if err != nil {
		h.fail(c, cid, err)
		return
	}
	h.ok(c, cid, result)
}

type screenAddressBatchRequest struct {
	Addresses   []string `json:"addresses" binding:"required"`
	IncludeWalk bool     `json:"includeWalk"`
	MaxHops     int      `json:"maxHops"`
}

func (h *HTTPHandler) screenAddressBatch(c *gin.Context) {
	cid := correlationID(c)
	var req screenAddressBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, cid, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	results := h.addresses.ScreenBatch(c.Request.Context(), req.Addresses, req.IncludeWalk, req.MaxHops, cid)
	h.ok(c, cid, results)
}

type screenTransactionRequest struct {
	TxHash          string `json:"txHash" binding:"required"`
	Direction       string `json:"direction"`
	IncludeMetadata bool   `json:"includeMetadata"`
}

func (h *HTTPHandler) screenTransaction(c *gin.Context) {
	cid := correlationID(c)
	var req screenTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, cid, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	direction := domain.Direction(req.Direction)
	if direction == "" {
		direction = domain.DirectionBoth
	}

	result, err := h.transactions.Screen(c.Request.Context(), req.TxHash, direction, req.IncludeMetadata, cid)
	if err != nil {
		h.fail(c, cid, err)
		return
	}
	h.ok(c, cid, result)
}

type screenTransactionBatchRequest struct {
	TxHashes        []string `json:"txHashes" binding:"required"`
	Direction       string   `json:"direction"`
	IncludeMetadata bool     `json:"includeMetadata"`
}

func (h *HTTPHandler) screenTransactionBatch(c *gin.Context) {
	cid := correlationID(c)
	var req screenTransactionBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, cid, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	direction := domain.Direction(req.Direction)
	if direction == "" {
		direction = domain.DirectionBoth
	}

	results := h.transactions.ScreenBatch(c.Request.Context(), req.TxHashes, direction, req.IncludeMetadata, cid)
	h.ok(c, cid, results)
}

func (h *HTTPHandler) auditByDate(c *gin.Context) {
	cid := correlationID(c)
	entries, err := h.auditLog.ByDate(c.Param("date"))
	if err != nil {
		h.fail(c, cid, apperr.Wrap(apperr.Internal, "audit query failed", err))
		return
	}
	h.ok(c, cid, entries)
}

func (h *HTTPHandler) auditByCorrelation(c *gin.Context) {
	cid := correlationID(c)
	entries, err := h.auditLog.ByCorrelationID(c.Param("id"), 7)
	if err != nil {
		h.fail(c, cid, apperr.Wrap(apperr.Internal, "audit query failed", err))
		return
	}
	h.ok(c, cid, entries)
}

func (h *HTTPHandler) auditStats(c *gin.Context) {
	cid := correlationID(c)
	stats, err := h.auditLog.Stats(7)
	if err != nil {
		h.fail(c, cid, apperr.Wrap(apperr.Internal, "audit stats failed", err))
		return
	}
	h.ok(c, cid, stats)
}
