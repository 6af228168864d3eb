// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
	"warungpos/internal/infrastructure/http/v1/dto"
	"warungpos/internal/infrastructure/http/v1/middleware"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// CashierID returns the authenticated cashier, or an empty string.
func (h *BaseHandler) CashierID(c *gin.Context) string {
	return appctx.GetCashierID(c.Request.Context())
}

// respond writes a JSON body and stores it for idempotent replay.
func (h *BaseHandler) respond(c *gin.Context, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	middleware.CompleteIdempotency(c, status, "application/json; charset=utf-8", body)
	c.Data(status, "application/json; charset=utf-8", body)
}

// Created sends a 201 response.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, data)
}

// OK sends a 200 response.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	middleware.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	h.OK(c, dto.SuccessResponse{Success: true, Message: message})
}
