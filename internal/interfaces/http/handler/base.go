package handler

import (
	"errors"
	"net/http"

	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/autoparts/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse("BAD_REQUEST", message))
}

// HandleError maps an error to the appropriate HTTP status and sends it
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("INTERNAL_ERROR", "An unexpected error occurred"))
		return
	}
	c.JSON(statusForCode(domainErr.Code), dto.NewErrorResponse(domainErr.Code, domainErr.Message))
}

// statusForCode maps domain error codes to HTTP status codes
func statusForCode(code string) int {
	switch code {
	case shared.ErrNotFound.Code:
		return http.StatusNotFound
	case shared.ErrAlreadyExists.Code:
		return http.StatusConflict
	case shared.ErrConcurrencyConflict.Code:
		return http.StatusConflict
	case shared.ErrInsufficientStock.Code:
		return http.StatusConflict
	case shared.ErrReservationExpired.Code:
		return http.StatusConflict
	case shared.ErrInvalidReservationState.Code:
		return http.StatusConflict
	case shared.ErrInvalidStateTransition.Code:
		return http.StatusConflict
	case shared.ErrComputationFailed.Code:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// parseIDParam binds and parses the :id path parameter
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("BAD_REQUEST", "Invalid ID parameter"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("BAD_REQUEST", "Invalid UUID format"))
		return uuid.Nil, false
	}
	return id, true
}
