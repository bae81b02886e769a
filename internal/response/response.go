package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxprohub/service-booking/internal/domain"
)

// Envelope is the uniform response body shape.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}

// Pagination describes a paginated list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// PaginatedEnvelope wraps list data with paging metadata.
type PaginatedEnvelope struct {
	Success    bool       `json:"success"`
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 with list data and paging metadata.
func Paginated(c *gin.Context, data any, page, limit int, total int64) {
	c.JSON(http.StatusOK, PaginatedEnvelope{
		Success: true,
		Data:    data,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: message})
}

// Error maps a domain error to the appropriate HTTP status. Conflict
// responses carry the conflict detail so clients can show which slots
// are taken.
func Error(c *gin.Context, err error) {
	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		switch {
		case errors.Is(domErr.Err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: domErr.Message, Detail: domErr.Detail})
		case errors.Is(domErr.Err, domain.ErrConflict):
			c.JSON(http.StatusConflict, Envelope{Success: false, Error: domErr.Message, Detail: domErr.Detail})
		case errors.Is(domErr.Err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, Envelope{Success: false, Error: domErr.Message})
		case errors.Is(domErr.Err, domain.ErrInvalidState):
			c.JSON(http.StatusConflict, Envelope{Success: false, Error: domErr.Message})
		case errors.Is(domErr.Err, domain.ErrGateway):
			c.JSON(http.StatusBadGateway, Envelope{Success: false, Error: domErr.Message})
		default:
			c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: domErr.Message})
		}
		return
	}

	c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
}
