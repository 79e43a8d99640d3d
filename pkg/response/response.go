package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK sends 200 with the success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, NewOKResp(data))
}

// Created sends 201 with the success envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, NewOKResp(data))
}

// NoContent sends 204 with no body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with a validation error envelope.
func BadRequest(c *gin.Context, err error, details map[string]any) {
	c.JSON(http.StatusBadRequest, ErrResp{
		Error:   CodeValidation,
		Message: err.Error(),
		Details: details,
	})
}

// NotFound sends 404.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrResp{Error: CodeNotFound, Message: message})
}

// InternalError sends 500. The underlying error is not leaked to the client.
func InternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, ErrResp{
		Error:   CodeInternal,
		Message: "internal server error",
	})
}

// Unavailable sends 503, used when an upstream dependency (AI service) is down.
func Unavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, ErrResp{Error: CodeUnavailable, Message: message})
}

// TooManyRequests sends 429.
func TooManyRequests(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, ErrResp{Error: CodeRateLimited, Message: message})
}
