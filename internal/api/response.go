package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the uniform response body: {success, message, data}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: msg, Data: data})
}

func Created(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Message: msg, Data: data})
}

func Accepted(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusAccepted, envelope{Success: true, Message: msg, Data: data})
}

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: false, Message: msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Success: false, Message: "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Fail(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Fail(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Fail(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Fail(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Fail(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Fail(c, http.StatusInternalServerError, msg) }
