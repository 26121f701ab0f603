// Package response writes the JSON envelope every endpoint answers with:
// {"success":true,"data":...} or {"success":false,"error":{"code","message","details?"}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	ErrorWithDetails(c, statusCode, code, message, nil)
}

// ErrorWithDetails omits details when they are nil.
func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   body,
	})
}

// ValidationFailed reports field errors (field -> rule) with 422.
func ValidationFailed(c *gin.Context, fields any) {
	ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", fields)
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}
