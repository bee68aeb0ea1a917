package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requestedBy returns a meta block naming the caller, or nil for anonymous calls.
func requestedBy(c *gin.Context) map[string]interface{} {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	return map[string]interface{}{"requestedBy": claims.UserID}
}
