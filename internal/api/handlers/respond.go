package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

// Every response uses the same envelope: success, an optional
// human-readable message and an optional data payload.

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondServiceError maps service-layer failures onto the error
// taxonomy: validation problems are 400, missing documents 404,
// ownership violations 403, anything else a logged 500.
func respondServiceError(c *gin.Context, err error, notFoundMessage string) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondError(c, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, mongo.ErrNoDocuments):
		respondError(c, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, services.ErrForbidden):
		respondError(c, http.StatusForbidden, "You do not own this resource")
	case errors.Is(err, services.ErrInvalidOtp):
		respondError(c, http.StatusBadRequest, "Invalid or expired OTP")
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
