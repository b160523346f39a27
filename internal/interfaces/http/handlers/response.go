// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

const genericErrorMessage = "Oops... our bad."

// respondError writes err using its application kind. Server side failures
// get a generic body and are logged with the full error.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	if status >= http.StatusInternalServerError {
		entry := log.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"route":      c.FullPath(),
			"kind":       kind,
		})
		if userID, ok := middleware.GetUserIDFromContext(c); ok {
			entry = entry.WithField("user_id", userID)
		}
		entry.Error("request failed")
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": genericErrorMessage})
		return
	}

	message := err.Error()
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.JSON(status, gin.H{"error": message})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated user id; routes using it sit behind
// AuthMiddleware, so a miss means the chain is misconfigured.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return userID, ok
}
