package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

// writeError maps the core error taxonomy onto HTTP status codes. Anything
// not one of the named sentinels is an internal error: 500, with the detail
// withheld from the response body.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrGone):
		c.JSON(http.StatusGone, gin.H{"error": "gone"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transition"})
	case errors.Is(err, domain.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, domain.ErrContended):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service busy"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
