package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tourbook/internal/domain/errs"
)

// writeError maps domain error kinds onto HTTP statuses. Anything that is
// not a typed domain error is treated as an internal failure.
func writeError(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errs.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errs.IsPrecondition(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
