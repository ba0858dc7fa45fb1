package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cartshare/internal/database"
	"cartshare/internal/lists"
	"cartshare/internal/workspace"
)

// respondError translates core errors into HTTP responses. Anything
// not on the list is a 500 with the generic message; raw database
// errors never reach the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := workspace.UserMessage(err)

	switch {
	case errors.Is(err, workspace.ErrNameRequired),
		errors.Is(err, workspace.ErrInvalidEmail),
		errors.Is(err, workspace.ErrInvalidInvite):
		status = http.StatusBadRequest
	case errors.Is(err, lists.ErrNameRequired),
		errors.Is(err, lists.ErrInvalidShare):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, workspace.ErrDuplicateName),
		errors.Is(err, database.ErrUniqueViolation),
		errors.Is(err, workspace.ErrInvitesUnavailable),
		errors.Is(err, database.ErrSchemaMissing):
		status = http.StatusConflict
	case errors.Is(err, workspace.ErrNotMember),
		errors.Is(err, workspace.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, lists.ErrNotOwner):
		status = http.StatusForbidden
		msg = err.Error()
	case errors.Is(err, lists.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
		msg = "Not found"
	}

	c.JSON(status, gin.H{"error": msg})
}
