package routes

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"cartshare/internal/auth"
	"cartshare/internal/database"
	"cartshare/internal/lists"
	"cartshare/internal/models"
	"cartshare/internal/realtime"
	"cartshare/internal/storage"
	"cartshare/internal/workspace"
)

type ServerInterface interface {
	GetDB() database.Service
	GetResolver() *workspace.Resolver
	GetReconciler() *workspace.Reconciler
	GetLists() *lists.Service
	GetS3Service() *storage.S3Service
	GetHub() *realtime.Hub
}

type Middleware struct {
	server ServerInterface
}

func NewMiddleware(server ServerInterface) *Middleware {
	return &Middleware{server: server}
}

func (m *Middleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userIDRaw := session.Get(auth.SessionUserID)

		if userIDRaw == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		userID, ok := userIDRaw.(int)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Invalid session data"})
			return
		}

		db := m.server.GetDB()
		user, err := db.GetUserByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found or database error"})
			return
		}

		c.Set("user", user)
		c.Set("identity", workspace.Identity{UserID: user.ID, Email: user.NormalizedEmail()})
		c.Next()
	}
}

// currentIdentity returns the identity stored by AuthMiddleware.
func currentIdentity(c *gin.Context) workspace.Identity {
	return c.MustGet("identity").(workspace.Identity)
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}
