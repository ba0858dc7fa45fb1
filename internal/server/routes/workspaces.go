package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"cartshare/internal/workspace"
)

type WorkspaceRoutes struct {
	server ServerInterface
}

func NewWorkspaceRoutes(server ServerInterface) *WorkspaceRoutes {
	return &WorkspaceRoutes{server: server}
}

func (wr *WorkspaceRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(wr.server)

	r.GET("/workspaces", middleware.AuthMiddleware(), wr.getWorkspacesHandler)
	r.POST("/workspaces", middleware.AuthMiddleware(), wr.createWorkspaceHandler)
	r.PUT("/workspaces/active", middleware.AuthMiddleware(), wr.setActiveWorkspaceHandler)
	r.GET("/workspaces/:id/members", middleware.AuthMiddleware(), wr.getWorkspaceMembersHandler)
	r.POST("/workspaces/:id/invite", middleware.AuthMiddleware(), wr.inviteToWorkspaceHandler)
	r.POST("/invites/:id/accept", middleware.AuthMiddleware(), wr.acceptInviteHandler)
	r.POST("/invites/:id/decline", middleware.AuthMiddleware(), wr.declineInviteHandler)
}

// getWorkspacesHandler refreshes and returns the caller's workspace
// snapshot: workspaces, pending invites and the active pointer.
func (wr *WorkspaceRoutes) getWorkspacesHandler(c *gin.Context) {
	ident := currentIdentity(c)

	snapshot, err := wr.server.GetResolver().Refresh(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspaces":          snapshot.Workspaces,
		"invites":             snapshot.Invites,
		"active_workspace_id": snapshot.ActiveWorkspaceID,
		"schema_ready":        snapshot.SchemaReady,
	})
}

func (wr *WorkspaceRoutes) createWorkspaceHandler(c *gin.Context) {
	ident := currentIdentity(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := wr.server.GetResolver().CreateWorkspace(c.Request.Context(), ident, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"workspace": created})
}

func (wr *WorkspaceRoutes) setActiveWorkspaceHandler(c *gin.Context) {
	ident := currentIdentity(c)

	var req struct {
		WorkspaceID string `json:"workspace_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := wr.server.GetResolver().SetActiveWorkspace(ident, req.WorkspaceID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_workspace_id": req.WorkspaceID})
}

// getWorkspaceMembersHandler returns all membership rows of a
// workspace, pending invites included. Accepted members only.
func (wr *WorkspaceRoutes) getWorkspaceMembersHandler(c *gin.Context) {
	user := currentUser(c)

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid workspace ID"})
		return
	}

	db := wr.server.GetDB()
	if _, err := db.CheckWorkspaceAccess(c.Request.Context(), workspaceID, user.ID, user.NormalizedEmail()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, workspace.ErrNotMember)
			return
		}
		respondError(c, err)
		return
	}

	members, err := db.WorkspaceMembers(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": members,
		"total":   len(members),
	})
}

// inviteToWorkspaceHandler invites a user to a workspace by email.
// Repeating an invite for the same address is a no-op.
func (wr *WorkspaceRoutes) inviteToWorkspaceHandler(c *gin.Context) {
	ident := currentIdentity(c)
	workspaceID := c.Param("id")

	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reconciler := wr.server.GetReconciler()
	if err := reconciler.InviteToWorkspace(c.Request.Context(), ident, workspaceID, req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent successfully"})
}

func (wr *WorkspaceRoutes) acceptInviteHandler(c *gin.Context) {
	wr.respondToInvite(c, "accepted")
}

func (wr *WorkspaceRoutes) declineInviteHandler(c *gin.Context) {
	wr.respondToInvite(c, "declined")
}

func (wr *WorkspaceRoutes) respondToInvite(c *gin.Context, status string) {
	ident := currentIdentity(c)
	inviteID := c.Param("id")

	reconciler := wr.server.GetReconciler()
	if err := reconciler.RespondToInvite(c.Request.Context(), ident, inviteID, status); err != nil {
		respondError(c, err)
		return
	}

	if status == "accepted" {
		c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted successfully"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined successfully"})
}
