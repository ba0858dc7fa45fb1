package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cartshare/internal/lists"
)

type ListRoutes struct {
	server ServerInterface
}

func NewListRoutes(server ServerInterface) *ListRoutes {
	return &ListRoutes{server: server}
}

func (lr *ListRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(lr.server)

	r.GET("/workspaces/:id/lists", middleware.AuthMiddleware(), lr.getListsHandler)
	r.POST("/workspaces/:id/lists", middleware.AuthMiddleware(), lr.createListHandler)
	r.PUT("/lists/:id", middleware.AuthMiddleware(), lr.renameListHandler)
	r.DELETE("/lists/:id", middleware.AuthMiddleware(), lr.deleteListHandler)

	r.GET("/lists/:id/items", middleware.AuthMiddleware(), lr.getItemsHandler)
	r.POST("/lists/:id/items", middleware.AuthMiddleware(), lr.addItemHandler)
	r.POST("/lists/:id/reorder", middleware.AuthMiddleware(), lr.reorderItemsHandler)
	r.PATCH("/items/:id", middleware.AuthMiddleware(), lr.updateItemHandler)
	r.DELETE("/items/:id", middleware.AuthMiddleware(), lr.deleteItemHandler)
	r.POST("/items/:id/photo", middleware.AuthMiddleware(), lr.uploadItemPhotoHandler)
	r.GET("/items/:id/photo", middleware.AuthMiddleware(), lr.getItemPhotoHandler)

	r.POST("/lists/:id/share", middleware.AuthMiddleware(), lr.shareListHandler)
	r.GET("/shares/pending", middleware.AuthMiddleware(), lr.getPendingSharesHandler)
	r.POST("/shares/:id/accept", middleware.AuthMiddleware(), lr.acceptShareHandler)
	r.POST("/shares/:id/decline", middleware.AuthMiddleware(), lr.declineShareHandler)
}

func (lr *ListRoutes) getListsHandler(c *gin.Context) {
	ident := currentIdentity(c)
	workspaceID := c.Param("id")

	found, err := lr.server.GetLists().ListsFor(c.Request.Context(), ident, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lists": found})
}

func (lr *ListRoutes) createListHandler(c *gin.Context) {
	ident := currentIdentity(c)
	workspaceID := c.Param("id")

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := lr.server.GetLists().CreateList(c.Request.Context(), ident, workspaceID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"list": list})
}

func (lr *ListRoutes) renameListHandler(c *gin.Context) {
	ident := currentIdentity(c)

	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := lr.server.GetLists().RenameList(c.Request.Context(), ident, listID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (lr *ListRoutes) deleteListHandler(c *gin.Context) {
	ident := currentIdentity(c)

	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return
	}

	if err := lr.server.GetLists().DeleteList(c.Request.Context(), ident, listID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "List deleted successfully"})
}

func (lr *ListRoutes) getItemsHandler(c *gin.Context) {
	ident := currentIdentity(c)

	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return
	}

	items, err := lr.server.GetLists().Items(c.Request.Context(), ident, listID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (lr *ListRoutes) addItemHandler(c *gin.Context) {
	ident := currentIdentity(c)

	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return
	}

	var req struct {
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := lr.server.GetLists().AddItem(c.Request.Context(), ident, listID, req.Name, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (lr *ListRoutes) updateItemHandler(c *gin.Context) {
	ident := currentIdentity(c)

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Quantity *string `json:"quantity"`
		Checked  *bool   `json:"checked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := lists.ItemPatch{Name: req.Name, Quantity: req.Quantity, Checked: req.Checked}
	item, err := lr.server.GetLists().UpdateItem(c.Request.Context(), ident, itemID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (lr *ListRoutes) deleteItemHandler(c *gin.Context) {
	ident := currentIdentity(c)

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	item, err := lr.server.GetLists().Item(c.Request.Context(), ident, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := lr.server.GetLists().DeleteItem(c.Request.Context(), ident, itemID); err != nil {
		respondError(c, err)
		return
	}

	// Orphaned photos are cleaned up best-effort.
	if item.PhotoKey != "" {
		if s3 := lr.server.GetS3Service(); s3 != nil {
			_ = s3.DeletePhoto(c.Request.Context(), item.PhotoKey)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// reorderItemsHandler swaps the sort positions of two items in the
// same list.
func (lr *ListRoutes) reorderItemsHandler(c *gin.Context) {
	ident := currentIdentity(c)

	var req struct {
		ItemA string `json:"item_a" binding:"required"`
		ItemB string `json:"item_b" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := uuid.Parse(req.ItemA)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}
	b, err := uuid.Parse(req.ItemB)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	if err := lr.server.GetLists().ReorderItems(c.Request.Context(), ident, a, b); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Items reordered successfully"})
}

func (lr *ListRoutes) uploadItemPhotoHandler(c *gin.Context) {
	ident := currentIdentity(c)

	s3 := lr.server.GetS3Service()
	if s3 == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage is not configured"})
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required"})
		return
	}
	defer file.Close()

	existing, err := lr.server.GetLists().Item(c.Request.Context(), ident, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s3.UploadItemPhoto(c.Request.Context(), file, header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := lists.ItemPatch{PhotoKey: &result.Key}
	item, err := lr.server.GetLists().UpdateItem(c.Request.Context(), ident, itemID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	// Replacing a photo leaves the old object behind; clean it up
	// best-effort.
	if existing.PhotoKey != "" && existing.PhotoKey != result.Key {
		_ = s3.DeletePhoto(c.Request.Context(), existing.PhotoKey)
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (lr *ListRoutes) getItemPhotoHandler(c *gin.Context) {
	ident := currentIdentity(c)

	s3 := lr.server.GetS3Service()
	if s3 == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage is not configured"})
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	item, err := lr.server.GetLists().Item(c.Request.Context(), ident, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if item.PhotoKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item has no photo"})
		return
	}

	url, err := s3.PhotoURL(c.Request.Context(), item.PhotoKey, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate photo URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (lr *ListRoutes) shareListHandler(c *gin.Context) {
	ident := currentIdentity(c)

	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return
	}

	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := lr.server.GetLists().ShareList(c.Request.Context(), ident, listID, req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "List shared successfully"})
}

func (lr *ListRoutes) getPendingSharesHandler(c *gin.Context) {
	ident := currentIdentity(c)

	shares, err := lr.server.GetLists().PendingShares(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"shares": shares, "total": len(shares)})
}

func (lr *ListRoutes) acceptShareHandler(c *gin.Context) {
	lr.respondToShare(c, "accepted")
}

func (lr *ListRoutes) declineShareHandler(c *gin.Context) {
	lr.respondToShare(c, "declined")
}

func (lr *ListRoutes) respondToShare(c *gin.Context, status string) {
	ident := currentIdentity(c)

	shareID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid share ID"})
		return
	}

	if err := lr.server.GetLists().RespondToShare(c.Request.Context(), ident, shareID, status); err != nil {
		respondError(c, err)
		return
	}

	if status == "accepted" {
		c.JSON(http.StatusOK, gin.H{"message": "Share accepted successfully"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Share declined successfully"})
}
