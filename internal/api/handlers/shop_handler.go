package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
	"github.com/Shubhams-here/Dabba-Drop/internal/storage"
	"github.com/Shubhams-here/Dabba-Drop/internal/tasks"
)

// ShopHandler serves the shop image upload flow. The browser uploads
// straight to the object store with a presigned URL; the resize and
// re-encode happen in a background worker.
type ShopHandler struct {
	cfg        *config.Config
	shops      services.IShopService
	store      storage.Storage
	taskClient *asynq.Client
}

// NewShopHandler creates a ShopHandler.
func NewShopHandler(cfg *config.Config, shops services.IShopService, store storage.Storage, taskClient *asynq.Client) *ShopHandler {
	return &ShopHandler{cfg: cfg, shops: shops, store: store, taskClient: taskClient}
}

type imageUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ImageUploadURL handles POST /api/shop/:id/image-upload-url. It checks
// the caller owns the shop, then presigns a PUT for the raw image.
func (h *ShopHandler) ImageUploadURL(c *gin.Context) {
	shopID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid shop ID")
		return
	}

	var req imageUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ContentType != "image/jpeg" && req.ContentType != "image/png" {
		respondError(c, http.StatusBadRequest, "Only JPEG and PNG images are accepted")
		return
	}

	shop, err := h.requireOwnedShop(c, shopID)
	if err != nil {
		return // response already written
	}

	key := fmt.Sprintf("shops/%s/%s/raw", shop.ID.Hex(), uuid.NewString())
	maxSize := int64(h.cfg.ImageMaxSizeMB) << 20
	uploadURL, err := h.store.PresignPutURL(c.Request.Context(), key, req.ContentType, maxSize)
	if err != nil {
		respondServiceError(c, err, "Shop not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"uploadUrl": uploadURL,
		"key":       key,
	})
}

type imageUploadedRequest struct {
	Key string `json:"key" binding:"required"`
}

// ImageUploaded handles POST /api/shop/:id/image-uploaded. The browser
// calls it after the presigned PUT finishes; the resize job picks the
// raw object up from there.
func (h *ShopHandler) ImageUploaded(c *gin.Context) {
	shopID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid shop ID")
		return
	}

	var req imageUploadedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	shop, err := h.requireOwnedShop(c, shopID)
	if err != nil {
		return
	}

	expectedPrefix := fmt.Sprintf("shops/%s/", shop.ID.Hex())
	if len(req.Key) <= len(expectedPrefix) || req.Key[:len(expectedPrefix)] != expectedPrefix {
		respondError(c, http.StatusBadRequest, "Key does not belong to this shop")
		return
	}

	task, err := tasks.NewImageProcessTask(tasks.ImageProcessPayload{
		ShopID: shop.ID.Hex(),
		Key:    req.Key,
	})
	if err != nil {
		respondServiceError(c, err, "Shop not found")
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("Failed to enqueue image processing for shop %s: %v", shop.ID.Hex(), err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondMessage(c, http.StatusAccepted, "Image queued for processing")
}

// requireOwnedShop loads the shop and enforces ownership, writing the
// error response itself on failure.
func (h *ShopHandler) requireOwnedShop(c *gin.Context, shopID primitive.ObjectID) (*models.Shop, error) {
	userID, _, ok := callerIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return nil, services.ErrForbidden
	}

	shop, err := h.shops.FindByID(c.Request.Context(), shopID)
	if err != nil {
		respondServiceError(c, err, "Shop not found")
		return nil, err
	}
	if shop.Owner != userID {
		respondError(c, http.StatusForbidden, "You do not own this shop")
		return nil, services.ErrForbidden
	}
	return shop, nil
}
