package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Shubhams-here/Dabba-Drop/internal/api/middleware"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

// OrderHandler serves order placement, listing and status tracking.
type OrderHandler struct {
	orders services.IOrderService
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders services.IOrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// callerIdentity pulls the authenticated user out of the gin context.
func callerIdentity(c *gin.Context) (primitive.ObjectID, models.Role, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString(middleware.CtxUserID))
	if err != nil {
		return primitive.NilObjectID, "", false
	}
	role, _ := c.Get(middleware.CtxRole)
	r, ok := role.(models.Role)
	if !ok {
		r = models.RoleUser
	}
	return userID, r, true
}

// Place handles POST /api/order/place-order.
func (h *OrderHandler) Place(c *gin.Context) {
	userID, _, ok := callerIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var in services.PlaceOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), userID, in)
	if err != nil {
		respondServiceError(c, err, "Order not found")
		return
	}
	respondData(c, http.StatusCreated, order)
}

// MyOrders handles GET /api/order/my-orders. What comes back depends on
// the caller's role: buyers get their orders, owners and couriers get
// the shop orders relevant to them.
func (h *OrderHandler) MyOrders(c *gin.Context) {
	userID, role, ok := callerIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	orders, err := h.orders.GetMyOrders(c.Request.Context(), userID, role)
	if err != nil {
		respondServiceError(c, err, "Order not found")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	respondData(c, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateStatus handles POST /api/order/update-status/:orderId/:shopId.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID, _, ok := callerIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}
	shopID, err := primitive.ObjectIDFromHex(c.Param("shopId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid shop ID")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orders.UpdateShopOrderStatus(c.Request.Context(), orderID, shopID, userID, req.Status)
	if err != nil {
		respondServiceError(c, err, "Order not found")
		return
	}
	respondData(c, http.StatusOK, order)
}

type verifyOtpRequest struct {
	Otp string `json:"otp" binding:"required"`
}

// VerifyDeliveryOtp handles POST /api/order/verify-delivery-otp/:orderId/:shopId.
func (h *OrderHandler) VerifyDeliveryOtp(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}
	shopID, err := primitive.ObjectIDFromHex(c.Param("shopId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid shop ID")
		return
	}

	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orders.VerifyDeliveryOtp(c.Request.Context(), orderID, shopID, req.Otp)
	if err != nil {
		respondServiceError(c, err, "Order not found")
		return
	}
	respondData(c, http.StatusOK, order)
}
