package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/api/middleware"
	"github.com/Shubhams-here/Dabba-Drop/internal/auth"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

const orderTestSecret = "order-test-secret"

func orderTestRouter(orders *mockOrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(orders)

	r := gin.New()
	authed := r.Group("/api/order", middleware.AuthRequired(orderTestSecret))
	authed.POST("/place-order", h.Place)
	authed.GET("/my-orders", h.MyOrders)
	authed.POST("/update-status/:orderId/:shopId", h.UpdateStatus)
	authed.POST("/verify-delivery-otp/:orderId/:shopId", h.VerifyDeliveryOtp)
	return r
}

func authedRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}, userID primitive.ObjectID, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateJWT(userID, role, false, orderTestSecret, time.Hour)
	require.NoError(t, err)

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	r.ServeHTTP(w, req)
	return w
}

func TestPlaceOrder(t *testing.T) {
	orders := new(mockOrderService)
	r := orderTestRouter(orders)

	userID := primitive.NewObjectID()
	shopID := primitive.NewObjectID()
	placed := &models.Order{
		ID:          primitive.NewObjectID(),
		User:        userID,
		TotalAmount: 240,
		ShopOrders:  []models.ShopOrder{{Shop: shopID, Status: models.OrderStatusPending}},
	}
	orders.On("PlaceOrder", mock.Anything, userID, mock.Anything).Return(placed, nil)

	w := authedRequest(t, r, http.MethodPost, "/api/order/place-order", gin.H{
		"paymentMethod":   "cod",
		"deliveryAddress": gin.H{"text": "42 MG Road"},
		"items": []gin.H{
			{"shop": shopID.Hex(), "name": "Paneer Tikka", "price": 120, "quantity": 2},
		},
	}, userID, models.RoleUser)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), placed.ID.Hex())
}

func TestPlaceOrder_RequiresAuth(t *testing.T) {
	r := orderTestRouter(new(mockOrderService))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/order/place-order", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMyOrders_PassesRoleThrough(t *testing.T) {
	orders := new(mockOrderService)
	r := orderTestRouter(orders)

	ownerID := primitive.NewObjectID()
	orders.On("GetMyOrders", mock.Anything, ownerID, models.RoleOwner).
		Return([]models.Order{{ID: primitive.NewObjectID()}}, nil)

	w := authedRequest(t, r, http.MethodGet, "/api/order/my-orders", nil, ownerID, models.RoleOwner)

	require.Equal(t, http.StatusOK, w.Code)
	orders.AssertCalled(t, "GetMyOrders", mock.Anything, ownerID, models.RoleOwner)
}

func TestUpdateStatus(t *testing.T) {
	orders := new(mockOrderService)
	r := orderTestRouter(orders)

	ownerID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	shopID := primitive.NewObjectID()

	orders.On("UpdateShopOrderStatus", mock.Anything, orderID, shopID, ownerID, models.OrderStatusPreparing).
		Return(&models.Order{ID: orderID}, nil)

	w := authedRequest(t, r, http.MethodPost,
		"/api/order/update-status/"+orderID.Hex()+"/"+shopID.Hex(),
		gin.H{"status": "preparing"}, ownerID, models.RoleOwner)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateStatus_NotOwner(t *testing.T) {
	orders := new(mockOrderService)
	r := orderTestRouter(orders)

	intruderID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	shopID := primitive.NewObjectID()

	orders.On("UpdateShopOrderStatus", mock.Anything, orderID, shopID, intruderID, models.OrderStatusPreparing).
		Return(nil, services.ErrForbidden)

	w := authedRequest(t, r, http.MethodPost,
		"/api/order/update-status/"+orderID.Hex()+"/"+shopID.Hex(),
		gin.H{"status": "preparing"}, intruderID, models.RoleOwner)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	orders := new(mockOrderService)
	r := orderTestRouter(orders)

	actorID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	shopID := primitive.NewObjectID()

	orders.On("UpdateShopOrderStatus", mock.Anything, orderID, shopID, actorID, models.OrderStatus("teleported")).
		Return(nil, &models.ValidationError{Problems: []string{"`teleported` is not a valid order status"}})

	w := authedRequest(t, r, http.MethodPost,
		"/api/order/update-status/"+orderID.Hex()+"/"+shopID.Hex(),
		gin.H{"status": "teleported"}, actorID, models.RoleOwner)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyDeliveryOtp(t *testing.T) {
	orders := new(mockOrderService)
	r := orderTestRouter(orders)

	courierID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	shopID := primitive.NewObjectID()

	orders.On("VerifyDeliveryOtp", mock.Anything, orderID, shopID, "4821").
		Return(&models.Order{ID: orderID}, nil)
	orders.On("VerifyDeliveryOtp", mock.Anything, orderID, shopID, "0000").
		Return(nil, services.ErrInvalidOtp)

	w := authedRequest(t, r, http.MethodPost,
		"/api/order/verify-delivery-otp/"+orderID.Hex()+"/"+shopID.Hex(),
		gin.H{"otp": "4821"}, courierID, models.RoleDeliveryBoy)
	assert.Equal(t, http.StatusOK, w.Code)

	w = authedRequest(t, r, http.MethodPost,
		"/api/order/verify-delivery-otp/"+orderID.Hex()+"/"+shopID.Hex(),
		gin.H{"otp": "0000"}, courierID, models.RoleDeliveryBoy)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	orders := new(mockOrderService)
	r := orderTestRouter(orders)

	actorID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	shopID := primitive.NewObjectID()

	orders.On("UpdateShopOrderStatus", mock.Anything, orderID, shopID, actorID, models.OrderStatusPreparing).
		Return(nil, mongo.ErrNoDocuments)

	w := authedRequest(t, r, http.MethodPost,
		"/api/order/update-status/"+orderID.Hex()+"/"+shopID.Hex(),
		gin.H{"status": "preparing"}, actorID, models.RoleOwner)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
