package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Shubhams-here/Dabba-Drop/internal/event"
	"github.com/Shubhams-here/Dabba-Drop/internal/hub"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// PlaceOrderItem is one cart line in an order placement request.
type PlaceOrderItem struct {
	Shop     primitive.ObjectID `json:"shop" binding:"required"`
	Item     primitive.ObjectID `json:"item"`
	Name     string             `json:"name" binding:"required"`
	Price    float64            `json:"price" binding:"required"`
	Quantity int                `json:"quantity" binding:"required"`
}

// PlaceOrderInput is everything needed to place a multi-shop order.
type PlaceOrderInput struct {
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	DeliveryAddress models.DeliveryAddress `json:"deliveryAddress" binding:"required"`
	Items           []PlaceOrderItem       `json:"items" binding:"required"`
}

// IOrderService defines the interface for order placement and tracking.
type IOrderService interface {
	PlaceOrder(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (*models.Order, error)
	GetMyOrders(ctx context.Context, userID primitive.ObjectID, role models.Role) ([]models.Order, error)
	UpdateShopOrderStatus(ctx context.Context, orderID, shopID, actorID primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	VerifyDeliveryOtp(ctx context.Context, orderID, shopID primitive.ObjectID, otp string) (*models.Order, error)
}

const ordersCollection = "orders"

// orderService implements IOrderService. Status changes are pushed to
// the affected parties over the realtime hub, and OTP/confirmation mail
// goes out through the notifier.
type orderService struct {
	db       *mongo.Database
	users    IUserService
	shops    IShopService
	emitter  hub.Emitter
	notifier INotifier
	otpTTL   time.Duration
}

// NewOrderService creates a new OrderService.
func NewOrderService(db *mongo.Database, users IUserService, shops IShopService, emitter hub.Emitter, notifier INotifier, otpTTL time.Duration) IOrderService {
	return &orderService{
		db:       db,
		users:    users,
		shops:    shops,
		emitter:  emitter,
		notifier: notifier,
		otpTTL:   otpTTL,
	}
}

// PlaceOrder groups the cart items by shop, persists the order and tells
// each shop owner about their portion over the realtime channel.
func (s *orderService) PlaceOrder(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, &models.ValidationError{Problems: []string{"order must contain at least one item"}}
	}

	grouped := make(map[primitive.ObjectID][]PlaceOrderItem)
	shopSeq := make([]primitive.ObjectID, 0)
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("invalid quantity for `%s`", item.Name)}}
		}
		if _, ok := grouped[item.Shop]; !ok {
			shopSeq = append(shopSeq, item.Shop)
		}
		grouped[item.Shop] = append(grouped[item.Shop], item)
	}

	now := time.Now().UTC()
	order := &models.Order{
		User:            userID,
		PaymentMethod:   in.PaymentMethod,
		DeliveryAddress: in.DeliveryAddress,
		ShopOrders:      make([]models.ShopOrder, 0, len(shopSeq)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, shopID := range shopSeq {
		shop, err := s.shops.FindByID(ctx, shopID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("unknown shop `%s`", shopID.Hex())}}
			}
			return nil, err
		}

		shopOrder := models.ShopOrder{
			Shop:   shopID,
			Owner:  shop.Owner,
			Status: models.OrderStatusPending,
		}
		for _, item := range grouped[shopID] {
			shopOrder.ShopOrderItems = append(shopOrder.ShopOrderItems, models.ShopOrderItem{
				Item:     item.Item,
				Name:     item.Name,
				Price:    item.Price,
				Quantity: item.Quantity,
			})
			shopOrder.Subtotal += item.Price * float64(item.Quantity)
		}
		order.TotalAmount += shopOrder.Subtotal
		order.ShopOrders = append(order.ShopOrders, shopOrder)
	}

	res, err := s.db.Collection(ordersCollection).InsertOne(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	order.ID = res.InsertedID.(primitive.ObjectID)

	// Each owner only learns about their own portion of the checkout.
	for _, shopOrder := range order.ShopOrders {
		ownerView := *order
		ownerView.ShopOrders = []models.ShopOrder{shopOrder}
		ev, err := event.NewWsEvent(event.EventNewOrder, ownerView)
		if err != nil {
			log.Printf("Failed to encode newOrder event for order %s: %v", order.ID.Hex(), err)
			continue
		}
		s.emitter.EmitToUser(shopOrder.Owner.Hex(), ev)
	}

	return order, nil
}

// GetMyOrders returns the orders visible to the caller, newest first.
// Buyers see their own orders in full; owners see only the shop orders
// belonging to them; couriers see their assigned shop orders.
func (s *orderService) GetMyOrders(ctx context.Context, userID primitive.ObjectID, role models.Role) ([]models.Order, error) {
	var filter bson.M
	switch role {
	case models.RoleOwner:
		filter = bson.M{"shopOrders.owner": userID}
	case models.RoleDeliveryBoy:
		filter = bson.M{"shopOrders.assignedDeliveryBoy": userID}
	default:
		filter = bson.M{"user": userID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.db.Collection(ordersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	if role == models.RoleOwner || role == models.RoleDeliveryBoy {
		for i := range orders {
			kept := orders[i].ShopOrders[:0]
			for _, so := range orders[i].ShopOrders {
				if role == models.RoleOwner && so.Owner == userID {
					kept = append(kept, so)
				}
				if role == models.RoleDeliveryBoy && so.AssignedDeliveryBoy != nil && *so.AssignedDeliveryBoy == userID {
					kept = append(kept, so)
				}
			}
			orders[i].ShopOrders = kept
		}
	}
	return orders, nil
}

// UpdateShopOrderStatus moves one shop order to a new status. Only the
// owning shop's owner may do this. The buyer is notified over the
// realtime channel, and moving to "out of delivery" generates a delivery
// OTP which is emailed to the buyer.
func (s *orderService) UpdateShopOrderStatus(ctx context.Context, orderID, shopID, actorID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("`%s` is not a valid order status", status)}}
	}

	order, shopOrder, err := s.findShopOrder(ctx, orderID, shopID)
	if err != nil {
		return nil, err
	}
	if shopOrder.Owner != actorID {
		return nil, ErrForbidden
	}

	set := bson.M{
		"shopOrders.$.status": status,
		"updatedAt":           time.Now().UTC(),
	}

	var otp string
	if status == models.OrderStatusOutOfDelivery {
		otp, err = generateOtp()
		if err != nil {
			return nil, fmt.Errorf("failed to generate delivery otp: %w", err)
		}
		expires := time.Now().UTC().Add(s.otpTTL)
		set["shopOrders.$.deliveryOtp"] = otp
		set["shopOrders.$.otpExpires"] = expires
	}

	res, err := s.db.Collection(ordersCollection).UpdateOne(ctx,
		bson.M{"_id": orderID, "shopOrders.shop": shopID},
		bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}

	update := event.StatusUpdate{
		OrderID: orderID.Hex(),
		ShopID:  shopID.Hex(),
		Status:  status,
		UserID:  order.User.Hex(),
	}
	if ev, err := event.NewWsEvent(event.EventUpdateStatus, update); err != nil {
		log.Printf("Failed to encode update-status event for order %s: %v", orderID.Hex(), err)
	} else {
		s.emitter.EmitToUser(order.User.Hex(), ev)
	}

	if otp != "" {
		s.sendBuyerMail(ctx, order.User, models.TmplDeliveryOtp, map[string]string{
			"Otp":     otp,
			"Minutes": strconv.Itoa(int(s.otpTTL.Minutes())),
		})
	}

	return s.findOrder(ctx, orderID)
}

// VerifyDeliveryOtp completes a delivery. On a valid, unexpired OTP the
// shop order becomes delivered, the buyer gets a confirmation mail, and
// the buyer's realtime channel sees the final status.
func (s *orderService) VerifyDeliveryOtp(ctx context.Context, orderID, shopID primitive.ObjectID, otp string) (*models.Order, error) {
	order, shopOrder, err := s.findShopOrder(ctx, orderID, shopID)
	if err != nil {
		return nil, err
	}

	if shopOrder.DeliveryOtp == "" || shopOrder.DeliveryOtp != otp {
		return nil, ErrInvalidOtp
	}
	if shopOrder.OtpExpires == nil || time.Now().UTC().After(*shopOrder.OtpExpires) {
		return nil, ErrInvalidOtp
	}

	now := time.Now().UTC()
	_, err = s.db.Collection(ordersCollection).UpdateOne(ctx,
		bson.M{"_id": orderID, "shopOrders.shop": shopID},
		bson.M{
			"$set": bson.M{
				"shopOrders.$.status":      models.OrderStatusDelivered,
				"shopOrders.$.deliveredAt": now,
				"updatedAt":                now,
			},
			"$unset": bson.M{
				"shopOrders.$.deliveryOtp": "",
				"shopOrders.$.otpExpires":  "",
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to mark order delivered: %w", err)
	}

	update := event.StatusUpdate{
		OrderID: orderID.Hex(),
		ShopID:  shopID.Hex(),
		Status:  models.OrderStatusDelivered,
		UserID:  order.User.Hex(),
	}
	if ev, err := event.NewWsEvent(event.EventUpdateStatus, update); err != nil {
		log.Printf("Failed to encode update-status event for order %s: %v", orderID.Hex(), err)
	} else {
		s.emitter.EmitToUser(order.User.Hex(), ev)
	}

	s.sendBuyerMail(ctx, order.User, models.TmplDeliveryConfirmation, map[string]string{
		"OrderId": orderID.Hex(),
	})

	return s.findOrder(ctx, orderID)
}

func (s *orderService) findOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.db.Collection(ordersCollection).FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &order, nil
}

func (s *orderService) findShopOrder(ctx context.Context, orderID, shopID primitive.ObjectID) (*models.Order, *models.ShopOrder, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	for i := range order.ShopOrders {
		if order.ShopOrders[i].Shop == shopID {
			return order, &order.ShopOrders[i], nil
		}
	}
	return nil, nil, mongo.ErrNoDocuments
}

// sendBuyerMail looks the buyer up and hands the message to the
// notifier. Failures are logged and otherwise ignored so that mail
// problems never fail the order flow.
func (s *orderService) sendBuyerMail(ctx context.Context, buyerID primitive.ObjectID, templateID string, data map[string]string) {
	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		log.Printf("Failed to resolve buyer %s for %s mail: %v", buyerID.Hex(), templateID, err)
		return
	}
	if data == nil {
		data = map[string]string{}
	}
	data["Name"] = buyer.FullName
	if err := s.notifier.Notify(ctx, []string{buyer.Email}, templateID, data); err != nil {
		log.Printf("Failed to enqueue %s mail for %s: %v", templateID, buyer.Email, err)
	}
}

// generateOtp produces a 4 digit one-time code.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
