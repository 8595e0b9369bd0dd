package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/event"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/utils"
)

type emittedEvent struct {
	userID string
	ev     event.WsEvent
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakeEmitter) EmitToUser(userID string, ev event.WsEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{userID: userID, ev: ev})
}

func (f *fakeEmitter) forUser(userID string) []event.WsEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event.WsEvent
	for _, e := range f.events {
		if e.userID == userID {
			out = append(out, e.ev)
		}
	}
	return out
}

type sentMail struct {
	to         []string
	templateID string
	data       map[string]string
}

type fakeNotifier struct {
	mu    sync.Mutex
	mails []sentMail
}

func (f *fakeNotifier) Notify(ctx context.Context, to []string, templateID string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mails = append(f.mails, sentMail{to: to, templateID: templateID, data: data})
	return nil
}

type orderTestEnv struct {
	svc      IOrderService
	db       *mongo.Database
	emitter  *fakeEmitter
	notifier *fakeNotifier
	buyer    models.User
	owner    models.User
	shop     models.Shop
}

func setupOrderService(t *testing.T) *orderTestEnv {
	db := utils.SetupTestDB(t, "dabbadrop_order_test", "orders", "shops", "users")
	ctx := context.Background()

	env := &orderTestEnv{
		db:       db,
		emitter:  &fakeEmitter{},
		notifier: &fakeNotifier{},
		buyer: models.User{
			ID:       primitive.NewObjectID(),
			FullName: "Asha Rao",
			Email:    "asha@example.com",
			Role:     models.RoleUser,
		},
		owner: models.User{
			ID:       primitive.NewObjectID(),
			FullName: "Vikram Shetty",
			Email:    "vikram@example.com",
			Role:     models.RoleOwner,
		},
	}
	env.shop = models.Shop{
		ID:    primitive.NewObjectID(),
		Name:  "Shetty Tiffins",
		Owner: env.owner.ID,
		City:  "Mangaluru",
	}

	_, err := db.Collection("users").InsertMany(ctx, []interface{}{env.buyer, env.owner})
	require.NoError(t, err)
	_, err = db.Collection("shops").InsertOne(ctx, env.shop)
	require.NoError(t, err)

	env.svc = NewOrderService(db, NewUserService(db), NewShopService(db), env.emitter, env.notifier, 5*time.Minute)
	return env
}

func (env *orderTestEnv) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := env.svc.PlaceOrder(context.Background(), env.buyer.ID, PlaceOrderInput{
		PaymentMethod:   "cod",
		DeliveryAddress: models.DeliveryAddress{Text: "42 MG Road"},
		Items: []PlaceOrderItem{
			{Shop: env.shop.ID, Name: "Paneer Tikka", Price: 120, Quantity: 2},
			{Shop: env.shop.ID, Name: "Butter Naan", Price: 30, Quantity: 4},
		},
	})
	require.NoError(t, err)
	return order
}

func TestPlaceOrder_GroupsAndNotifiesOwner(t *testing.T) {
	env := setupOrderService(t)

	order := env.placeOrder(t)

	require.Len(t, order.ShopOrders, 1)
	assert.Equal(t, env.shop.ID, order.ShopOrders[0].Shop)
	assert.Equal(t, env.owner.ID, order.ShopOrders[0].Owner)
	assert.Equal(t, models.OrderStatusPending, order.ShopOrders[0].Status)
	assert.Equal(t, 360.0, order.ShopOrders[0].Subtotal)
	assert.Equal(t, 360.0, order.TotalAmount)

	ownerEvents := env.emitter.forUser(env.owner.ID.Hex())
	require.Len(t, ownerEvents, 1)
	assert.Equal(t, event.EventNewOrder, ownerEvents[0].Event)

	// buyer placed the order, the push goes to the owner only
	assert.Empty(t, env.emitter.forUser(env.buyer.ID.Hex()))
}

func TestPlaceOrder_UnknownShop(t *testing.T) {
	env := setupOrderService(t)

	_, err := env.svc.PlaceOrder(context.Background(), env.buyer.ID, PlaceOrderInput{
		PaymentMethod:   "cod",
		DeliveryAddress: models.DeliveryAddress{Text: "42 MG Road"},
		Items: []PlaceOrderItem{
			{Shop: primitive.NewObjectID(), Name: "Ghost Curry", Price: 100, Quantity: 1},
		},
	})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateShopOrderStatus_NotifiesBuyer(t *testing.T) {
	env := setupOrderService(t)
	order := env.placeOrder(t)

	updated, err := env.svc.UpdateShopOrderStatus(context.Background(),
		order.ID, env.shop.ID, env.owner.ID, models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, updated.ShopOrders[0].Status)

	buyerEvents := env.emitter.forUser(env.buyer.ID.Hex())
	require.Len(t, buyerEvents, 1)
	assert.Equal(t, event.EventUpdateStatus, buyerEvents[0].Event)
	assert.Contains(t, string(buyerEvents[0].Data), order.ID.Hex())
	assert.Contains(t, string(buyerEvents[0].Data), env.buyer.ID.Hex())
}

func TestUpdateShopOrderStatus_ForeignOwnerForbidden(t *testing.T) {
	env := setupOrderService(t)
	order := env.placeOrder(t)

	_, err := env.svc.UpdateShopOrderStatus(context.Background(),
		order.ID, env.shop.ID, primitive.NewObjectID(), models.OrderStatusPreparing)

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, env.emitter.forUser(env.buyer.ID.Hex()))
}

func TestUpdateShopOrderStatus_OutOfDeliverySendsOtp(t *testing.T) {
	env := setupOrderService(t)
	order := env.placeOrder(t)

	_, err := env.svc.UpdateShopOrderStatus(context.Background(),
		order.ID, env.shop.ID, env.owner.ID, models.OrderStatusOutOfDelivery)
	require.NoError(t, err)

	require.Len(t, env.notifier.mails, 1)
	mail := env.notifier.mails[0]
	assert.Equal(t, []string{env.buyer.Email}, mail.to)
	assert.Equal(t, models.TmplDeliveryOtp, mail.templateID)
	assert.Len(t, mail.data["Otp"], 4)

	// the OTP lands in the store but never in API responses
	var stored models.Order
	require.NoError(t, env.db.Collection("orders").
		FindOne(context.Background(), bson.M{"_id": order.ID}).Decode(&stored))
	assert.Equal(t, mail.data["Otp"], stored.ShopOrders[0].DeliveryOtp)
	require.NotNil(t, stored.ShopOrders[0].OtpExpires)
}

func TestVerifyDeliveryOtp(t *testing.T) {
	env := setupOrderService(t)
	order := env.placeOrder(t)
	ctx := context.Background()

	_, err := env.svc.UpdateShopOrderStatus(ctx, order.ID, env.shop.ID, env.owner.ID, models.OrderStatusOutOfDelivery)
	require.NoError(t, err)
	otp := env.notifier.mails[0].data["Otp"]

	_, err = env.svc.VerifyDeliveryOtp(ctx, order.ID, env.shop.ID, "0000")
	assert.ErrorIs(t, err, ErrInvalidOtp)

	delivered, err := env.svc.VerifyDeliveryOtp(ctx, order.ID, env.shop.ID, otp)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, delivered.ShopOrders[0].Status)
	require.NotNil(t, delivered.ShopOrders[0].DeliveredAt)

	// confirmation mail follows the OTP mail
	require.Len(t, env.notifier.mails, 2)
	assert.Equal(t, models.TmplDeliveryConfirmation, env.notifier.mails[1].templateID)

	// the spent OTP cannot be replayed
	_, err = env.svc.VerifyDeliveryOtp(ctx, order.ID, env.shop.ID, otp)
	assert.ErrorIs(t, err, ErrInvalidOtp)
}

func TestGetMyOrders_RoleViews(t *testing.T) {
	env := setupOrderService(t)
	order := env.placeOrder(t)
	ctx := context.Background()

	buyerOrders, err := env.svc.GetMyOrders(ctx, env.buyer.ID, models.RoleUser)
	require.NoError(t, err)
	require.Len(t, buyerOrders, 1)
	assert.Equal(t, order.ID, buyerOrders[0].ID)

	ownerOrders, err := env.svc.GetMyOrders(ctx, env.owner.ID, models.RoleOwner)
	require.NoError(t, err)
	require.Len(t, ownerOrders, 1)
	require.Len(t, ownerOrders[0].ShopOrders, 1)
	assert.Equal(t, env.owner.ID, ownerOrders[0].ShopOrders[0].Owner)

	// a different owner sees nothing
	strangerOrders, err := env.svc.GetMyOrders(ctx, primitive.NewObjectID(), models.RoleOwner)
	require.NoError(t, err)
	assert.Empty(t, strangerOrders)
}
