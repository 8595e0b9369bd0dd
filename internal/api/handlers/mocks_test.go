package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

type mockContactService struct {
	mock.Mock
}

func (m *mockContactService) Submit(ctx context.Context, name, email, phone, subject, message string) (*models.Contact, error) {
	args := m.Called(ctx, name, email, phone, subject, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *mockContactService) List(ctx context.Context, page, limit int, status models.ContactStatus, priority models.ContactPriority) ([]models.Contact, *services.ContactPage, error) {
	args := m.Called(ctx, page, limit, status, priority)
	var contacts []models.Contact
	if args.Get(0) != nil {
		contacts = args.Get(0).([]models.Contact)
	}
	var pagination *services.ContactPage
	if args.Get(1) != nil {
		pagination = args.Get(1).(*services.ContactPage)
	}
	return contacts, pagination, args.Error(2)
}

func (m *mockContactService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *mockContactService) Update(ctx context.Context, id primitive.ObjectID, upd services.ContactUpdate) (*models.Contact, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *mockContactService) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID primitive.ObjectID, in services.PlaceOrderInput) (*models.Order, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderService) GetMyOrders(ctx context.Context, userID primitive.ObjectID, role models.Role) ([]models.Order, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderService) UpdateShopOrderStatus(ctx context.Context, orderID, shopID, actorID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, orderID, shopID, actorID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderService) VerifyDeliveryOtp(ctx context.Context, orderID, shopID primitive.ObjectID, otp string) (*models.Order, error) {
	args := m.Called(ctx, orderID, shopID, otp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, to []string, templateID string, data map[string]string) error {
	args := m.Called(ctx, to, templateID, data)
	return args.Error(0)
}
