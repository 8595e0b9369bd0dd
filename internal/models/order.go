package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of a single shop order.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusPreparing     OrderStatus = "preparing"
	OrderStatusOutOfDelivery OrderStatus = "out of delivery"
	OrderStatusDelivered     OrderStatus = "delivered"
)

// ValidOrderStatus reports whether s is a known shop-order status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusOutOfDelivery, OrderStatusDelivered:
		return true
	}
	return false
}

// ShopOrderItem is a single line item within a shop order.
type ShopOrderItem struct {
	Item     primitive.ObjectID `bson:"item,omitempty" json:"item,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// ShopOrder is the portion of a multi-shop order belonging to one shop.
// Its status transitions drive the realtime notifications.
type ShopOrder struct {
	Shop                primitive.ObjectID  `bson:"shop" json:"shop"`
	Owner               primitive.ObjectID  `bson:"owner" json:"owner"`
	Subtotal            float64             `bson:"subtotal" json:"subtotal"`
	ShopOrderItems      []ShopOrderItem     `bson:"shopOrderItems" json:"shopOrderItems"`
	Status              OrderStatus         `bson:"status" json:"status"`
	AssignedDeliveryBoy *primitive.ObjectID `bson:"assignedDeliveryBoy,omitempty" json:"assignedDeliveryBoy,omitempty"`
	DeliveryOtp         string              `bson:"deliveryOtp,omitempty" json:"-"`
	OtpExpires          *time.Time          `bson:"otpExpires,omitempty" json:"-"`
	DeliveredAt         *time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
}

// Order groups the shop orders a buyer placed in one checkout.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	DeliveryAddress DeliveryAddress    `bson:"deliveryAddress" json:"deliveryAddress"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	ShopOrders      []ShopOrder        `bson:"shopOrders" json:"shopOrders"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DeliveryAddress is where a courier drops the order off.
type DeliveryAddress struct {
	Text      string  `bson:"text" json:"text"`
	Latitude  float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}
