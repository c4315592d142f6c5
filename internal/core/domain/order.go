package domain

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type DeliveryInfo struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address"`
	Apartment    string `json:"apartment,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Order is the aggregate the submission pipeline works on. ID is assigned
// locally; OrderNumber and RemoteID are stamped by the remote service on
// confirmation.
type Order struct {
	ID                    string       `json:"id"`
	Customer              CustomerInfo `json:"customer"`
	Items                 []CartEntry  `json:"items"`
	Subtotal              float64      `json:"subtotal"`
	Tax                   float64      `json:"tax"`
	DeliveryFee           float64      `json:"deliveryFee"`
	Discount              float64      `json:"discount"`
	Total                 float64      `json:"total"`
	Delivery              DeliveryInfo `json:"delivery"`
	Status                OrderStatus  `json:"status"`
	Note                  string       `json:"note,omitempty"`
	OrderNumber           string       `json:"orderNumber,omitempty"`
	RemoteID              string       `json:"remoteId,omitempty"`
	EstimatedDeliveryTime string       `json:"estimatedDeliveryTime,omitempty"`
	CreatedAt             time.Time    `json:"createdAt"`
	UpdatedAt             time.Time    `json:"updatedAt"`
}

// Pricing are the charges applied on top of the cart subtotal.
type Pricing struct {
	TaxRate     float64
	DeliveryFee float64
	Discount    float64
}

// BuildOrder assembles the aggregate from raw inputs. No IO. Missing
// customer fields default from the delivery info.
func BuildOrder(items []CartEntry, delivery DeliveryInfo, customer CustomerInfo, pricing Pricing, now time.Time) Order {
	if customer.Name == "" {
		customer.Name = delivery.Name
	}
	if customer.Phone == "" {
		customer.Phone = delivery.Phone
	}
	if customer.Email == "" {
		customer.Email = delivery.Email
	}

	copied := make([]CartEntry, len(items))
	copy(copied, items)

	subtotal := round2(CartTotal(items))
	tax := round2(subtotal * pricing.TaxRate)
	total := round2(subtotal + tax + pricing.DeliveryFee - pricing.Discount)

	return Order{
		ID:          uuid.NewString(),
		Customer:    customer,
		Items:       copied,
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: pricing.DeliveryFee,
		Discount:    pricing.Discount,
		Total:       total,
		Delivery:    delivery,
		Status:      OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CheckoutResponse is what the remote service answers a submission with.
type CheckoutResponse struct {
	Success               bool   `json:"success"`
	OrderID               string `json:"orderId,omitempty"`
	OrderNumber           string `json:"orderNumber,omitempty"`
	ConfirmationNumber    string `json:"confirmationNumber,omitempty"`
	EstimatedDeliveryTime string `json:"estimatedDeliveryTime,omitempty"`
	Message               string `json:"message,omitempty"`
	Error                 string `json:"error,omitempty"`
	ErrorCode             string `json:"errorCode,omitempty"`
}

// The service emits snake_case variants of some keys depending on version;
// accept either spelling.
func (r *CheckoutResponse) UnmarshalJSON(data []byte) error {
	type alias CheckoutResponse
	aux := struct {
		*alias
		OrderNumberSnake           string `json:"order_number"`
		EstimatedDeliveryTimeSnake string `json:"estimated_delivery_time"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.OrderNumber == "" {
		r.OrderNumber = aux.OrderNumberSnake
	}
	if r.EstimatedDeliveryTime == "" {
		r.EstimatedDeliveryTime = aux.EstimatedDeliveryTimeSnake
	}
	return nil
}

// StatusResponse is opaque beyond the success flag; Payload carries the
// body through untouched.
type StatusResponse struct {
	Success bool
	Payload json.RawMessage
}

// CancelResponse is opaque beyond success and an optional message.
type CancelResponse struct {
	Success bool
	Message string
	Payload json.RawMessage
}

// CheckoutResult is what a submission attempt hands back: the reconciled
// local order plus the remote response.
type CheckoutResult struct {
	Order    Order             `json:"order"`
	Response *CheckoutResponse `json:"response"`
}
