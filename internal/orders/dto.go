package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VerifyInput is the payload the checkout page posts after the gateway
// reports a successful payment.
type VerifyInput struct {
	Amount          Number     `json:"amount"`
	Quantity        Number     `json:"Quantity"`
	DeliveryAddress string     `json:"delivery_address"`
	OrderID         string     `json:"razorpay_order_id"`
	PaymentID       string     `json:"razorpay_payment_id"`
	Signature       string     `json:"razorpay_signature"`
	CartData        []CartLine `json:"cartData"`
}

// CartLine is one client-side cart entry. Only the product and quantity are
// trusted; prices come from the catalog.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  Number `json:"quantity"`
}

// CreatePaymentInput requests a gateway order. Items are accepted for
// compatibility but not priced server side.
type CreatePaymentInput struct {
	Amount Number `json:"amount"`
	Items  []any  `json:"items"`
}

type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	OldPrice  decimal.Decimal `json:"oldPrice"`
	Quantity  int             `json:"quantity"`
	SubTotal  decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the order payload returned to clients. ProductID mirrors the
// first item for older clients.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"userId"`
	OrderID         string              `json:"orderId"`
	ProductID       *uuid.UUID          `json:"productId"`
	Items           []OrderItemDTO      `json:"orderItems"`
	PaymentID       string              `json:"paymentId"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	Quantity        int                 `json:"Quantity"`
	SubTotalAmt     decimal.Decimal     `json:"subTotalAmt"`
	DeliveryAddress uuid.UUID           `json:"delivery_address"`
	InvoiceReceipt  string              `json:"invoice_receipt"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func NewOrderDTO(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderID:         o.GatewayOrderID,
		Items:           make([]OrderItemDTO, 0, len(o.Items)),
		PaymentID:       o.PaymentID,
		PaymentStatus:   o.PaymentStatus,
		Quantity:        o.Quantity,
		SubTotalAmt:     o.SubTotal,
		DeliveryAddress: o.DeliveryAddressID,
		InvoiceReceipt:  o.InvoiceReceipt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if lead := o.LeadProductID(); lead != uuid.Nil {
		dto.ProductID = &lead
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			OldPrice:  item.OldPrice,
			Quantity:  item.Quantity,
			SubTotal:  item.SubTotal,
		})
	}
	return dto
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out
}
