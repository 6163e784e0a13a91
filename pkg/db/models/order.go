package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is written once, when the gateway payment is verified.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	GatewayOrderID    string              `gorm:"column:gateway_order_id;not null;uniqueIndex:orders_gateway_order_id_key"`
	PaymentID         string              `gorm:"column:payment_id;not null"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null"`
	Quantity          int                 `gorm:"column:quantity;not null"`
	SubTotal          decimal.Decimal     `gorm:"column:sub_total_amt;type:numeric(12,2);not null"`
	DeliveryAddressID uuid.UUID           `gorm:"column:delivery_address_id;type:uuid;not null"`
	InvoiceReceipt    string              `gorm:"column:invoice_receipt;not null"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// LeadProductID is the product of the first line, uuid.Nil for an empty order.
func (o Order) LeadProductID() uuid.UUID {
	if len(o.Items) == 0 {
		return uuid.Nil
	}
	return o.Items[0].ProductID
}

// OrderItem is a priced line captured at verification time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	Position  int             `gorm:"column:position;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Image     string          `gorm:"column:image;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	OldPrice  decimal.Decimal `gorm:"column:old_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	SubTotal  decimal.Decimal `gorm:"column:sub_total;type:numeric(12,2);not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
