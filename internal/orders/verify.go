package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/events"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/payments/razorpay"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Verify checks a completed gateway payment and records the order. Checks
// run in a fixed order and the first failure is returned. Nothing is written
// unless every check passes.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, input VerifyInput) (*OrderDTO, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"gateway_order_id": input.OrderID,
		"payment_id":       input.PaymentID,
	})

	order, err := s.verify(ctx, userID, input)
	if err != nil {
		s.metrics.IncVerification(outcomeFor(err))
		return nil, err
	}
	s.metrics.IncVerification(metrics.OutcomeVerified)
	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "orders.verify.recorded")

	s.afterCommit(ctx, order)
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) verify(ctx context.Context, userID uuid.UUID, input VerifyInput) (*models.Order, error) {
	if !input.Amount.Positive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid amount")
	}

	// Gateway values are signed as sent, so only the presence check trims them.
	orderID, paymentID, signature := input.OrderID, input.PaymentID, input.Signature
	rawAddress := strings.TrimSpace(input.DeliveryAddress)
	if blank(orderID) || blank(paymentID) || blank(signature) || rawAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing payment details or delivery address")
	}

	addressID, err := uuid.Parse(rawAddress)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid delivery address format")
	}
	addr, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Delivery address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery address")
	}
	// Another user's address is reported as missing.
	if addr.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Delivery address not found")
	}

	if len(input.CartData) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart data is required and must be an array")
	}

	if !razorpay.VerifySignature(s.secret, orderID, paymentID, signature) {
		return nil, pkgerrors.New(pkgerrors.CodeSignatureMismatch, "Invalid signature, payment verification failed")
	}

	items, err := s.priceLines(ctx, input.CartData)
	if err != nil {
		return nil, err
	}

	computedQty := 0
	computedTotal := decimal.Zero
	for _, item := range items {
		computedQty += item.Quantity
		computedTotal = computedTotal.Add(item.SubTotal)
	}
	if computedQty > maxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity in cartData").
			WithDetails(map[string]any{"total": computedQty, "max": maxQuantity})
	}

	// Claimed totals are stored; a mismatch is only flagged.
	quantity := computedQty
	if input.Quantity.Valid && !input.Quantity.Value.IsZero() {
		claimed, err := lineQuantity(input.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid quantity")
		}
		quantity = claimed
	}
	subTotal := input.Amount.Value
	if !subTotal.Equal(computedTotal) || quantity != computedQty {
		s.metrics.IncTotalsMismatch()
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"claimed_amount":    subTotal.String(),
			"computed_amount":   computedTotal.String(),
			"claimed_quantity":  quantity,
			"computed_quantity": computedQty,
		}), "orders.verify.totals_mismatch")
	}

	order := &models.Order{
		UserID:            userID,
		GatewayOrderID:    orderID,
		PaymentID:         paymentID,
		PaymentStatus:     enums.PaymentStatusSuccess,
		Quantity:          quantity,
		SubTotal:          subTotal,
		DeliveryAddressID: addressID,
		InvoiceReceipt:    signature,
		Items:             items,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, mapUniqueOrder(err)
	}
	return order, nil
}

// priceLines rebuilds each cart line from the current catalog. A product that
// no longer exists yields a zero-priced line.
func (s *service) priceLines(ctx context.Context, lines []CartLine) ([]models.OrderItem, error) {
	ids := make([]uuid.UUID, len(lines))
	quantities := make([]int, len(lines))
	for i, line := range lines {
		id, err := uuid.Parse(strings.TrimSpace(line.ProductID))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productId in cartData").
				WithDetails(map[string]any{"index": i, "productId": line.ProductID})
		}
		qty, err := lineQuantity(line.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity in cartData").
				WithDetails(map[string]any{"index": i})
		}
		ids[i] = id
		quantities[i] = qty
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	items := make([]models.OrderItem, len(lines))
	for i, id := range ids {
		item := models.OrderItem{
			ProductID: id,
			Quantity:  quantities[i],
			Price:     decimal.Zero,
			OldPrice:  decimal.Zero,
		}
		if product, ok := catalog[id]; ok {
			item.Name = product.Name
			item.Image = product.FirstImage()
			item.Price = product.Price
			item.OldPrice = product.OldPrice
		}
		item.SubTotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items[i] = item
	}
	return items, nil
}

// maxQuantity is the largest quantity the integer columns hold.
const maxQuantity = math.MaxInt32

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// lineQuantity coerces a client quantity. Missing means zero; anything that
// is not a whole number between zero and maxQuantity is rejected.
func lineQuantity(n Number) (int, error) {
	if !n.Present {
		return 0, nil
	}
	if !n.Valid {
		return 0, errors.New("quantity must be numeric")
	}
	if n.Value.IsNegative() {
		return 0, errors.New("quantity cannot be negative")
	}
	if !n.Value.Equal(n.Value.Truncate(0)) {
		return 0, errors.New("quantity must be a whole number")
	}
	if n.Value.GreaterThan(decimal.NewFromInt(maxQuantity)) {
		return 0, fmt.Errorf("quantity cannot exceed %d", maxQuantity)
	}
	return int(n.Value.IntPart()), nil
}

// afterCommit runs the best-effort work that follows a recorded order.
// Failures are logged and counted, never returned.
func (s *service) afterCommit(ctx context.Context, order *models.Order) {
	ctx = s.logg.WithField(ctx, "order_id", order.ID.String())

	if err := s.publisher.PublishOrderPlaced(ctx, orderPlacedEvent(order, s.now())); err != nil {
		s.metrics.IncSideEffectFailure("event")
		s.logg.Error(ctx, "orders.verify.publish_failed", err)
	}

	if err := s.sendConfirmation(ctx, order); err != nil {
		s.metrics.IncSideEffectFailure("email")
		s.logg.Error(ctx, "orders.verify.email_failed", err)
	}
}

func (s *service) sendConfirmation(ctx context.Context, order *models.Order) error {
	user, err := s.lookupUser(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("load order owner: %w", err)
	}
	lines := make([]mailer.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, mailer.OrderLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			SubTotal: item.SubTotal.StringFixed(2),
		})
	}
	msg, err := mailer.OrderConfirmationMessage(user.Email, mailer.OrderConfirmationData{
		Name:    user.Name,
		OrderID: order.GatewayOrderID,
		Items:   lines,
		Total:   order.SubTotal.StringFixed(2),
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func orderPlacedEvent(order *models.Order, placedAt time.Time) events.OrderPlaced {
	items := make([]events.OrderPlacedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, events.OrderPlacedItem{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
			SubTotal:  item.SubTotal.StringFixed(2),
		})
	}
	return events.OrderPlaced{
		OrderID:           order.ID,
		GatewayOrderID:    order.GatewayOrderID,
		PaymentID:         order.PaymentID,
		UserID:            order.UserID,
		DeliveryAddressID: order.DeliveryAddressID,
		Quantity:          order.Quantity,
		SubTotalAmount:    order.SubTotal.StringFixed(2),
		Items:             items,
		PlacedAt:          placedAt.UTC(),
	}
}

func outcomeFor(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeSignatureMismatch):
		return metrics.OutcomeSignatureMismatch
	case pkgerrors.IsCode(err, pkgerrors.CodeDependency), pkgerrors.IsCode(err, pkgerrors.CodeInternal):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}
