package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/events"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/payments/razorpay"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type addressFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

type productFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes payment-order creation, verification and order reads.
type Service interface {
	CreatePaymentOrder(ctx context.Context, input CreatePaymentInput) (map[string]any, error)
	Verify(ctx context.Context, userID uuid.UUID, input VerifyInput) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	ListAll(ctx context.Context) ([]OrderDTO, error)
}

// ServiceParams groups dependencies for the order service. Publisher,
// Mailer, Users and Metrics are optional.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Addresses     addressFinder
	Products      productFinder
	Users         userFinder
	Gateway       razorpay.Gateway
	GatewaySecret string
	Currency      string
	Publisher     events.Publisher
	Mailer        mailer.Sender
	Metrics       *metrics.OrderMetrics
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	addresses addressFinder
	products  productFinder
	users     userFinder
	gateway   razorpay.Gateway
	secret    string
	currency  string
	publisher events.Publisher
	mailer    mailer.Sender
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address lookup required")
	case params.Products == nil:
		return nil, fmt.Errorf("product lookup required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case strings.TrimSpace(params.GatewaySecret) == "":
		return nil, fmt.Errorf("payment gateway secret required")
	}

	svc := &service{
		repo:      params.Repo,
		tx:        params.Tx,
		addresses: params.Addresses,
		products:  params.Products,
		users:     params.Users,
		gateway:   params.Gateway,
		secret:    params.GatewaySecret,
		currency:  params.Currency,
		publisher: params.Publisher,
		mailer:    params.Mailer,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       params.Now,
	}
	if svc.currency == "" {
		svc.currency = "INR"
	}
	if svc.publisher == nil {
		svc.publisher = events.Noop{}
	}
	if svc.mailer == nil {
		svc.mailer = mailer.Noop{}
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// CreatePaymentOrder opens an order on the gateway for amount (in rupees)
// and returns the gateway's order object unchanged.
func (s *service) CreatePaymentOrder(ctx context.Context, input CreatePaymentInput) (map[string]any, error) {
	if !input.Amount.Valid || input.Amount.Value.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid amount")
	}
	req := razorpay.NewOrderRequest(input.Amount.Value, s.currency, s.now())
	order, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Orders not found")
	}
	return newOrderDTOs(rows), nil
}

func (s *service) ListAll(ctx context.Context) ([]OrderDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderDTOs(rows), nil
}

func (s *service) lookupUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if s.users == nil {
		return nil, errors.New("user lookup not configured")
	}
	return s.users.FindByID(ctx, userID)
}

func mapUniqueOrder(err error) error {
	if db.IsUniqueViolation(err) {
		return pkgerrors.Conflict("orderId", err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
}
