package checkout

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/order"
	"github.com/autoparts/backend/internal/domain/pricing"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/autoparts/backend/internal/domain/shared/valueobject"
	"github.com/autoparts/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceQuoter supplies the dynamic price for a product at checkout time
// and lets the checkout invalidate stale quotes after stock changes
type PriceQuoter interface {
	Quote(ctx context.Context, productID uuid.UUID) (pricing.Quote, error)
	InvalidateQuote(productID uuid.UUID)
}

// Service orchestrates the order lifecycle: reserving stock, freezing
// prices, committing or compensating reservations as orders move through
// their states.
type Service struct {
	orders   order.Repository
	manager  *inventory.ReservationManager
	ledger   inventory.Ledger
	reserves inventory.ReservationRepository
	quoter   PriceQuoter
	metrics  *telemetry.BusinessMetrics
	logger   *zap.Logger

	taxRate decimal.Decimal
	hold    time.Duration
}

// NewService creates a checkout service
func NewService(
	orders order.Repository,
	manager *inventory.ReservationManager,
	ledger inventory.Ledger,
	reserves inventory.ReservationRepository,
	quoter PriceQuoter,
	taxRate decimal.Decimal,
	hold time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hold <= 0 {
		hold = inventory.DefaultHoldDuration
	}
	return &Service{
		orders:   orders,
		manager:  manager,
		ledger:   ledger,
		reserves: reserves,
		quoter:   quoter,
		taxRate:  taxRate,
		hold:     hold,
		logger:   logger,
	}
}

// SetMetrics attaches business metrics recording
func (s *Service) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

type draftLine struct {
	productID uuid.UUID
	quantity  decimal.Decimal
}

// mergeLines combines duplicate product lines and sorts by product id so
// concurrent checkouts touch products in the same order
func mergeLines(items []CreateOrderItem) ([]draftLine, error) {
	merged := make(map[uuid.UUID]decimal.Decimal, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		merged[item.ProductID] = merged[item.ProductID].Add(item.Quantity)
	}

	lines := make([]draftLine, 0, len(merged))
	for id, qty := range merged {
		lines = append(lines, draftLine{productID: id, quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].productID.String() < lines[j].productID.String()
	})
	return lines, nil
}

// CreateOrder reserves stock for every requested line, freezes the dynamic
// price per unit and creates the order in PENDING. The operation is
// all-or-nothing: if any line cannot be reserved, every reservation taken
// so far is released and no order is created.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	draftID := uuid.New()
	reserved := make([]*inventory.Reservation, 0, len(lines))

	rollback := func() {
		for _, res := range reserved {
			if err := s.manager.Release(ctx, res.ID); err != nil {
				s.logger.Error("Failed to release reservation during checkout rollback",
					zap.String("reservation_id", res.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	items := make([]order.Item, 0, len(lines))
	for _, line := range lines {
		quote, err := s.quoter.Quote(ctx, line.productID)
		if err != nil {
			rollback()
			return nil, err
		}

		res, err := s.manager.Reserve(ctx, line.productID, line.quantity, draftID, s.hold)
		if err != nil {
			rollback()
			if errors.Is(err, shared.ErrInsufficientStock) {
				s.metrics.RecordStockRejection(ctx)
			}
			return nil, err
		}
		reserved = append(reserved, res)
		s.metrics.RecordReservationCreated(ctx)

		item, err := order.NewItem(draftID, line.productID, line.quantity, valueobject.NewMoneySAR(quote.Price), res.ID)
		if err != nil {
			rollback()
			return nil, err
		}
		items = append(items, item)
	}

	o, err := order.NewOrder(items, s.taxRate)
	if err != nil {
		rollback()
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		rollback()
		return nil, err
	}

	// Stock moved, so cached quotes for these products are stale.
	for _, line := range lines {
		s.quoter.InvalidateQuote(line.productID)
	}

	s.metrics.RecordOrderCreated(ctx, o.Total, len(o.Items))
	s.logger.Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.String()),
	)

	return ToOrderResponse(o), nil
}

// ConfirmOrder commits every reservation backing a PENDING order and moves
// it to CONFIRMED. If any reservation already expired, the commits made so
// far are compensated with a stock restore, the order stays PENDING and
// ErrReservationExpired is returned so the caller can retry checkout.
func (s *Service) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, shared.ErrInvalidStateTransition
	}

	committed := make([]order.Item, 0, len(o.Items))
	for _, item := range o.Items {
		if err := s.manager.Commit(ctx, item.ReservationID); err != nil {
			for _, done := range committed {
				if restoreErr := s.ledger.Restore(ctx, done.ProductID, done.Quantity, done.ReservationID.String()); restoreErr != nil {
					s.logger.Error("Failed to restore stock after partial confirm",
						zap.String("order_id", o.ID.String()),
						zap.String("product_id", done.ProductID.String()),
						zap.Error(restoreErr),
					)
				}
			}
			return nil, s.mapCommitError(ctx, item.ReservationID, err)
		}
		committed = append(committed, item)
	}

	if err := o.Confirm(); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order confirmed", zap.String("order_id", o.ID.String()))
	return ToOrderResponse(o), nil
}

// mapCommitError distinguishes a commit that lost to the expiry sweep from
// other invalid states
func (s *Service) mapCommitError(ctx context.Context, reservationID uuid.UUID, err error) error {
	if !errors.Is(err, shared.ErrInvalidReservationState) {
		return err
	}
	res, findErr := s.reserves.FindByID(ctx, reservationID)
	if findErr == nil && res.Status == inventory.ReservationStatusExpired {
		return shared.ErrReservationExpired
	}
	return err
}

// CancelOrder cancels a PENDING or CONFIRMED order and compensates its
// stock effects: pending holds are released, committed quantities are
// restored to on-hand stock.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	wasConfirmed := o.WasConfirmed()
	if err := o.Cancel(reason); err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		if wasConfirmed {
			if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity, item.ReservationID.String()); err != nil {
				s.logger.Error("Failed to restore stock for cancelled order",
					zap.String("order_id", o.ID.String()),
					zap.String("product_id", item.ProductID.String()),
					zap.Error(err),
				)
			}
		} else {
			// A hold that already expired was released by the sweep;
			// losing that race is not an error here.
			if err := s.manager.Release(ctx, item.ReservationID); err != nil &&
				!errors.Is(err, shared.ErrInvalidReservationState) {
				s.logger.Error("Failed to release reservation for cancelled order",
					zap.String("order_id", o.ID.String()),
					zap.String("reservation_id", item.ReservationID.String()),
					zap.Error(err),
				)
			}
		}
		s.quoter.InvalidateQuote(item.ProductID)
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("reason", reason),
	)
	return ToOrderResponse(o), nil
}

// RefundOrder refunds a DELIVERED order and restores its stock
func (s *Service) RefundOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.Refund(); err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity, item.ReservationID.String()); err != nil {
			s.logger.Error("Failed to restore stock for refunded order",
				zap.String("order_id", o.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
		}
		s.quoter.InvalidateQuote(item.ProductID)
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order refunded", zap.String("order_id", o.ID.String()))
	return ToOrderResponse(o), nil
}

// StartProcessing moves a CONFIRMED order to PROCESSING
func (s *Service) StartProcessing(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.advance(ctx, orderID, (*order.Order).StartProcessing)
}

// MarkShipped moves a PROCESSING order to SHIPPED
func (s *Service) MarkShipped(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.advance(ctx, orderID, (*order.Order).MarkShipped)
}

// MarkDelivered moves a SHIPPED order to DELIVERED
func (s *Service) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.advance(ctx, orderID, (*order.Order).MarkDelivered)
}

// MarkPaid records a successful payment for the order
func (s *Service) MarkPaid(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.advance(ctx, orderID, (*order.Order).MarkPaid)
}

func (s *Service) advance(ctx context.Context, orderID uuid.UUID, mutate func(*order.Order) error) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := mutate(o); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// GetOrder returns one order
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// ListOrdersByStatus lists orders in a given status, newest first
func (s *Service) ListOrdersByStatus(ctx context.Context, status order.Status, limit int) ([]*OrderResponse, error) {
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	found, err := s.orders.FindByStatus(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*OrderResponse, len(found))
	for i, o := range found {
		out[i] = ToOrderResponse(o)
	}
	return out, nil
}
