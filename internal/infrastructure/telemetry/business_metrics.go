package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics tracks marketplace activity: orders, reservations,
// stock rejections and price cache behavior.
type BusinessMetrics struct {
	ordersCreated        metric.Int64Counter
	orderAmount          metric.Float64Counter
	reservationsCreated  metric.Int64Counter
	reservationsExpired  metric.Int64Counter
	stockRejections      metric.Int64Counter
	priceLookups         metric.Int64Counter
	priceCacheMisses     metric.Int64Counter
	priceComputeFailures metric.Int64Counter
}

// NewBusinessMetrics registers the marketplace instruments on the meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	bm := &BusinessMetrics{}

	var err error
	if bm.ordersCreated, err = meter.Int64Counter(
		"marketplace_orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{orders}"),
	); err != nil {
		return nil, err
	}
	if bm.orderAmount, err = meter.Float64Counter(
		"marketplace_order_amount_total",
		metric.WithDescription("Total gross order amount"),
		metric.WithUnit("{sar}"),
	); err != nil {
		return nil, err
	}
	if bm.reservationsCreated, err = meter.Int64Counter(
		"marketplace_reservations_created_total",
		metric.WithDescription("Total stock reservations created"),
		metric.WithUnit("{reservations}"),
	); err != nil {
		return nil, err
	}
	if bm.reservationsExpired, err = meter.Int64Counter(
		"marketplace_reservations_expired_total",
		metric.WithDescription("Total stock reservations released by the expiry sweep"),
		metric.WithUnit("{reservations}"),
	); err != nil {
		return nil, err
	}
	if bm.stockRejections, err = meter.Int64Counter(
		"marketplace_stock_rejections_total",
		metric.WithDescription("Checkout attempts rejected for insufficient stock"),
		metric.WithUnit("{rejections}"),
	); err != nil {
		return nil, err
	}
	if bm.priceLookups, err = meter.Int64Counter(
		"marketplace_price_lookups_total",
		metric.WithDescription("Price quote lookups"),
	); err != nil {
		return nil, err
	}
	if bm.priceCacheMisses, err = meter.Int64Counter(
		"marketplace_price_cache_misses_total",
		metric.WithDescription("Price quote lookups that had to compute"),
	); err != nil {
		return nil, err
	}
	if bm.priceComputeFailures, err = meter.Int64Counter(
		"marketplace_price_compute_failures_total",
		metric.WithDescription("Price computations that failed"),
	); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordOrderCreated records one new order and its total amount
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, total decimal.Decimal, itemCount int) {
	if bm == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Int("items", itemCount))
	bm.ordersCreated.Add(ctx, 1, attrs)
	amount, _ := total.Float64()
	bm.orderAmount.Add(ctx, amount)
}

// RecordReservationCreated records one new stock reservation
func (bm *BusinessMetrics) RecordReservationCreated(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.reservationsCreated.Add(ctx, 1)
}

// RecordReservationsExpired records reservations released by the sweep
func (bm *BusinessMetrics) RecordReservationsExpired(ctx context.Context, count int) {
	if bm == nil || count == 0 {
		return
	}
	bm.reservationsExpired.Add(ctx, int64(count))
}

// RecordStockRejection records a checkout rejected for insufficient stock
func (bm *BusinessMetrics) RecordStockRejection(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.stockRejections.Add(ctx, 1)
}

// RecordPriceLookup records a price quote lookup
func (bm *BusinessMetrics) RecordPriceLookup(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.priceLookups.Add(ctx, 1)
}

// RecordPriceCacheMiss records a price that had to be computed
func (bm *BusinessMetrics) RecordPriceCacheMiss(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.priceCacheMisses.Add(ctx, 1)
}

// RecordPriceComputeFailure records a failed price computation
func (bm *BusinessMetrics) RecordPriceComputeFailure(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.priceComputeFailures.Add(ctx, 1)
}
