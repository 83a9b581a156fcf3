package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes order fulfillment instruments.
type Metrics struct {
	ordersCommitted metric.Int64Counter
	checkoutFailed  metric.Int64Counter
	stockConflicts  metric.Int64Counter
	pointsRewarded  metric.Int64Counter
	txRetries       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "marketplace"
	}
	meter := provider.Meter(name)

	ordersCommitted, err := meter.Int64Counter("marketplace_orders_committed_total")
	if err != nil {
		return nil, err
	}
	checkoutFailed, err := meter.Int64Counter("marketplace_order_failures_total")
	if err != nil {
		return nil, err
	}
	stockConflicts, err := meter.Int64Counter("marketplace_stock_conflicts_total")
	if err != nil {
		return nil, err
	}
	pointsRewarded, err := meter.Int64Counter("marketplace_points_rewarded_total")
	if err != nil {
		return nil, err
	}
	txRetries, err := meter.Int64Counter("marketplace_tx_retries_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersCommitted: ordersCommitted,
		checkoutFailed:  checkoutFailed,
		stockConflicts:  stockConflicts,
		pointsRewarded:  pointsRewarded,
		txRetries:       txRetries,
	}, nil
}

// RecordOrderCommitted counts committed order operations (create, update, delete, confirm).
func (m *Metrics) RecordOrderCommitted(ctx context.Context, operation, paymentStatus string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("payment_status", strings.TrimSpace(paymentStatus)),
	)
	m.ordersCommitted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOrderFailure counts rolled back order operations by failure reason.
func (m *Metrics) RecordOrderFailure(ctx context.Context, operation, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.checkoutFailed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStockConflict counts conditional decrements that affected no rows.
func (m *Metrics) RecordStockConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.stockConflicts.Add(ctx, 1)
}

func (m *Metrics) RecordPointsRewarded(ctx context.Context, tierID string, points int64) {
	if m == nil || points <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("tier", strings.TrimSpace(tierID)))
	m.pointsRewarded.Add(ctx, points, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordTxRetry(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("operation", strings.TrimSpace(operation)))
	m.txRetries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"operation":      {},
	"payment_status": {},
	"reason":         {},
	"tier":           {},
	"status_code":    {},
	"route":          {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
