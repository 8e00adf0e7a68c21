package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"matchmaker/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// MetricsProvider manages OpenTelemetry metrics for the matchmaker and
// implements interfaces.MatchMetrics
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	recording     bool
	mu            sync.RWMutex

	stateTransitionsCounter      metric.Int64Counter
	matchesAbortedCounter        metric.Int64Counter
	matchResultsCounter          metric.Int64Counter
	votesCastCounter             metric.Int64Counter
	pickTimeoutsCounter          metric.Int64Counter
	queueJoinsCounter            metric.Int64Counter
	interactionsCounter          metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry meter provider and instruments
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := newResource(mp.config)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("matchmaker")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.recording = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.stateTransitionsCounter, MatchStateTransitionsTotal, "Match lifecycle state transitions"},
		{&mp.matchesAbortedCounter, MatchesAbortedTotal, "Matches aborted before a result"},
		{&mp.matchResultsCounter, MatchResultsTotal, "Match results recorded"},
		{&mp.votesCastCounter, VotesCastTotal, "Accepted vote clicks"},
		{&mp.pickTimeoutsCounter, PickTimeoutsTotal, "Draft picks made at random after a captain timed out"},
		{&mp.queueJoinsCounter, QueueJoinsTotal, "Queue joins"},
		{&mp.interactionsCounter, InteractionsTotal, "Discord interactions handled"},
		{&mp.natsMessagesPublishedCounter, NATSMessagesPublishedTotal, "NATS messages published"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", c.name, err)
		}
		*c.target = counter
	}
	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.recording = false
	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordStateTransition counts a match entering a lifecycle state
func (mp *MetricsProvider) RecordStateTransition(ctx context.Context, queueType string, state string) {
	if !mp.isEnabled() {
		return
	}
	mp.stateTransitionsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelQueueType, queueType),
		attribute.String(LabelState, state),
	))
}

// RecordMatchAborted counts an aborted match by the state it died in
func (mp *MetricsProvider) RecordMatchAborted(ctx context.Context, queueType string, state string) {
	if !mp.isEnabled() {
		return
	}
	mp.matchesAbortedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelQueueType, queueType),
		attribute.String(LabelState, state),
	))
}

func (mp *MetricsProvider) RecordVoteCast(ctx context.Context) {
	if !mp.isEnabled() {
		return
	}
	mp.votesCastCounter.Add(ctx, 1)
}

func (mp *MetricsProvider) RecordPickTimeout(ctx context.Context) {
	if !mp.isEnabled() {
		return
	}
	mp.pickTimeoutsCounter.Add(ctx, 1)
}

func (mp *MetricsProvider) RecordQueueJoin(ctx context.Context, queueType string) {
	if !mp.isEnabled() {
		return
	}
	mp.queueJoinsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelQueueType, queueType),
	))
}

func (mp *MetricsProvider) RecordResult(ctx context.Context, queueType string, adminReported bool) {
	if !mp.isEnabled() {
		return
	}
	mp.matchResultsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelQueueType, queueType),
		attribute.Bool(LabelAdminReported, adminReported),
	))
}

// RecordInteraction counts a handled slash command or component click
func (mp *MetricsProvider) RecordInteraction(interactionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.interactionsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelType, interactionType),
	))
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesPublishedCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelEventType, eventType),
	))
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.recording
}

// newResource describes this service. The schema must match the SDK's default resource.
func newResource(cfg *config.Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.OTelServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
}

var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider; nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
