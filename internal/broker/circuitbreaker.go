package broker

import (
	"context"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"sym2arb/internal/metrics"
	"sym2arb/internal/retry"
)

// CircuitBreakerSettings configures the underlying gobreaker.CircuitBreaker.
type CircuitBreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultCircuitBreakerSettings trips once at least half of at least 5
// requests in a rolling window fail, and probes again after 30s.
var DefaultCircuitBreakerSettings = CircuitBreakerSettings{
	MaxRequests:  1,
	Interval:     60 * time.Second,
	Timeout:      30 * time.Second,
	MinRequests:  5,
	FailureRatio: 0.5,
}

// CircuitBreakerBroker wraps a Broker in a gobreaker.CircuitBreaker so
// repeated downstream failures fail fast instead of piling up retries
// against an unresponsive broker.
type CircuitBreakerBroker struct {
	broker  Broker
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerBroker wraps broker with DefaultCircuitBreakerSettings.
func NewCircuitBreakerBroker(b Broker) *CircuitBreakerBroker {
	return NewCircuitBreakerBrokerWithSettings(b, DefaultCircuitBreakerSettings)
}

// NewCircuitBreakerBrokerWithSettings wraps broker with custom settings.
func NewCircuitBreakerBrokerWithSettings(b Broker, s CircuitBreakerSettings) *CircuitBreakerBroker {
	st := gobreaker.Settings{
		Name:        "broker",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= s.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
	}
	return &CircuitBreakerBroker{broker: b, breaker: gobreaker.NewCircuitBreaker(st)}
}

// State returns the breaker's current gobreaker.State.
func (c *CircuitBreakerBroker) State() gobreaker.State {
	return c.breaker.State()
}

func execute[T any](c *CircuitBreakerBroker, fn func() (T, error)) (T, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	metrics.BrokerCircuitState.Set(float64(c.breaker.State()))
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// Connect passes through without breaker protection: connecting is
// what recovers a tripped breaker's downstream dependency.
func (c *CircuitBreakerBroker) Connect(ctx context.Context) error {
	return c.broker.Connect(ctx)
}

// Disconnect passes through without breaker protection.
func (c *CircuitBreakerBroker) Disconnect(ctx context.Context) error {
	return c.broker.Disconnect(ctx)
}

// IsConnected passes through without breaker protection.
func (c *CircuitBreakerBroker) IsConnected() bool {
	return c.broker.IsConnected()
}

// AccountSummary is breaker-protected.
func (c *CircuitBreakerBroker) AccountSummary(ctx context.Context) (AccountSummary, error) {
	return execute(c, func() (AccountSummary, error) { return c.broker.AccountSummary(ctx) })
}

// GetPositions is breaker-protected.
func (c *CircuitBreakerBroker) GetPositions(ctx context.Context) ([]PositionItem, error) {
	return execute(c, func() ([]PositionItem, error) { return c.broker.GetPositions(ctx) })
}

// GetCurrentPrice is breaker-protected.
func (c *CircuitBreakerBroker) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return execute(c, func() (float64, error) { return c.broker.GetCurrentPrice(ctx, symbol) })
}

// GetOptionQuote is breaker-protected.
func (c *CircuitBreakerBroker) GetOptionQuote(ctx context.Context, contract Contract) (OptionQuote, error) {
	return execute(c, func() (OptionQuote, error) { return c.broker.GetOptionQuote(ctx, contract) })
}

// Close is breaker-protected and retried on transient failures: a
// close acknowledgement request is safe to retry since the broker
// surface treats it as idempotent per contract.
func (c *CircuitBreakerBroker) Close(ctx context.Context, contract Contract, quantity int, orderType OrderType) (OrderAck, error) {
	return execute(c, func() (OrderAck, error) {
		return retry.Do(ctx, log.Default(), retry.DefaultConfig, "broker.Close", func(callCtx context.Context) (OrderAck, error) {
			return c.broker.Close(callCtx, contract, quantity, orderType)
		})
	})
}
