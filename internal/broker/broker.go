// Package broker defines the contract-only surface the analytical
// core consumes from a live-trading UI: connection lifecycle, account
// and position snapshots, current price and option quote lookups, and
// position close acknowledgement. No concrete broker wire protocol is
// implemented here; callers supply their own Broker and the core never
// depends on broker-specific semantics beyond this interface.
package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sym2arb/internal/models"
)

// ConnState is one state in the connect/disconnect lifecycle.
type ConnState int

// Valid ConnState values, matching the state machine's four named states.
const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Disconnecting
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Contract identifies a single option contract by symbol, strike,
// right, and expiry.
type Contract struct {
	Symbol string
	Strike float64
	Right  models.Right
	Expiry time.Time
}

// AccountSummary is the broker's account-level snapshot.
type AccountSummary struct {
	NetLiquidation float64
	AvailableFunds float64
	BuyingPower    float64
}

// PositionItem is one open position as reported by the broker, distinct
// from the analytical core's own request-scoped models.Position.
type PositionItem struct {
	Contract       Contract
	Size           int
	AvgCost        float64
	MarketPrice    *float64
	MarketValue    *float64
	UnrealizedPnL  *float64
}

// OptionQuote is a bid/ask pair for a single contract.
type OptionQuote struct {
	Bid float64
	Ask float64
}

// OrderType enumerates the close order types the adapter accepts.
type OrderType string

// Valid OrderType values.
const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// OrderAck acknowledges a submitted close order.
type OrderAck struct {
	OrderID string
	Status  string
}

// Broker is the abstract surface the core consumes. Every method that
// touches the network takes a context so a caller can bound it with a
// deadline; read operations issued while not connected fail with
// ErrPreconditionNotMet.
type Broker interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	AccountSummary(ctx context.Context) (AccountSummary, error)
	GetPositions(ctx context.Context) ([]PositionItem, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetOptionQuote(ctx context.Context, c Contract) (OptionQuote, error)
	Close(ctx context.Context, c Contract, quantity int, orderType OrderType) (OrderAck, error)
}

// MockBroker is an in-memory Broker test double. Its exported fields
// let a test pre-seed responses or force a particular method to fail.
type MockBroker struct {
	mu sync.Mutex

	state ConnState

	Account   AccountSummary
	Positions []PositionItem
	Prices    map[string]float64
	Quotes    map[Contract]OptionQuote

	ConnectErr error
	FailAll    bool
	CloseAck   OrderAck
}

// NewMockBroker returns a disconnected MockBroker ready for a test to
// populate.
func NewMockBroker() *MockBroker {
	return &MockBroker{
		state:  Disconnected,
		Prices: make(map[string]float64),
		Quotes: make(map[Contract]OptionQuote),
	}
}

// Connect transitions disconnected -> connecting -> connected.
func (m *MockBroker) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Connecting
	if m.ConnectErr != nil {
		m.state = Disconnected
		return m.ConnectErr
	}
	m.state = Connected
	return nil
}

// Disconnect transitions connected -> disconnecting -> disconnected.
func (m *MockBroker) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Disconnecting
	m.state = Disconnected
	return nil
}

// IsConnected reports whether the mock is in the Connected state.
func (m *MockBroker) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Connected
}

func (m *MockBroker) requireConnected() error {
	if m.state != Connected {
		return fmt.Errorf("%w: broker is %s, not connected", models.ErrPreconditionNotMet, m.state)
	}
	if m.FailAll {
		return fmt.Errorf("%w: mock broker forced failure", models.ErrInconsistentData)
	}
	return nil
}

// AccountSummary returns the pre-seeded account summary.
func (m *MockBroker) AccountSummary(_ context.Context) (AccountSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireConnected(); err != nil {
		return AccountSummary{}, err
	}
	return m.Account, nil
}

// GetPositions returns the pre-seeded position list.
func (m *MockBroker) GetPositions(_ context.Context) ([]PositionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireConnected(); err != nil {
		return nil, err
	}
	return m.Positions, nil
}

// GetCurrentPrice returns the pre-seeded price for symbol, or
// ErrNotFound if none was seeded.
func (m *MockBroker) GetCurrentPrice(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireConnected(); err != nil {
		return 0, err
	}
	p, ok := m.Prices[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: no price seeded for %s", models.ErrNotFound, symbol)
	}
	return p, nil
}

// GetOptionQuote returns the pre-seeded quote for c, or ErrNotFound if
// none was seeded.
func (m *MockBroker) GetOptionQuote(_ context.Context, c Contract) (OptionQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireConnected(); err != nil {
		return OptionQuote{}, err
	}
	q, ok := m.Quotes[c]
	if !ok {
		return OptionQuote{}, fmt.Errorf("%w: no quote seeded for %+v", models.ErrNotFound, c)
	}
	return q, nil
}

// Close returns the pre-seeded CloseAck.
func (m *MockBroker) Close(_ context.Context, _ Contract, _ int, _ OrderType) (OrderAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireConnected(); err != nil {
		return OrderAck{}, err
	}
	return m.CloseAck, nil
}
