package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"sym2arb/internal/models"
)

func TestMockBroker_ConnectLifecycle(t *testing.T) {
	b := NewMockBroker()
	require.False(t, b.IsConnected())

	require.NoError(t, b.Connect(context.Background()))
	require.True(t, b.IsConnected())

	require.NoError(t, b.Disconnect(context.Background()))
	require.False(t, b.IsConnected())
}

func TestMockBroker_ReadsFailWhenDisconnected(t *testing.T) {
	b := NewMockBroker()
	_, err := b.AccountSummary(context.Background())
	require.ErrorIs(t, err, models.ErrPreconditionNotMet)
}

func TestMockBroker_ReturnsSeededData(t *testing.T) {
	b := NewMockBroker()
	b.Account = AccountSummary{NetLiquidation: 100000, AvailableFunds: 50000, BuyingPower: 150000}
	b.Prices["SPY"] = 600.0
	c := Contract{Symbol: "SPX", Strike: 6000, Right: models.Call}
	b.Quotes[c] = OptionQuote{Bid: 10.0, Ask: 10.5}
	require.NoError(t, b.Connect(context.Background()))

	acct, err := b.AccountSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 100000.0, acct.NetLiquidation)

	price, err := b.GetCurrentPrice(context.Background(), "SPY")
	require.NoError(t, err)
	require.Equal(t, 600.0, price)

	quote, err := b.GetOptionQuote(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, 10.0, quote.Bid)

	_, err = b.GetCurrentPrice(context.Background(), "QQQ")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMockBroker_ConnectErrStaysDisconnected(t *testing.T) {
	b := NewMockBroker()
	b.ConnectErr = errors.New("network unreachable")
	err := b.Connect(context.Background())
	require.Error(t, err)
	require.False(t, b.IsConnected())
}
