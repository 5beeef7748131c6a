// Command paperbot runs a periodic loop against a BrokerAdapter,
// polling account state and open positions the way a live or paper
// execution process would, guarded by the circuit-breaker/retry stack
// internal/broker provides. It carries no order-routing or entry/exit
// decision logic of its own (that is the scanner's and an operator's
// job, not this process's).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sym2arb/internal/broker"
	"sym2arb/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var interval time.Duration
	flag.StringVar(&configPath, "config", "config.yaml", "path to configuration file")
	flag.DurationVar(&interval, "interval", 30*time.Second, "polling interval between broker checks")
	flag.Parse()

	logger := log.New(os.Stdout, "[paperbot] ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Printf("loading config: %v", err)
		return 1
	}

	b := broker.NewCircuitBreakerBroker(broker.NewMockBroker())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Connect(ctx); err != nil {
		logger.Printf("connecting to broker %s: %v", cfg.Broker.Provider, err)
		return 1
	}
	defer func() { _ = b.Disconnect(context.Background()) }()

	logger.Printf("connected to broker provider=%s sandbox=%v, polling every %s", cfg.Broker.Provider, cfg.Broker.Sandbox, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Println("shutting down")
			return 0
		case <-ticker.C:
			pollOnce(ctx, b, logger)
		}
	}
}

func pollOnce(ctx context.Context, b *broker.CircuitBreakerBroker, logger *log.Logger) {
	summary, err := b.AccountSummary(ctx)
	if err != nil {
		logger.Printf("account summary: %v (circuit state=%s)", err, b.State())
		return
	}
	positions, err := b.GetPositions(ctx)
	if err != nil {
		logger.Printf("get positions: %v (circuit state=%s)", err, b.State())
		return
	}
	logger.Printf("net_liquidation=%.2f buying_power=%.2f open_positions=%d",
		summary.NetLiquidation, summary.BuyingPower, len(positions))
}
