// Package executor turns detected trades into venue orders: size, quantize,
// submit, and hand resting orders to the lifecycle manager.
package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"copytrader/src/connectors"
	"copytrader/src/model"
	"copytrader/src/quantize"
	"copytrader/src/sizing"
)

// ExecutionClient is the authenticated execution handle the coordinator
// submits through. Injected, never ambient.
type ExecutionClient interface {
	PostOrder(ctx context.Context, spec connectors.OrderSpec, orderType string) (*connectors.OrderResponse, error)
	PostMarketOrder(ctx context.Context, spec connectors.MarketOrderSpec) (*connectors.OrderResponse, error)
}

// MarketMetadata resolves tick size and the neg-risk flag for a market.
type MarketMetadata interface {
	TickSizeAndRisk(ctx context.Context, conditionID string) (string, bool)
}

// OrderScheduler registers resting orders for auto-expiry.
type OrderScheduler interface {
	Schedule(orderID string, timeout time.Duration)
}

// ResultSink receives one event per processed trade; this is the integration
// point for logging, persistence and notifications.
type ResultSink func(model.CopyResult)

// Coordinator orchestrates one copy attempt per detected trade.
type Coordinator struct {
	cfg       model.CopyTradeConfig
	exec      ExecutionClient
	markets   MarketMetadata
	scheduler OrderScheduler
	sink      ResultSink
	dryRun    bool
}

// NewCoordinator wires the execution path. sink may be nil; scheduler is
// required only when the configured order type is GTC.
func NewCoordinator(cfg model.CopyTradeConfig, exec ExecutionClient, markets MarketMetadata, scheduler OrderScheduler, sink ResultSink, dryRun bool) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		exec:      exec,
		markets:   markets,
		scheduler: scheduler,
		sink:      sink,
		dryRun:    dryRun,
	}
}

// HandleTrade executes the copy flow for one detected trade and emits the
// outcome. Errors are terminal for the trade, never for the caller's loop.
func (c *Coordinator) HandleTrade(ctx context.Context, trade model.Trade, trader *model.TraderConfig) model.CopyResult {
	result := model.CopyResult{
		Trade:     trade,
		Trader:    trader,
		OrderType: c.cfg.OrderType,
	}
	defer func() {
		c.emit(result)
	}()

	copySize, reason := sizing.Calculate(trade, c.cfg, trader)
	result.Reason = reason

	if copySize.Sign() <= 0 {
		logger.WithFields(map[string]interface{}{
			"trader": traderName(trade, trader),
			"reason": reason,
		}).Info("skipping trade")
		return result
	}
	result.CopySizeUsdc = copySize.InexactFloat64()

	logger.WithFields(map[string]interface{}{
		"trader": traderName(trade, trader),
		"trade":  trade.String(),
		"reason": reason,
	}).Info("copying trade")

	if trade.AssetID == "" {
		result.Error = "no token id in trade data"
		return result
	}

	if c.dryRun {
		result.Success = true
		result.OrderID = "DRY_RUN"
		logger.Info("dry run, order not submitted")
		return result
	}

	tickSize, negRisk := c.markets.TickSizeAndRisk(ctx, trade.ConditionID)

	var price, size decimal.Decimal
	if c.cfg.OrderType == model.OrderTypeGTC {
		price, size = quantize.RestingOrderParams(trade.Price, copySize.InexactFloat64(), tickSize)
	} else {
		price, size = quantize.SafeOrderParams(trade.Price, copySize.InexactFloat64(), tickSize, trade.Side)
	}

	logger.WithFields(map[string]interface{}{
		"token_id":   trade.AssetID,
		"price":      price.String(),
		"size":       size.String(),
		"side":       trade.Side,
		"order_type": c.cfg.OrderType,
		"tick_size":  tickSize,
	}).Info("order parameters")

	spec := connectors.OrderSpec{
		TokenID: trade.AssetID,
		Price:   price.String(),
		Size:    size.String(),
		Side:    trade.Side,
		NegRisk: negRisk,
	}

	var (
		resp *connectors.OrderResponse
		err  error
	)
	switch c.cfg.OrderType {
	case model.OrderTypeGTC:
		resp, err = c.exec.PostOrder(ctx, spec, model.OrderTypeGTC)
	case model.OrderTypeFAK:
		resp, err = c.placeFAK(ctx, spec, copySize)
	default:
		resp, err = c.exec.PostOrder(ctx, spec, model.OrderTypeFOK)
	}

	if err != nil {
		result.Error = err.Error()
		logger.WithError(err).Error("order submission failed")
		return result
	}

	result.Success = true
	result.OrderID = resp.OrderID

	if c.cfg.OrderType == model.OrderTypeGTC && resp.OrderID != "" && c.scheduler != nil {
		c.scheduler.Schedule(resp.OrderID, c.cfg.GTCTimeout)
	}

	return result
}

// placeFAK tries the spend-exactly-this-notional shape first and falls back
// to a plain FOK when the venue rejects it.
func (c *Coordinator) placeFAK(ctx context.Context, spec connectors.OrderSpec, copySize decimal.Decimal) (*connectors.OrderResponse, error) {
	market := connectors.MarketOrderSpec{
		TokenID: spec.TokenID,
		Amount:  copySize.Truncate(2).String(),
		Side:    spec.Side,
		NegRisk: spec.NegRisk,
	}

	resp, err := c.exec.PostMarketOrder(ctx, market)
	if err == nil {
		return resp, nil
	}

	logger.WithError(err).Warn("FAK market order rejected, falling back to FOK")
	return c.exec.PostOrder(ctx, spec, model.OrderTypeFOK)
}

// traderName tolerates a missing trader config, which sizing.Calculate also
// accepts; push-feed events may arrive without one.
func traderName(trade model.Trade, trader *model.TraderConfig) string {
	if trader != nil {
		return trader.DisplayName()
	}
	return trade.TraderAddress
}

func (c *Coordinator) emit(result model.CopyResult) {
	if c.sink != nil {
		c.sink(result)
	}
}
