// Package sizing decides how much notional to copy for an observed trade.
package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"copytrader/src/model"
)

// Calculate returns the notional (USDC) to copy for the given trade and a
// human-readable reason for the decision. A zero result means the trade must
// not be copied; the reason is never empty.
//
// Rules apply in order and the first rejection wins: global copy-sell gate,
// per-trader side gates, raw notional (fixed or percentage), global minimum,
// global maximum clamp, per-trader maximum clamp.
func Calculate(trade model.Trade, cfg model.CopyTradeConfig, trader *model.TraderConfig) (decimal.Decimal, string) {
	if trade.Side == model.SideSell && !cfg.CopySell {
		return decimal.Zero, "SELL orders not copied (COPY_SELL=false)"
	}

	if trader != nil {
		if trade.Side == model.SideBuy && !trader.CopyBuys {
			return decimal.Zero, fmt.Sprintf("BUY orders not copied for trader %s", trader.DisplayName())
		}
		if trade.Side == model.SideSell && !trader.CopySells {
			return decimal.Zero, fmt.Sprintf("SELL orders not copied for trader %s", trader.DisplayName())
		}
	}

	var size decimal.Decimal
	var reason string

	if cfg.Mode == model.CopyModeFixed {
		size = decimal.NewFromFloat(cfg.AmountToCopy)
		reason = fmt.Sprintf("fixed amount: $%s", size.StringFixed(2))
	} else {
		pct := decimal.NewFromFloat(cfg.PercentToCopy)
		size = decimal.NewFromFloat(trade.UsdcSize).Mul(pct).Div(decimal.NewFromInt(100))
		reason = fmt.Sprintf("%s%% of $%.2f = $%s", pct.String(), trade.UsdcSize, size.StringFixed(2))
	}

	minSize := decimal.NewFromFloat(cfg.MinTradeSize)
	if size.Cmp(minSize) < 0 {
		return decimal.Zero, fmt.Sprintf("below minimum ($%s < $%s)", size.StringFixed(2), minSize.StringFixed(2))
	}

	maxSize := decimal.NewFromFloat(cfg.MaxTradeSize)
	if size.Cmp(maxSize) > 0 {
		size = maxSize
		reason = fmt.Sprintf("capped at max: $%s", size.StringFixed(2))
	}

	if trader != nil && trader.MaxPositionSize > 0 {
		traderMax := decimal.NewFromFloat(trader.MaxPositionSize)
		if size.Cmp(traderMax) > 0 {
			size = traderMax
			reason = fmt.Sprintf("capped at trader max: $%s", size.StringFixed(2))
		}
	}

	return size, reason
}
