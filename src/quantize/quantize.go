// Package quantize converts a (price, notional budget) pair into order
// parameters the CLOB will accept. The venue enforces two fixed-point rules:
// the maker amount (price * size) must be exact at 2 decimal places, and the
// size itself must fit in 4 decimal places.
package quantize

import (
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"copytrader/src/model"
)

const (
	// makerPrecision is the decimal precision of the maker (notional) amount.
	makerPrecision = 2
	// sizePrecision is the decimal precision of the taker (size) amount.
	sizePrecision = 4
	// maxBudgetSteps bounds the downward cent walk before giving up and
	// degrading to the minimal size.
	maxBudgetSteps = 200
)

// DefaultTickSize is used whenever market metadata is unavailable.
const DefaultTickSize = "0.01"

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("0.99")
	one      = decimal.NewFromInt(1)
	cent     = decimal.New(1, -makerPrecision)
	minSize  = decimal.New(1, -sizePrecision)
)

// ParseTickSize parses the venue's tick size string, falling back to the
// default 0.01 tick when the value is missing or malformed.
func ParseTickSize(tick string) decimal.Decimal {
	d, err := decimal.NewFromString(tick)
	if err != nil || d.Sign() <= 0 || d.Cmp(one) >= 0 {
		logger.WithField("tick_size", tick).Warn("invalid tick size, using default 0.01")
		return decimal.RequireFromString(DefaultTickSize)
	}
	return d
}

// SafeOrderParams returns (price, size) for immediate order types. The price
// is nudged one tick in the favorable direction for the side (up for BUY,
// down for SELL) to raise the fill probability, then clamped strictly inside
// (0, 1) and aligned to the tick grid.
func SafeOrderParams(rawPrice, budget float64, tickSize string, side string) (decimal.Decimal, decimal.Decimal) {
	tick := ParseTickSize(tickSize)

	price := decimal.NewFromFloat(rawPrice)
	if side == model.SideSell {
		price = price.Sub(tick)
	} else {
		price = price.Add(tick)
	}

	price = snapDown(price, tick)
	price = clampPrice(price, tick)

	return fitBudget(price, decimal.NewFromFloat(budget))
}

// RestingOrderParams returns (price, size) for resting orders. The observed
// price is snapped to the nearest tick with no directional bias so the copy
// rests at the trader's entry price.
func RestingOrderParams(rawPrice, budget float64, tickSize string) (decimal.Decimal, decimal.Decimal) {
	tick := ParseTickSize(tickSize)

	price := decimal.NewFromFloat(rawPrice).Div(tick).Round(0).Mul(tick)
	price = clampPrice(price, tick)

	return fitBudget(price, decimal.NewFromFloat(budget))
}

// snapDown floors the price onto the tick grid.
func snapDown(price, tick decimal.Decimal) decimal.Decimal {
	return price.Div(tick).Floor().Mul(tick)
}

// clampPrice keeps the price inside [tick, 1-tick] and inside the venue's
// hard [0.01, 0.99] band. Binary-outcome prices can never rest at 0 or 1.
func clampPrice(price, tick decimal.Decimal) decimal.Decimal {
	lo := minPrice
	if tick.Cmp(lo) > 0 {
		lo = tick
	}
	hi := maxPrice
	if oneLessTick := one.Sub(tick); oneLessTick.Cmp(hi) < 0 {
		hi = oneLessTick
	}

	if price.Cmp(lo) < 0 {
		return lo
	}
	if price.Cmp(hi) > 0 {
		return hi
	}
	return price
}

// fitBudget walks the maker amount down from the full budget one cent at a
// time until trunc4(maker/price) * price truncates back to exactly that
// maker amount. The walk is bounded; when no exact pair exists the trade
// degrades to the smallest representable size rather than failing.
func fitBudget(price, budget decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	budget = budget.Truncate(makerPrecision)
	budgetCents := budget.Mul(decimal.NewFromInt(100)).IntPart()

	floorCents := budgetCents - maxBudgetSteps
	if floorCents < 0 {
		floorCents = 0
	}

	for makerCents := budgetCents; makerCents > floorCents; makerCents-- {
		maker := decimal.New(makerCents, -makerPrecision)
		size := maker.Div(price).Truncate(sizePrecision)
		if size.Sign() <= 0 {
			continue
		}
		if price.Mul(size).Truncate(makerPrecision).Equal(maker) {
			return price, size
		}
	}

	size := cent.Div(price).Truncate(sizePrecision)
	if size.Cmp(minSize) < 0 {
		size = minSize
	}
	logger.WithFields(map[string]interface{}{
		"price":  price.String(),
		"budget": budget.String(),
		"size":   size.String(),
	}).Warn("no exact maker amount within walk bound, degrading to minimal size")
	return price, size
}
