package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CopyMode selects how the copy notional is derived from the original trade.
type CopyMode string

const (
	CopyModeFixed      CopyMode = "fixed"
	CopyModePercentage CopyMode = "percentage"
)

// Order types accepted by the CLOB.
const (
	OrderTypeFOK = "FOK" // fill the whole order immediately or reject it
	OrderTypeFAK = "FAK" // fill what is available immediately, cancel the rest
	OrderTypeGTC = "GTC" // rest in the book at the exact price until filled or cancelled
)

// CopyTradeConfig is the per-run copy policy. Mode is resolved once at
// construction so that exactly one of AmountToCopy/PercentToCopy drives
// sizing; the legacy "percentage present vs absent" encoding only exists at
// the env boundary.
type CopyTradeConfig struct {
	Mode          CopyMode
	AmountToCopy  float64
	PercentToCopy float64
	CopySell      bool
	OrderType     string
	MinTradeSize  float64
	MaxTradeSize  float64
	GTCTimeout    time.Duration
}

// NewCopyTradeConfig validates the raw policy values and resolves the sizing
// mode. percentRaw keeps the env spelling: "null" (or empty) selects fixed
// mode, anything else must parse as a percentage.
func NewCopyTradeConfig(amount float64, percentRaw string, copySell bool, orderType string, minSize, maxSize float64, gtcTimeout time.Duration) (CopyTradeConfig, error) {
	cfg := CopyTradeConfig{
		AmountToCopy: amount,
		CopySell:     copySell,
		OrderType:    strings.ToUpper(orderType),
		MinTradeSize: minSize,
		MaxTradeSize: maxSize,
		GTCTimeout:   gtcTimeout,
	}

	switch cfg.OrderType {
	case OrderTypeFOK, OrderTypeFAK, OrderTypeGTC:
	default:
		return CopyTradeConfig{}, fmt.Errorf("invalid order type %q (want FOK, FAK or GTC)", orderType)
	}

	percentRaw = strings.TrimSpace(strings.ToLower(percentRaw))
	if percentRaw == "" || percentRaw == "null" {
		cfg.Mode = CopyModeFixed
		if cfg.AmountToCopy <= 0 {
			return CopyTradeConfig{}, fmt.Errorf("fixed copy mode requires AMOUNT_TO_COPY > 0, got %v", amount)
		}
	} else {
		pct, err := strconv.ParseFloat(percentRaw, 64)
		if err != nil {
			return CopyTradeConfig{}, fmt.Errorf("invalid PERCENTAGE_TO_COPY %q: %w", percentRaw, err)
		}
		if pct <= 0 {
			return CopyTradeConfig{}, fmt.Errorf("PERCENTAGE_TO_COPY must be > 0, got %v", pct)
		}
		cfg.Mode = CopyModePercentage
		cfg.PercentToCopy = pct
	}

	if cfg.MinTradeSize < 0 || cfg.MaxTradeSize <= 0 {
		return CopyTradeConfig{}, fmt.Errorf("invalid trade size bounds min=%v max=%v", minSize, maxSize)
	}
	if cfg.MinTradeSize > cfg.MaxTradeSize {
		return CopyTradeConfig{}, fmt.Errorf("MIN_TRADE_SIZE %v exceeds MAX_TRADE_SIZE %v", minSize, maxSize)
	}
	if cfg.OrderType == OrderTypeGTC && cfg.GTCTimeout <= 0 {
		return CopyTradeConfig{}, fmt.Errorf("GTC orders require a positive timeout, got %v", gtcTimeout)
	}

	return cfg, nil
}
