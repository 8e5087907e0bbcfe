package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCopyTradeConfigFixedMode(t *testing.T) {
	tests := []struct {
		name       string
		percentRaw string
	}{
		{name: "null selects fixed", percentRaw: "null"},
		{name: "empty selects fixed", percentRaw: ""},
		{name: "NULL is case insensitive", percentRaw: "NULL"},
		{name: "whitespace ignored", percentRaw: "  null  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewCopyTradeConfig(50, tt.percentRaw, true, "FOK", 1, 1000, 0)
			require.NoError(t, err)
			assert.Equal(t, CopyModeFixed, cfg.Mode)
			assert.Equal(t, 50.0, cfg.AmountToCopy)
			assert.Zero(t, cfg.PercentToCopy)
		})
	}
}

func TestNewCopyTradeConfigPercentageMode(t *testing.T) {
	cfg, err := NewCopyTradeConfig(50, "12.5", true, "FOK", 1, 1000, 0)
	require.NoError(t, err)
	assert.Equal(t, CopyModePercentage, cfg.Mode)
	assert.Equal(t, 12.5, cfg.PercentToCopy)
}

func TestNewCopyTradeConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		percentRaw string
		orderType  string
		minSize    float64
		maxSize    float64
		gtcTimeout time.Duration
	}{
		{name: "unknown order type", amount: 50, percentRaw: "null", orderType: "IOC", minSize: 1, maxSize: 1000},
		{name: "fixed mode without amount", amount: 0, percentRaw: "null", orderType: "FOK", minSize: 1, maxSize: 1000},
		{name: "unparseable percentage", amount: 50, percentRaw: "lots", orderType: "FOK", minSize: 1, maxSize: 1000},
		{name: "zero percentage", amount: 50, percentRaw: "0", orderType: "FOK", minSize: 1, maxSize: 1000},
		{name: "negative percentage", amount: 50, percentRaw: "-5", orderType: "FOK", minSize: 1, maxSize: 1000},
		{name: "min above max", amount: 50, percentRaw: "null", orderType: "FOK", minSize: 100, maxSize: 10},
		{name: "zero max", amount: 50, percentRaw: "null", orderType: "FOK", minSize: 0, maxSize: 0},
		{name: "GTC without timeout", amount: 50, percentRaw: "null", orderType: "GTC", minSize: 1, maxSize: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCopyTradeConfig(tt.amount, tt.percentRaw, true, tt.orderType, tt.minSize, tt.maxSize, tt.gtcTimeout)
			assert.Error(t, err)
		})
	}
}

func TestNewCopyTradeConfigNormalizesOrderType(t *testing.T) {
	cfg, err := NewCopyTradeConfig(50, "null", true, "gtc", 1, 1000, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, OrderTypeGTC, cfg.OrderType)
	assert.Equal(t, time.Minute, cfg.GTCTimeout)
}
