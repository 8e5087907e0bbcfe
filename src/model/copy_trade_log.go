package model

import "time"

// Copy execution outcomes, one terminal state per detected trade.
const (
	CopyStatusExecuted = "executed"
	CopyStatusSkipped  = "skipped"
	CopyStatusFailed   = "failed"
)

// CopyTradeLog records one copy attempt. Persisted when ENABLE_DB is set so
// a run's decisions can be audited after the fact.
type CopyTradeLog struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	TraderAddress string  `gorm:"size:64;index" json:"trader_address"`
	TraderName    string  `gorm:"size:120" json:"trader_name"`
	ConditionID   string  `gorm:"size:120;index" json:"condition_id"`
	AssetID       string  `gorm:"size:120" json:"asset_id"`
	Title         string  `json:"title"`
	Side          string  `gorm:"size:10" json:"side"`
	OrderType     string  `gorm:"size:10" json:"order_type"`
	OriginalSize  float64 `json:"original_size"`
	OriginalPrice float64 `json:"original_price"`
	OriginalUsdc  float64 `json:"original_usdc"`
	CopySizeUsdc  float64 `json:"copy_size_usdc"`
	OrderID       string  `gorm:"size:120" json:"order_id"`
	Status        string  `gorm:"size:20;not null;index" json:"status"`
	Reason        string  `json:"reason"`
	Error         string  `json:"error"`
	TradeTS       int64   `gorm:"index" json:"trade_ts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName controls the exact table name for copy trade logs.
func (CopyTradeLog) TableName() string {
	return "copy_trade_logs"
}

// CopyResult is the event emitted to the sink for every processed trade.
type CopyResult struct {
	Trade        Trade
	Trader       *TraderConfig
	Success      bool
	CopySizeUsdc float64
	OrderID      string
	OrderType    string
	Reason       string
	Error        string
}

// Log converts the result into its persistable form.
func (r CopyResult) Log() *CopyTradeLog {
	status := CopyStatusSkipped
	switch {
	case r.Success:
		status = CopyStatusExecuted
	case r.Error != "":
		status = CopyStatusFailed
	}

	entry := &CopyTradeLog{
		TraderAddress: r.Trade.TraderAddress,
		ConditionID:   r.Trade.ConditionID,
		AssetID:       r.Trade.AssetID,
		Title:         r.Trade.Title,
		Side:          r.Trade.Side,
		OrderType:     r.OrderType,
		OriginalSize:  r.Trade.Size,
		OriginalPrice: r.Trade.Price,
		OriginalUsdc:  r.Trade.UsdcSize,
		CopySizeUsdc:  r.CopySizeUsdc,
		OrderID:       r.OrderID,
		Status:        status,
		Reason:        r.Reason,
		Error:         r.Error,
		TradeTS:       r.Trade.Timestamp,
	}
	if r.Trader != nil {
		entry.TraderName = r.Trader.Nickname
	}
	return entry
}
