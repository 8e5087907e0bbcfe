package model

import (
	"fmt"
	"time"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade is one counterparty fill observed on the data feed. The feed reports
// both size*price and usdc_size; the two can disagree by a few cents, and
// UsdcSize is the authoritative notional for sizing.
type Trade struct {
	TraderAddress   string
	ConditionID     string
	AssetID         string
	Side            string
	Size            float64
	Price           float64
	UsdcSize        float64
	Timestamp       int64
	Outcome         string
	OutcomeIndex    int
	Title           string
	Slug            string
	TransactionHash string
}

// Time returns the fill timestamp as a time.Time.
func (t Trade) Time() time.Time {
	return time.Unix(t.Timestamp, 0)
}

func (t Trade) String() string {
	title := t.Title
	if len(title) > 40 {
		title = title[:40] + "..."
	}
	return fmt.Sprintf("Trade(%s %.2f %s @ $%.4f = $%.2f on %q)",
		t.Side, t.Size, t.Outcome, t.Price, t.UsdcSize, title)
}
