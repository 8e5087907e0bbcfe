package monitor

import (
	"fmt"
	"strconv"

	"copytrader/src/model"
)

// Fingerprint identifies a trade record across repeated polls of the same
// history window.
//
// Known correctness gap: two distinct same-size trades by the same trader in
// the same market, on the same side, within the same second collapse into one
// fingerprint and only the first is copied. The upstream feed offers no
// stable record id to close this.
type Fingerprint string

// TradeFingerprint derives the dedup key from the fields that are stable
// across polls: timestamp, market, side and size.
func TradeFingerprint(t model.Trade) Fingerprint {
	return Fingerprint(fmt.Sprintf("%d_%s_%s_%s",
		t.Timestamp,
		t.ConditionID,
		t.Side,
		strconv.FormatFloat(t.Size, 'f', -1, 64),
	))
}
