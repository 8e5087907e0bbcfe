package connectors

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"copytrader/src/model"
)

const (
	wsPingInterval   = 10 * time.Second
	wsReconnectDelay = 5 * time.Second
)

// UserFeed consumes the authenticated user websocket channel. It is an
// optional acceleration: trade events arrive faster than polling, but they
// flow through the same dedup path, so correctness never depends on the
// socket staying up.
type UserFeed struct {
	url        string
	apiKey     string
	apiSecret  string
	passphrase string
	onTrade    func(model.Trade)
}

// NewUserFeed builds the feed. onTrade receives every parsed trade event.
func NewUserFeed(url, apiKey, apiSecret, passphrase string, onTrade func(model.Trade)) *UserFeed {
	if url == "" {
		url = GetConfig().UserWSURL
	}
	return &UserFeed{
		url:        url,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
		onTrade:    onTrade,
	}
}

type wsSubscribe struct {
	Auth    wsAuth   `json:"auth"`
	Type    string   `json:"type"`
	Markets []string `json:"markets"`
}

type wsAuth struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// wsTradeEvent mirrors the user-channel trade message. Numeric fields arrive
// as strings.
type wsTradeEvent struct {
	EventType    string `json:"event_type"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Size         string `json:"size"`
	Price        string `json:"price"`
	Timestamp    string `json:"timestamp"`
	Outcome      string `json:"outcome"`
	OutcomeIndex int    `json:"outcome_index"`
	Maker        string `json:"maker_address"`
	Taker        string `json:"taker_address"`
	TxHash       string `json:"transaction_hash"`
}

// Run keeps the feed connected until ctx is cancelled, reconnecting with a
// fixed delay after any failure.
func (f *UserFeed) Run(ctx context.Context) {
	for {
		if err := f.consume(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("user websocket dropped, reconnecting")
		}

		select {
		case <-ctx.Done():
			logger.Info("user websocket feed stopped")
			return
		case <-time.After(wsReconnectDelay):
		}
	}
}

func (f *UserFeed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := wsSubscribe{
		Auth: wsAuth{
			APIKey:     f.apiKey,
			Secret:     f.apiSecret,
			Passphrase: f.passphrase,
		},
		Type:    "user",
		Markets: []string{},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	logger.Info("user websocket connected")

	// Keepalive pings; the server closes idle connections.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.dispatch(raw)
	}
}

// dispatch parses one frame; the channel multiplexes several event types and
// only trade events are forwarded.
func (f *UserFeed) dispatch(raw []byte) {
	var events []wsTradeEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		var single wsTradeEvent
		if err := json.Unmarshal(raw, &single); err != nil {
			return
		}
		events = append(events, single)
	}

	for _, event := range events {
		if event.EventType != "trade" {
			continue
		}
		trade, ok := event.toTrade()
		if !ok {
			continue
		}
		f.onTrade(trade)
	}
}

func (e wsTradeEvent) toTrade() (model.Trade, bool) {
	size, err := strconv.ParseFloat(e.Size, 64)
	if err != nil {
		return model.Trade{}, false
	}
	price, err := strconv.ParseFloat(e.Price, 64)
	if err != nil {
		return model.Trade{}, false
	}
	ts, err := strconv.ParseInt(e.Timestamp, 10, 64)
	if err != nil {
		return model.Trade{}, false
	}
	// The user channel reports millisecond timestamps; history reports
	// seconds. Normalize so fingerprints line up.
	if ts > 1e12 {
		ts /= 1000
	}

	return model.Trade{
		TraderAddress:   e.Maker,
		ConditionID:     e.Market,
		AssetID:         e.AssetID,
		Side:            e.Side,
		Size:            size,
		Price:           price,
		UsdcSize:        size * price,
		Timestamp:       ts,
		Outcome:         e.Outcome,
		OutcomeIndex:    e.OutcomeIndex,
		TransactionHash: e.TxHash,
	}, true
}
