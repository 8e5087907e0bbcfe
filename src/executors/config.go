package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TradersConfigPath string        `envconfig:"TRADERS_CONFIG" default:"config/traders.json"`
	PollInterval      time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	SeenWindow        time.Duration `envconfig:"SEEN_WINDOW" default:"24h"`
	MaxInFlight       int           `envconfig:"MAX_INFLIGHT_FETCHES" default:"5"`
	DryRun            bool          `envconfig:"DRY_RUN" default:"false"`
	EnableUserWS      bool          `envconfig:"ENABLE_USER_WS" default:"false"`

	AmountToCopy      float64 `envconfig:"AMOUNT_TO_COPY" default:"50"`
	PercentageToCopy  string  `envconfig:"PERCENTAGE_TO_COPY" default:"100"`
	CopySell          bool    `envconfig:"COPY_SELL" default:"true"`
	OrderType         string  `envconfig:"TYPE_ORDER" default:"FOK"`
	MinTradeSize      float64 `envconfig:"MIN_TRADE_SIZE" default:"1"`
	MaxTradeSize      float64 `envconfig:"MAX_TRADE_SIZE" default:"1000"`
	GTCTimeoutSeconds int     `envconfig:"GTC_TIMEOUT_SECONDS" default:"60"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
