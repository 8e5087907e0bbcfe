package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DataAPIBaseURL string `envconfig:"DATA_API_BASE_URL" default:"https://data-api.polymarket.com"`
	GammaBaseURL   string `envconfig:"GAMMA_API_BASE_URL" default:"https://gamma-api.polymarket.com"`
	CLOBBaseURL    string `envconfig:"CLOB_BASE_URL" default:"https://clob.polymarket.com"`
	UserWSURL      string `envconfig:"USER_WS_URL" default:"wss://ws-subscriptions-clob.polymarket.com/ws/user"`

	CLOBAPIKey        string        `envconfig:"CLOB_API_KEY"`
	CLOBAPISecret     string        `envconfig:"CLOB_API_SECRET"`
	CLOBAPIPassphrase string        `envconfig:"CLOB_API_PASSPHRASE"`
	FunderAddress     string        `envconfig:"FUNDER_ADDRESS"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
